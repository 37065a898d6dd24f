// Package submission renders and parses the export artifact that carries
// offline view counts from a client to the operator who merges them into the
// authoritative store.
//
// The artifact is plain text: a short header, fixed instructions for the
// out-of-band channel (an issue on the site's tracker), and the pending
// mapping as a fenced JSON block. Parse only trusts the JSON block and the
// header lines; the instructions may be edited freely in transit.
package submission

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
)

const (
	headerTitle   = "viewkeeper pending view counts"
	headerID      = "Submission: "
	headerCreated = "Created: "
	headerKeyedBy = "Keyed by: "
	fenceOpen     = "```json"
	fenceClose    = "```"
)

var (
	ErrNoPayload      = errors.New("artifact has no json payload")
	ErrInvalidPayload = errors.New("artifact payload is invalid")
)

// What the keys of Counts name on the server.
const (
	KeyByID    = "id"
	KeyByTitle = "title"
)

// Submission is one export of the pending ledger.
type Submission struct {
	ID        string
	CreatedAt time.Time
	// KeyedBy is KeyByID or KeyByTitle.
	KeyedBy string
	Counts  map[string]int64
}

// New stamps counts with a fresh id and the current time.
func New(counts map[string]int64, now time.Time) *Submission {
	c := make(map[string]int64, len(counts))
	for k, v := range counts {
		c[k] = v
	}
	return &Submission{ID: uuid.NewString(), CreatedAt: now.UTC(), KeyedBy: KeyByID, Counts: c}
}

// Total is the sum of all submitted counts.
func (s *Submission) Total() int64 {
	var n int64
	for _, v := range s.Counts {
		n += v
	}
	return n
}

// PostIDs returns the submitted post ids in lexical order.
func (s *Submission) PostIDs() []string {
	ids := make([]string, 0, len(s.Counts))
	for id := range s.Counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var instructions = template.Must(template.New("instructions").Parse(`{{.Title}}
{{.IDPrefix}}{{.ID}}
{{.CreatedPrefix}}{{.Created}}
{{.KeyedByPrefix}}{{.KeyedBy}}

These views were counted on this device while the view counter was not
reachable. They are not part of the public totals yet.

To have them merged:
  1. Open a new issue{{if .IssueURL}} at {{.IssueURL}}{{end}} titled "View count merge {{.ID}}".
  2. Paste this whole file into the issue body.
  3. A maintainer adds the counts below to the live counters and closes the issue.

Keep this file until the issue is closed; exporting again produces the same
numbers plus any views counted since.

`))

func keyedBy(k string) string {
	if k == KeyByTitle {
		return KeyByTitle
	}
	return KeyByID
}

// Render produces the artifact text. issueURL may be empty.
func Render(s *Submission, issueURL string) ([]byte, error) {
	payload, err := json.MarshalIndent(s.Counts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal counts: %w", err)
	}

	var buf bytes.Buffer
	err = instructions.Execute(&buf, map[string]string{
		"Title":         headerTitle,
		"IDPrefix":      headerID,
		"ID":            s.ID,
		"CreatedPrefix": headerCreated,
		"Created":       s.CreatedAt.Format(time.RFC3339),
		"KeyedByPrefix": headerKeyedBy,
		"KeyedBy":       keyedBy(s.KeyedBy),
		"IssueURL":      issueURL,
	})
	if err != nil {
		return nil, fmt.Errorf("render instructions: %w", err)
	}

	buf.WriteString(fenceOpen + "\n")
	buf.Write(payload)
	buf.WriteString("\n" + fenceClose + "\n")
	return buf.Bytes(), nil
}

// Parse extracts the submission from an artifact. Header lines are optional
// (keys default to post ids); the JSON block is required and must hold
// non-negative integer counts.
func Parse(artifact []byte) (*Submission, error) {
	s := &Submission{KeyedBy: KeyByID}

	var (
		inBlock bool
		found   bool
		block   strings.Builder
	)

	sc := bufio.NewScanner(bytes.NewReader(artifact))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case inBlock && trimmed == fenceClose:
			inBlock = false
			found = true
		case inBlock:
			block.WriteString(line)
			block.WriteByte('\n')
		case !found && trimmed == fenceOpen:
			inBlock = true
		case strings.HasPrefix(trimmed, headerID):
			s.ID = strings.TrimSpace(strings.TrimPrefix(trimmed, headerID))
		case strings.HasPrefix(trimmed, headerKeyedBy):
			s.KeyedBy = keyedBy(strings.TrimSpace(strings.TrimPrefix(trimmed, headerKeyedBy)))
		case strings.HasPrefix(trimmed, headerCreated):
			if t, err := time.Parse(time.RFC3339, strings.TrimSpace(strings.TrimPrefix(trimmed, headerCreated))); err == nil {
				s.CreatedAt = t
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	if !found {
		return nil, ErrNoPayload
	}

	if err := json.Unmarshal([]byte(block.String()), &s.Counts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	for id, n := range s.Counts {
		if id == "" || n < 0 {
			return nil, fmt.Errorf("%w: bad entry %q=%d", ErrInvalidPayload, id, n)
		}
	}
	if s.Counts == nil {
		s.Counts = map[string]int64{}
	}
	return s, nil
}
