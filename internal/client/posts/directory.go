// Package posts supplies the list of posts the viewer can open.
package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/client/client"
	"github.com/dmitrijs2005/viewkeeper/internal/client/models"
	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/hashicorp/go-retryablehttp"
)

// Directory lists posts, newest first.
type Directory interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
}

// record is the JSON table row: {"id","title","created","views"}.
type record struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
	Views   *int64    `json:"views"`
}

// Decode parses a JSON post table and sorts it newest first. Rows without
// an id are dropped.
func Decode(r io.Reader) ([]models.Post, error) {
	var rows []record
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	out := make([]models.Post, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			continue
		}
		p := models.Post{ID: row.ID, Title: row.Title, PublishedAt: row.Created}
		if row.Views != nil && *row.Views > 0 {
			p.Views = *row.Views
		}
		out = append(out, p)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(ps []models.Post) {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].PublishedAt.After(ps[j].PublishedAt)
	})
}

// StaticDirectory serves a fixed list.
type StaticDirectory struct {
	posts []models.Post
}

func NewStaticDirectory(ps ...models.Post) *StaticDirectory {
	cp := append([]models.Post(nil), ps...)
	sortNewestFirst(cp)
	return &StaticDirectory{posts: cp}
}

func (d *StaticDirectory) ListPosts(ctx context.Context) ([]models.Post, error) {
	return append([]models.Post(nil), d.posts...), nil
}

// FileDirectory reads the JSON table from disk on every call.
type FileDirectory struct {
	path string
}

func NewFileDirectory(path string) *FileDirectory {
	return &FileDirectory{path: path}
}

func (d *FileDirectory) ListPosts(ctx context.Context) ([]models.Post, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// HTTPDirectory fetches the JSON table from a URL.
type HTTPDirectory struct {
	url  string
	http *retryablehttp.Client
}

func NewHTTPDirectory(url string, timeout time.Duration, logger *slog.Logger) *HTTPDirectory {
	return &HTTPDirectory{url: url, http: client.NewRetryClient(timeout, logger)}
}

func (d *HTTPDirectory) ListPosts(ctx context.Context) ([]models.Post, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: posts status %d", common.ErrRemoteUnavailable, resp.StatusCode)
	}
	return Decode(io.LimitReader(resp.Body, 8<<20))
}

// Fallback tries each directory in order and returns the first success.
type Fallback []Directory

func (f Fallback) ListPosts(ctx context.Context) ([]models.Post, error) {
	var lastErr error = fmt.Errorf("no post source configured")
	for _, d := range f {
		ps, err := d.ListPosts(ctx)
		if err == nil {
			return ps, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
