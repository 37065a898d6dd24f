package submission

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderParse_RoundTrip(t *testing.T) {
	counts := map[string]int64{"post-a": 3, "post-b": 1, "Ünïcode title": 12}
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	s := New(counts, now)
	_, err := uuid.Parse(s.ID)
	require.NoError(t, err)

	text, err := Render(s, "https://example.org/issues/new")
	require.NoError(t, err)
	assert.Contains(t, string(text), "https://example.org/issues/new")
	assert.Contains(t, string(text), "View count merge "+s.ID)

	got, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, counts, got.Counts)
	assert.Equal(t, s.ID, got.ID)
	assert.True(t, now.Equal(got.CreatedAt))
	assert.Equal(t, KeyByID, got.KeyedBy)
}

func TestRenderParse_KeyedByTitle(t *testing.T) {
	s := New(map[string]int64{"Hello": 2}, time.Now())
	s.KeyedBy = KeyByTitle

	text, err := Render(s, "")
	require.NoError(t, err)
	assert.Contains(t, string(text), "Keyed by: title\n")

	got, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, KeyByTitle, got.KeyedBy)
	assert.Equal(t, map[string]int64{"Hello": 2}, got.Counts)
}

func TestNew_CopiesCounts(t *testing.T) {
	counts := map[string]int64{"a": 1}
	s := New(counts, time.Now())
	counts["a"] = 100
	assert.EqualValues(t, 1, s.Counts["a"])
}

func TestSubmission_TotalAndPostIDs(t *testing.T) {
	s := &Submission{Counts: map[string]int64{"b": 2, "a": 5}}
	assert.EqualValues(t, 7, s.Total())
	assert.Equal(t, []string{"a", "b"}, s.PostIDs())
}

func TestParse_SurvivesCRLFAndEditedInstructions(t *testing.T) {
	text := "please merge, thanks!\r\n" +
		"Submission: abc\r\n" +
		"```json\r\n" +
		"{\"p1\": 4}\r\n" +
		"```\r\n" +
		"sent from my phone\r\n"

	got, err := Parse([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"p1": 4}, got.Counts)
	assert.Equal(t, "abc", got.ID)
	assert.True(t, got.CreatedAt.IsZero())
	assert.Equal(t, KeyByID, got.KeyedBy, "no header means post ids")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{name: "no block", text: "hello", want: ErrNoPayload},
		{name: "unterminated block", text: "```json\n{\"a\":1}\n", want: ErrNoPayload},
		{name: "not json", text: "```json\nnope\n```\n", want: ErrInvalidPayload},
		{name: "negative", text: "```json\n{\"a\":-1}\n```\n", want: ErrInvalidPayload},
		{name: "fractional", text: "```json\n{\"a\":1.5}\n```\n", want: ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.text))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestRender_EmptyIssueURL(t *testing.T) {
	text, err := Render(New(map[string]int64{"x": 1}, time.Now()), "")
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(text), " at "), "no tracker url expected")
}
