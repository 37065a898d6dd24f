package services

import (
	"sync"

	"github.com/dmitrijs2005/viewkeeper/internal/client/models"
)

// Session is the per-process view state: which posts are shown, which have
// already counted a view, and the highest count displayed for each post.
// It is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	posts     map[string]models.Post
	order     []string
	shown     map[string]bool
	fired     map[string]bool
	highWater map[string]int64
}

func NewSession() *Session {
	return &Session{
		posts:     map[string]models.Post{},
		shown:     map[string]bool{},
		fired:     map[string]bool{},
		highWater: map[string]int64{},
	}
}

// remember replaces the known post list, keeping view state.
func (s *Session) remember(ps []models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order[:0]
	for _, p := range ps {
		s.posts[p.ID] = p
		s.order = append(s.order, p.ID)
	}
}

func (s *Session) post(id string) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.posts[id]; ok {
		return p
	}
	return models.Post{ID: id}
}

// observe records a computed count and returns what to display: never less
// than anything shown before in this session.
func (s *Session) observe(id string, n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 0 {
		n = 0
	}
	if hw := s.highWater[id]; hw > n {
		return hw
	}
	s.highWater[id] = n
	return n
}

// Displayed is the last count shown for id.
func (s *Session) Displayed(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highWater[id]
}

// reveal marks id shown and reports whether this reveal should count a
// view: only the first hidden -> shown transition of the session does.
func (s *Session) reveal(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shown[id] {
		return false
	}
	s.shown[id] = true
	if s.fired[id] {
		return false
	}
	s.fired[id] = true
	return true
}

// Collapse hides id. It reports whether the post was shown.
func (s *Session) Collapse(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	was := s.shown[id]
	delete(s.shown, id)
	return was
}

func (s *Session) IsRevealed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown[id]
}

// Snapshot returns the remembered posts in directory order with their
// displayed counts.
func (s *Session) Snapshot() []models.PostView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.PostView, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, models.PostView{Post: s.posts[id], Views: s.highWater[id], Revealed: s.shown[id]})
	}
	return out
}
