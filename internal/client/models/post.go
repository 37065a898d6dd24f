// Package models defines client-side data models used by the viewkeeper CLI.
package models

import (
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/common"
)

// Post is one entry of the post directory. Views is the count the directory
// itself carries; it only seeds the display when the counter is unreachable.
type Post struct {
	ID          string
	Title       string
	PublishedAt time.Time
	Views       int64
}

// Selector addresses the post's counter by id, or by title in table when
// table is non-empty.
func (p Post) Selector(table string) common.Selector {
	if table != "" {
		return common.ByTitle(table, p.Title)
	}
	return common.ByID(p.ID)
}

// PostView is a post with the count to display for it.
type PostView struct {
	Post     Post
	Views    int64
	Revealed bool
}
