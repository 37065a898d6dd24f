// Package models defines server-side persistence models.
package models

import "time"

// Document is one row of the document store backing the Counter API.
// Views is nil when the counter property has never been set.
type Document struct {
	ID        string    `db:"id"`
	Table     string    `db:"table_name"`
	Title     string    `db:"title"`
	Views     *int64    `db:"views"`
	CreatedAt time.Time `db:"created_at"`
}

// ViewCount returns the counter value, treating an unset counter as 0.
func (d *Document) ViewCount() int64 {
	if d == nil || d.Views == nil {
		return 0
	}
	return *d.Views
}
