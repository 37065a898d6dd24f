package common

import "fmt"

// Selector addresses one document in the remote counter store, either by its
// direct identifier or by an exact title match inside a table.
type Selector struct {
	ID    string
	Table string
	Title string
}

// ByID returns a selector addressing a document by identifier.
func ByID(id string) Selector {
	return Selector{ID: id}
}

// ByTitle returns a selector addressing a document by title inside table.
func ByTitle(table, title string) Selector {
	return Selector{Table: table, Title: title}
}

// IsTitle reports whether s uses the title-lookup form.
func (s Selector) IsTitle() bool {
	return s.ID == "" && s.Title != ""
}

// Validate checks that exactly one addressing form is set.
func (s Selector) Validate() error {
	switch {
	case s.ID != "" && s.Title != "":
		return fmt.Errorf("%w: both id and title set", ErrorInvalidSelector)
	case s.ID == "" && s.Title == "":
		return fmt.Errorf("%w: empty selector", ErrorInvalidSelector)
	}
	return nil
}

func (s Selector) String() string {
	if s.IsTitle() {
		return fmt.Sprintf("%s[title=%q]", s.Table, s.Title)
	}
	return s.ID
}
