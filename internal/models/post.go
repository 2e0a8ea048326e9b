package models

import "time"

// Post is a blog-style entry. Edit and delete are author-only, derived from
// AuthorID.
type Post struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	AuthorID    int64     `json:"author_id"`
	AuthorName  string    `json:"author_name,omitempty"`
	CreatedDate time.Time `json:"created_date"`
}
