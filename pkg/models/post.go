package models

// Post is the stored representation of a single board post. Content is
// HTML-escaped before it is written and is immutable afterwards.
type Post struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}
