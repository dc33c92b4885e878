// Package models defines the domain types for mindra.
package models

import "time"

// Note is a single user note. Links is derived from Content and never
// edited directly.
type Note struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Content    string    `json:"content"`
	Links      []string  `json:"links"`
	CreatedAt  time.Time `json:"created_at"`
	SourcePath string    `json:"source_path,omitempty"`
}

// Preview returns the first maxLen runes of the content, suffixed with
// "..." when truncated.
func (n Note) Preview(maxLen int) string {
	r := []rune(n.Content)
	if len(r) <= maxLen {
		return n.Content
	}
	return string(r[:maxLen]) + "..."
}

// Link is a directed edge between two notes, or a dangling reference when
// Target is zero.
type Link struct {
	Label    string `json:"label"`
	Source   int64  `json:"source"`
	Target   int64  `json:"target,omitempty"`
	Dangling bool   `json:"dangling,omitempty"`
}
