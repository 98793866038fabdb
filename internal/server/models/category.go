package models

import "time"

// Category is a browse-page lookup entry. Title is the natural key,
// unique case-insensitively.
type Category struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Tag labels streams for discovery. Name is unique case-insensitively.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Visible   bool      `json:"visible"`
	CreatedAt time.Time `json:"createdAt"`
}
