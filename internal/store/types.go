package store

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a wuphf id is unknown.
	ErrNotFound = errors.New("wuphf not found")
	// ErrValidation is returned for empty or over-long content.
	ErrValidation = errors.New("invalid wuphf content")
)

// Wuphf is a single post. Channels is fixed at creation; Printed exists in
// the model but no operation ever flips it.
type Wuphf struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
	Likes      int       `json:"likes"`
	Rewuphfs   int       `json:"rewuphfs"`
	Channels   []string  `json:"channels"`
	Urgent     bool      `json:"urgent"`
	Printed    bool      `json:"printed"`
	ImageURL   string    `json:"image_url,omitempty"`
	Replies    []Reply   `json:"replies"`
}

// Reply belongs to exactly one wuphf and is deleted with it.
type Reply struct {
	ID         int64     `json:"id"`
	WuphfID    int64     `json:"wuphf_id"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}
