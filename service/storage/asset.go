package storage

import "time"

// Asset represents an image file in storage
type Asset struct {
	URL         string    `json:"url"`
	Name        string    `json:"name"`
	Size        int64     `json:"size,omitempty"`
	ModTime     time.Time `json:"modTime,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
}
