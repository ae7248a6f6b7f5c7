package storage

import (
	"github.com/rbxxaxa/chipng/service/codec"
)

// ContentType returns the image MIME type for a file name, or
// application/octet-stream when the extension is not a readable image.
func ContentType(name string) string {
	format, err := codec.FormatOf(name)
	if err != nil {
		return "application/octet-stream"
	}
	return format.ContentType()
}
