package batch

import (
	"fmt"

	"github.com/rbxxaxa/chipng/bleed"
	"github.com/rbxxaxa/chipng/service/archive"
	"github.com/rbxxaxa/chipng/service/codec"
)

// Request describes one batch: where images come from and where the bled
// results go.
type Request struct {
	// Sources are file or directory URLs; a relative path means file://.
	Sources []string `json:"sources" yaml:"sources"`
	// Recursive descends into sub directories of directory sources.
	Recursive bool `json:"recursive,omitempty" yaml:"recursive,omitempty"`
	// Dest is the output directory URL.
	Dest string `json:"dest,omitempty" yaml:"dest,omitempty"`
	// Format of the outputs; empty keeps the input format when it can be
	// written and falls back to png otherwise.
	Format codec.Format `json:"format,omitempty" yaml:"format,omitempty"`
	// Suffix is appended to each output base name, e.g. "_bled".
	Suffix string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	// Archive is a zip URL receiving every output.
	Archive string `json:"archive,omitempty" yaml:"archive,omitempty"`
	// ArchiveMethod selects zip entry compression.
	ArchiveMethod archive.Method `json:"archiveMethod,omitempty" yaml:"archiveMethod,omitempty"`
}

// Validate checks the request is actionable
func (r *Request) Validate() error {
	if len(r.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	if r.Dest == "" && r.Archive == "" {
		return fmt.Errorf("dest or archive is required")
	}
	if r.Format != "" && !r.Format.CanEncode() {
		return fmt.Errorf("%w: cannot write %q", codec.ErrEncode, r.Format)
	}
	return nil
}

func (r *Request) outputFormat(input codec.Format) codec.Format {
	if r.Format != "" {
		return r.Format
	}
	if input.CanEncode() {
		return input
	}
	return codec.PNG
}

// Item is the outcome for a single source image.
type Item struct {
	Source string      `json:"source"`
	Dest   string      `json:"dest,omitempty"`
	Entry  string      `json:"entry,omitempty"`
	Stats  bleed.Stats `json:"stats"`
	Err    error       `json:"-"`
}

// Report collects every item of a batch in source order.
type Report struct {
	Items   []*Item `json:"items"`
	Archive string  `json:"archive,omitempty"`
}

// Failed returns the number of items that could not be processed
func (r *Report) Failed() int {
	count := 0
	for _, item := range r.Items {
		if item.Err != nil {
			count++
		}
	}
	return count
}
