// Package archive bundles bled images into a single zip file.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/rbxxaxa/chipng/internal/clock"
)

// ErrClosed is returned by Add after the archive has been finalised.
var ErrClosed = errors.New("archive: writer closed")

// Method selects the entry compression.
type Method string

const (
	Deflate Method = "deflate"
	Zstd    Method = "zstd"
	Store   Method = "store"
)

func (m Method) code() (uint16, error) {
	switch m {
	case "", Deflate:
		return zip.Deflate, nil
	case Zstd:
		return zstd.ZipMethodWinZip, nil
	case Store:
		return zip.Store, nil
	}
	return 0, fmt.Errorf("archive: unsupported method %q", m)
}

// Writer accumulates named entries in memory. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	zw     *zip.Writer
	method uint16
	names  *Names
	count  int
	closed bool
}

// NewWriter creates an empty archive
func NewWriter(method Method) (*Writer, error) {
	code, err := method.code()
	if err != nil {
		return nil, err
	}
	w := &Writer{method: code, names: NewNames()}
	w.zw = zip.NewWriter(&w.buf)
	w.zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor(zstd.WithEncoderLevel(zstd.SpeedBetterCompression)))
	return w, nil
}

// Add stores data under name and returns the entry name actually used: a
// repeated name gets a numeric suffix before its extension.
func (w *Writer) Add(name string, data []byte) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return "", ErrClosed
	}
	name = w.names.Unique(strings.TrimLeft(name, "/"))
	entry, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   w.method,
		Modified: clock.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	if _, err = entry.Write(data); err != nil {
		return "", fmt.Errorf("failed to write entry %s: %w", name, err)
	}
	w.count++
	return name, nil
}

// Names hands out unique file names: a repeated name gets a numeric suffix
// before its extension. It is safe for concurrent use.
type Names struct {
	mu   sync.Mutex
	seen map[string]int
}

// NewNames creates an empty name set
func NewNames() *Names {
	return &Names{seen: map[string]int{}}
}

// Unique reserves name, or the first free suffixed variant, and returns it.
func (n *Names) Unique(name string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	seen := n.seen[name]
	n.seen[name] = seen + 1
	if seen == 0 {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for {
		candidate := fmt.Sprintf("%s-%d%s", stem, seen, ext)
		if n.seen[candidate] == 0 {
			n.seen[candidate] = 1
			return candidate
		}
		seen++
	}
}

// Len returns the number of entries added
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close finalises the archive; further Add calls fail.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.zw.Close()
}

// Bytes closes the archive and returns its encoded content
func (w *Writer) Bytes() ([]byte, error) {
	if err := w.Close(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Bytes(), nil
}

// Entries decodes an archive into entry name → content.
func Entries(data []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	ret := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open entry %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read entry %s: %w", f.Name, err)
		}
		ret[f.Name] = content
	}
	return ret, nil
}
