// Package storage reads source images from and writes results to any
// viant/afs location (file://, mem:// and so on).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/rbxxaxa/chipng/service/codec"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

// Service provides image asset operations on top of viant/afs
type Service struct {
	fs afs.Service
}

// New creates a storage service; a nil fs means afs.New().
func New(fs afs.Service) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{fs: fs}
}

// FS returns the underlying file system
func (s *Service) FS() afs.Service {
	return s.fs
}

// List returns the image assets at URL. A file URL yields that file alone; a
// directory yields the images it holds, descending into sub directories when
// recursive is set. Assets are sorted by URL.
func (s *Service) List(ctx context.Context, URL string, recursive bool) ([]*Asset, error) {
	if URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	object, err := s.fs.Object(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to locate %s: %w", URL, err)
	}
	if !object.IsDir() {
		if !codec.IsImage(URL) {
			return nil, fmt.Errorf("%w: %s", codec.ErrUnknownFormat, URL)
		}
		return []*Asset{newAsset(object)}, nil
	}
	var assets []*Asset
	if err = s.walk(ctx, URL, recursive, &assets); err != nil {
		return nil, err
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].URL < assets[j].URL })
	return assets, nil
}

func (s *Service) walk(ctx context.Context, dirURL string, recursive bool, assets *[]*Asset) error {
	objects, err := s.fs.List(ctx, dirURL)
	if err != nil {
		return fmt.Errorf("failed to list objects at %s: %w", dirURL, err)
	}
	base := strings.TrimRight(url.Path(dirURL), "/")
	for _, obj := range objects {
		if obj.IsDir() {
			if strings.TrimRight(url.Path(obj.URL()), "/") == base || !recursive {
				continue
			}
			if err = s.walk(ctx, obj.URL(), recursive, assets); err != nil {
				return err
			}
			continue
		}
		if codec.IsImage(obj.Name()) {
			*assets = append(*assets, newAsset(obj))
		}
	}
	return nil
}

func newAsset(obj storage.Object) *Asset {
	return &Asset{
		URL:         obj.URL(),
		Name:        path.Base(obj.URL()),
		Size:        obj.Size(),
		ModTime:     obj.ModTime(),
		ContentType: ContentType(obj.URL()),
	}
}

// Download returns the content of URL
func (s *Service) Download(ctx context.Context, URL string) ([]byte, error) {
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", URL, err)
	}
	return data, nil
}

// Upload writes data to URL, creating parent locations as needed
func (s *Service) Upload(ctx context.Context, URL string, data []byte) error {
	if URL == "" {
		return fmt.Errorf("asset URL cannot be empty")
	}
	if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload %s: %w", URL, err)
	}
	return nil
}

// Exists reports whether URL exists
func (s *Service) Exists(ctx context.Context, URL string) (bool, error) {
	return s.fs.Exists(ctx, URL)
}
