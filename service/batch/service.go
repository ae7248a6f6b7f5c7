// Package batch runs the bleed pipeline over sets of image files: list,
// download, decode, submit, then encode and write each result.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/rbxxaxa/chipng/bleed"
	"github.com/rbxxaxa/chipng/internal/logging"
	"github.com/rbxxaxa/chipng/model/job"
	"github.com/rbxxaxa/chipng/service/archive"
	"github.com/rbxxaxa/chipng/service/codec"
	"github.com/rbxxaxa/chipng/service/storage"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Submitter queues an image for bleeding
type Submitter interface {
	SubmitNamed(ctx context.Context, name string, image *bleed.Buffer, callback job.Callback) (*job.Handle, error)
}

// Service runs batches against a storage and a submitter
type Service struct {
	storage   *storage.Service
	submitter Submitter
}

// New creates a batch runner
func New(storage *storage.Service, submitter Submitter) *Service {
	return &Service{storage: storage, submitter: submitter}
}

type task struct {
	item   *Item
	rel    string
	name   string
	format codec.Format
}

// run holds the state shared by the items of one Run call
type run struct {
	request *Request
	bundle  *archive.Writer
	names   *archive.Names
	pending sync.WaitGroup
}

// Run processes every source image. Per image failures are recorded on the
// item and never stop the rest; the returned error covers the request and
// the archive only. Output names are unique within a run: a name already
// taken gets a numeric suffix, as archive entries do.
func (s *Service) Run(ctx context.Context, request *Request) (*Report, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	aRun := &run{request: request, names: archive.NewNames()}
	if request.Archive != "" {
		var err error
		if aRun.bundle, err = archive.NewWriter(request.ArchiveMethod); err != nil {
			return nil, err
		}
	}

	report := &Report{}
	for _, source := range request.Sources {
		sourceURL := url.Normalize(source, file.Scheme)
		assets, err := s.storage.List(ctx, sourceURL, request.Recursive)
		if err != nil {
			report.Items = append(report.Items, &Item{Source: source, Err: err})
			continue
		}
		for _, asset := range assets {
			t := &task{item: &Item{Source: asset.URL}, rel: relative(sourceURL, asset.URL)}
			report.Items = append(report.Items, t.item)
			if err := s.submit(ctx, aRun, t); err != nil {
				t.item.Err = err
				logging.Logger().Warn("image could not be processed", "source", asset.URL, "error", err)
			}
		}
	}
	aRun.pending.Wait()

	if aRun.bundle != nil {
		data, err := aRun.bundle.Bytes()
		if err != nil {
			return report, fmt.Errorf("failed to finalise archive: %w", err)
		}
		if err = s.storage.Upload(ctx, url.Normalize(request.Archive, file.Scheme), data); err != nil {
			return report, err
		}
		report.Archive = request.Archive
	}
	return report, nil
}

func (s *Service) submit(ctx context.Context, aRun *run, t *task) error {
	data, err := s.storage.Download(ctx, t.item.Source)
	if err != nil {
		return err
	}
	buf, format, err := codec.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	t.format = aRun.request.outputFormat(format)
	t.name = aRun.names.Unique(outputName(t.rel, aRun.request.Suffix, t.format))
	aRun.pending.Add(1)
	_, err = s.submitter.SubmitNamed(ctx, t.item.Source, buf, func(result *job.Result) {
		defer aRun.pending.Done()
		if err := s.complete(ctx, aRun, t, result); err != nil {
			t.item.Err = err
			logging.Logger().Warn("image could not be processed", "source", t.item.Source, "error", err)
		}
	})
	if err != nil {
		aRun.pending.Done()
	}
	return err
}

// complete runs on the worker that bled the image
func (s *Service) complete(ctx context.Context, aRun *run, t *task, result *job.Result) error {
	if result.Err != nil {
		return result.Err
	}
	t.item.Stats = result.Stats
	var encoded bytes.Buffer
	if err := codec.Encode(&encoded, result.Output, t.format); err != nil {
		return err
	}
	if dest := aRun.request.Dest; dest != "" {
		destURL := url.Join(url.Normalize(dest, file.Scheme), t.name)
		if err := s.storage.Upload(ctx, destURL, encoded.Bytes()); err != nil {
			return err
		}
		t.item.Dest = destURL
	}
	if aRun.bundle != nil {
		entry, err := aRun.bundle.Add(t.name, encoded.Bytes())
		if err != nil {
			return err
		}
		t.item.Entry = entry
	}
	return nil
}

// relative returns the asset path below the listed source, or its base name
// when the source was the file itself.
func relative(sourceURL, assetURL string) string {
	root := strings.TrimRight(url.Path(sourceURL), "/") + "/"
	if p := url.Path(assetURL); strings.HasPrefix(p, root) {
		return p[len(root):]
	}
	return path.Base(url.Path(assetURL))
}

func outputName(rel, suffix string, format codec.Format) string {
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	return stem + suffix + format.Extension()
}
