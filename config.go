package chipng

import (
	"context"
	"fmt"

	"github.com/rbxxaxa/chipng/internal/env"
	"github.com/rbxxaxa/chipng/service/archive"
	"github.com/rbxxaxa/chipng/service/codec"
	"github.com/rbxxaxa/chipng/service/scheduler"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the service configuration. It
// can be populated from JSON or YAML; fields left out keep their defaults.
type Config struct {
	Scheduler scheduler.Config `json:"scheduler" yaml:"scheduler"`
	Output    OutputConfig     `json:"output" yaml:"output"`
	Tracing   TracingConfig    `json:"tracing" yaml:"tracing"`
}

// OutputConfig controls how batch results are written.
type OutputConfig struct {
	// Format of written images; empty keeps the input format where possible.
	Format codec.Format `json:"format,omitempty" yaml:"format,omitempty"`
	// Suffix is appended to output base names.
	Suffix string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	// Archive is a zip URL bundling every output.
	Archive string `json:"archive,omitempty" yaml:"archive,omitempty"`
	// ArchiveMethod is deflate, zstd or store.
	ArchiveMethod archive.Method `json:"archiveMethod,omitempty" yaml:"archiveMethod,omitempty"`
}

// TracingConfig controls the OpenTelemetry stdout exporter.
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty" yaml:"serviceVersion,omitempty"`
	// OutputFile receives spans; empty means stdout.
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// DefaultConfig returns one worker per CPU, png-preserving output and
// tracing disabled.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: scheduler.DefaultConfig(),
		Output:    OutputConfig{ArchiveMethod: archive.Deflate},
		Tracing: TracingConfig{
			ServiceName:    "chipng",
			ServiceVersion: Version,
		},
	}
}

// Validate returns an error describing the first invalid setting, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Scheduler.WorkerCount < 0 {
		return fmt.Errorf("scheduler.workers must be >= 0")
	}
	if c.Scheduler.MaxWorkers < 0 {
		return fmt.Errorf("scheduler.maxWorkers must be >= 0")
	}
	if f := c.Output.Format; f != "" && !f.CanEncode() {
		return fmt.Errorf("output.format: %w: cannot write %q", codec.ErrEncode, f)
	}
	switch c.Output.ArchiveMethod {
	case "", archive.Deflate, archive.Zstd, archive.Store:
	default:
		return fmt.Errorf("output.archiveMethod: unsupported %q", c.Output.ArchiveMethod)
	}
	return nil
}

// LoadConfig reads a YAML (or JSON) document from any afs URL on top of
// DefaultConfig. ${env.NAME} references are expanded before decoding.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal([]byte(env.Expand(string(data))), ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}
