// Command chipng bleeds the colour of opaque pixels into the transparent
// areas of image files.
//
//	chipng [flags] SOURCE...
//
// Sources are files or directories (any viant/afs URL). Exit status is 1 when
// any image could not be processed and 2 on usage errors.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/rbxxaxa/chipng"
	"github.com/rbxxaxa/chipng/service/archive"
	"github.com/rbxxaxa/chipng/service/batch"
	"github.com/rbxxaxa/chipng/service/codec"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	config    string
	workers   int
	dest      string
	format    string
	zip       string
	zipMethod string
	suffix    string
	recursive bool
	trace     string
	verbose   bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &options{}
	flags := flag.NewFlagSet("chipng", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.config, "config", "", "YAML config URL")
	flags.IntVar(&opts.workers, "workers", 0, "worker count (default: config, then CPU count)")
	flags.StringVar(&opts.dest, "o", "", "output directory URL")
	flags.StringVar(&opts.format, "format", "", "output format: png, tiff or bmp (default: keep input)")
	flags.StringVar(&opts.zip, "zip", "", "zip archive URL receiving all outputs")
	flags.StringVar(&opts.zipMethod, "zip-method", "", "zip compression: deflate, zstd or store")
	flags.StringVar(&opts.suffix, "suffix", "", "suffix appended to output base names")
	flags.BoolVar(&opts.recursive, "r", false, "descend into sub directories")
	flags.StringVar(&opts.trace, "trace", "", "write OpenTelemetry spans to this file")
	flags.BoolVar(&opts.verbose, "v", false, "verbose logging")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: chipng [flags] SOURCE...")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	chipng.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer chipng.SetLogger(nil)

	srv, request, err := setup(ctx, opts, flags.Args())
	if err != nil {
		fmt.Fprintf(stderr, "chipng: %v\n", err)
		return 2
	}
	if err = srv.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "chipng: %v\n", err)
		return 1
	}
	report, err := srv.Run(ctx, request)
	if sErr := srv.Shutdown(context.Background()); sErr != nil && err == nil {
		err = sErr
	}
	if report != nil {
		for _, item := range report.Items {
			if item.Err != nil {
				fmt.Fprintf(stdout, "FAIL %s: %v\n", item.Source, item.Err)
				continue
			}
			target := item.Dest
			if target == "" {
				target = report.Archive + "#" + item.Entry
			}
			fmt.Fprintf(stdout, "ok   %s -> %s (passes: %d, resolved: %d)\n", item.Source, target, item.Stats.Passes, item.Stats.Resolved)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "chipng: %v\n", err)
		return 1
	}
	if report.Failed() > 0 {
		return 1
	}
	return 0
}

func setup(ctx context.Context, opts *options, sources []string) (*chipng.Service, *batch.Request, error) {
	config := chipng.DefaultConfig()
	if opts.config != "" {
		var err error
		if config, err = chipng.LoadConfig(ctx, opts.config); err != nil {
			return nil, nil, err
		}
	}
	request := &batch.Request{
		Sources:       sources,
		Recursive:     opts.recursive,
		Dest:          opts.dest,
		Suffix:        opts.suffix,
		Archive:       opts.zip,
		ArchiveMethod: archive.Method(opts.zipMethod),
	}
	if opts.format != "" {
		format, err := codec.ParseFormat(opts.format)
		if err != nil {
			return nil, nil, err
		}
		request.Format = format
	}
	srvOptions := []chipng.Option{chipng.WithConfig(config)}
	if opts.workers > 0 {
		srvOptions = append(srvOptions, chipng.WithWorkers(opts.workers))
	}
	if opts.trace != "" {
		srvOptions = append(srvOptions, chipng.WithTracing("chipng", chipng.Version, opts.trace))
	}
	srv, err := chipng.New(srvOptions...)
	if err != nil {
		return nil, nil, err
	}
	return srv, request, nil
}
