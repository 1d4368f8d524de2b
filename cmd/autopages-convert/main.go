// Command autopages-convert converts every .pptx file in a directory to PDF.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/autopages/internal/cli"
	"github.com/dgallion1/autopages/internal/config"
	"github.com/dgallion1/autopages/internal/convert"
	"github.com/dgallion1/autopages/internal/pipeline"
)

type options struct {
	dir     string
	output  string
	workers int
	delete  bool
	verbose bool
}

func parseArgs(args []string, cfg config.Config, stderr io.Writer) (options, error) {
	opts := options{workers: cfg.WorkerCount}

	fs := flag.NewFlagSet("autopages-convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: autopages-convert [flags] directory")
		fs.PrintDefaults()
	}
	cli.StringFlag(fs, &opts.output, "directory for the pdf files (default: the input directory)", "o", "output")
	cli.IntFlag(fs, &opts.workers, "parallel conversions", "w", "workers")
	cli.BoolFlag(fs, &opts.delete, "delete each deck after it converted", "rm", "delete")
	cli.BoolFlag(fs, &opts.verbose, "log debug output", "v", "verbose")

	pos, err := cli.Parse(fs, args)
	if err != nil {
		return opts, err
	}
	if len(pos) != 1 {
		fs.Usage()
		return opts, fmt.Errorf("expected one directory, got %d argument(s)", len(pos))
	}
	if opts.workers <= 0 {
		return opts, fmt.Errorf("--workers must be positive, got %d", opts.workers)
	}
	opts.dir = pos[0]
	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()
	opts, err := parseArgs(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	log := cli.Logger(stderr, opts.verbose)

	rt, err := convert.NewDockerCLI(cfg.DockerCommand, log)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return 1
	}
	conv := convert.New(rt, convert.Options{
		Image:    cfg.ConverterImage,
		Timeout:  cfg.ConvertTimeout,
		Attempts: cfg.ConvertAttempts,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Check docker before any worker starts.
	if err := conv.Ready(ctx); err != nil {
		log.Error("converter unavailable", "error", err)
		return 1
	}
	if opts.output != "" {
		if err := os.MkdirAll(opts.output, 0o755); err != nil {
			log.Error("output directory", "dir", opts.output, "error", err)
			return 1
		}
	}

	snaps, err := pipeline.ConvertDir(ctx, conv, opts.dir, pipeline.BatchOptions{
		OutDir:  opts.output,
		Workers: opts.workers,
		Delete:  opts.delete,
	}, log)
	if len(snaps) > 0 {
		fmt.Fprint(stdout, cli.RenderBatch(snaps))
	}
	if err != nil {
		log.Error("batch conversion", "dir", opts.dir, "error", err)
		return 1
	}
	for _, s := range snaps {
		if s.Status != pipeline.StatusCompleted {
			return 1
		}
	}
	return 0
}
