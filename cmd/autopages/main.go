// Command autopages fills a PowerPoint template from a data file, one deck
// per record, and optionally converts the decks to PDF.
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
	"github.com/dgallion1/autopages/internal/loader"
	"github.com/dgallion1/autopages/internal/pipeline"
)

type options struct {
	data, template, outfile string

	convert     bool
	delete      bool
	single      bool
	noTitles    bool
	failFast    bool
	interactive bool
	stripHTML   bool
	verbose     bool
	delimiter   string
}

func parseArgs(args []string, cfg config.Config, stderr io.Writer) (options, error) {
	opts := options{delimiter: cfg.CSVDelimiter, stripHTML: cfg.StripMarkup}

	fs := flag.NewFlagSet("autopages", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: autopages [flags] data template outfile")
		fs.PrintDefaults()
	}
	cli.BoolFlag(fs, &opts.convert, "convert the decks to pdf, implied when outfile ends in .pdf", "c", "convert")
	cli.BoolFlag(fs, &opts.delete, "delete each deck after it converted", "rm", "delete")
	cli.BoolFlag(fs, &opts.single, "put every record into one deck, one page per title", "s", "single")
	cli.BoolFlag(fs, &opts.noTitles, "leave title placeholders empty", "no-titles")
	cli.BoolFlag(fs, &opts.failFast, "stop at the first failed conversion", "fail-fast")
	cli.BoolFlag(fs, &opts.interactive, "ask before overwriting existing files", "i", "interactive")
	cli.BoolFlag(fs, &opts.stripHTML, "strip html markup from data values", "strip-html")
	cli.BoolFlag(fs, &opts.verbose, "log debug output", "v", "verbose")
	cli.StringFlag(fs, &opts.delimiter, "csv field delimiter", "delimiter")

	pos, err := cli.Parse(fs, args)
	if err != nil {
		return opts, err
	}
	if len(pos) != 3 {
		fs.Usage()
		return opts, fmt.Errorf("expected data, template and outfile, got %d argument(s)", len(pos))
	}
	opts.data, opts.template, opts.outfile = pos[0], pos[1], pos[2]
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
	delim, err := config.ParseDelimiter(opts.delimiter)
	if err != nil {
		fmt.Fprintln(stderr, "--delimiter:", err)
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
	runner := pipeline.NewRunner(conv, pipeline.RunnerOptions{
		LegacySubstitution: cfg.LegacyPathSubstitution,
	}, log)

	req := pipeline.Request{
		DataPath:     opts.data,
		TemplatePath: opts.template,
		Outfile:      opts.outfile,
		Convert:      opts.convert,
		Delete:       opts.delete,
		Single:       opts.single,
		NoTitles:     opts.noTitles,
		FailFast:     opts.failFast,
		Loader:       loader.Options{Delimiter: delim, StripMarkup: opts.stripHTML},
	}
	if opts.interactive {
		if cli.Interactive() {
			req.Confirm = cli.ConfirmOverwrite
		} else {
			log.Warn("not a terminal, existing files will be overwritten")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job := pipeline.NewJob(req)
	err = runner.Run(ctx, req, job)
	fmt.Fprint(stdout, cli.RenderOutputs(job.Outputs()))
	if err != nil {
		return 1
	}
	return 0
}
