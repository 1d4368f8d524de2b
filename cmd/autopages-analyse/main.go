// Command autopages-analyse reports the layouts and placeholders of a
// template and can write a marked-up copy of it.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dgallion1/autopages/internal/analyse"
	"github.com/dgallion1/autopages/internal/cli"
	"github.com/dgallion1/autopages/internal/deck"
)

type options struct {
	template string
	markup   bool
	json     bool
	verbose  bool
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("autopages-analyse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: autopages-analyse [flags] template")
		fs.PrintDefaults()
	}
	cli.BoolFlag(fs, &opts.markup, "write <template>-markup.pptx with one labelled slide per layout", "m", "markup")
	cli.BoolFlag(fs, &opts.json, "print the report as json", "json")
	cli.BoolFlag(fs, &opts.verbose, "log debug output", "v", "verbose")

	pos, err := cli.Parse(fs, args)
	if err != nil {
		return opts, err
	}
	if len(pos) != 1 {
		fs.Usage()
		return opts, fmt.Errorf("expected one template, got %d argument(s)", len(pos))
	}
	opts.template = pos[0]
	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	log := cli.Logger(stderr, opts.verbose)

	d, err := deck.Open(opts.template)
	if err != nil {
		log.Error("cannot read template", "template", opts.template, "error", err)
		return 1
	}
	layouts := analyse.Inspect(d)
	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(layouts); err != nil {
			log.Error("encode report", "error", err)
			return 1
		}
	} else {
		fmt.Fprint(stdout, cli.RenderLayouts(opts.template, layouts))
	}

	if opts.markup {
		dest, err := analyse.Markup(opts.template, log)
		if err != nil {
			log.Error("markup failed", "template", opts.template, "error", err)
			return 1
		}
		log.Info("markup written", "output", dest)
	}
	return 0
}
