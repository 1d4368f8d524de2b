// Package cli holds what the autopages commands share: argument parsing,
// logging, overwrite prompts and terminal reports.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
)

// Parse parses args with fs and returns the positional arguments. Unlike
// fs.Parse, flags may follow positionals. "--" ends flag parsing.
func Parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return pos, nil
		}
		// fs.Parse consumed "--" when the remaining list starts after it.
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(pos, rest...), nil
		}
		pos = append(pos, rest[0])
		args = rest[1:]
	}
}

// BoolFlag registers every name in names as an alias of the same flag.
func BoolFlag(fs *flag.FlagSet, p *bool, usage string, names ...string) {
	for _, n := range names {
		fs.BoolVar(p, n, *p, usage)
	}
}

// StringFlag registers every name in names as an alias of the same flag.
func StringFlag(fs *flag.FlagSet, p *string, usage string, names ...string) {
	for _, n := range names {
		fs.StringVar(p, n, *p, usage)
	}
}

// IntFlag registers every name in names as an alias of the same flag.
func IntFlag(fs *flag.FlagSet, p *int, usage string, names ...string) {
	for _, n := range names {
		fs.IntVar(p, n, *p, usage)
	}
}

// Logger returns the text logger the commands write to stderr.
func Logger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Interactive reports whether both stdin and stdout are terminals.
func Interactive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ConfirmOverwrite asks whether path may be replaced. Prompt errors, such
// as an interrupt, keep the file.
func ConfirmOverwrite(path string) bool {
	var ok bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("%s exists. Overwrite?", path),
		Default: false,
	}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false
	}
	return ok
}
