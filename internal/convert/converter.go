// Package convert renders decks to PDF with headless LibreOffice running in
// a container.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	pdflib "github.com/ledongthuc/pdf"
)

const (
	DefaultImage   = "linuxserver/libreoffice:latest"
	DefaultTimeout = 5 * time.Minute

	sourceDir = "/tmp/ppttopdf"
	outputDir = "/tmp/ppttopdf-out"
)

// Options tune the converter. Zero values select the defaults.
type Options struct {
	Image   string
	Timeout time.Duration
	// Attempts is the number of tries per file, including the first.
	Attempts int
	Backoff  func(attempt int) time.Duration
}

// Converter turns decks into PDFs. It is safe for concurrent use; the
// runtime is checked and the image fetched once per converter.
type Converter struct {
	rt   Runtime
	opts Options
	log  *slog.Logger

	stats *Stats

	mu     sync.Mutex
	pinged bool
	images map[string]bool
}

func New(rt Runtime, opts Options, log *slog.Logger) *Converter {
	if opts.Image == "" {
		opts.Image = DefaultImage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = MaxRetries
	}
	if opts.Backoff == nil {
		opts.Backoff = Backoff
	}
	if log == nil {
		log = slog.Default()
	}
	return &Converter{rt: rt, opts: opts, log: log, stats: NewStats(time.Hour), images: make(map[string]bool)}
}

// Stats returns conversion counts and timings of the last hour.
func (c *Converter) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

// Ready checks the runtime and fetches the image when it is missing.
func (c *Converter) Ready(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pinged {
		if err := c.rt.Ping(ctx); err != nil {
			return &EnvironmentError{Op: "ping", Err: err}
		}
		c.pinged = true
	}
	if c.images[c.opts.Image] {
		return nil
	}
	ok, err := c.rt.ImageExists(ctx, c.opts.Image)
	if err != nil {
		return &EnvironmentError{Op: "image check", Err: err}
	}
	if !ok {
		c.log.Info("pulling converter image", "image", c.opts.Image)
		if err := c.rt.PullImage(ctx, c.opts.Image); err != nil {
			return &EnvironmentError{Op: "pull", Err: err}
		}
	}
	c.images[c.opts.Image] = true
	return nil
}

// ToPDF converts src and returns the path of the PDF, written to outDir or,
// when outDir is empty, beside src.
func (c *Converter) ToPDF(ctx context.Context, src, outDir string) (string, error) {
	abs, err := filepath.Abs(src)
	if err != nil {
		return "", &EnvironmentError{Op: "resolve", File: src, Err: err}
	}
	if _, err := os.Stat(abs); err != nil {
		return "", &EnvironmentError{Op: "stat", File: src, Err: err}
	}
	if err := c.Ready(ctx); err != nil {
		return "", err
	}

	srcDir, name := filepath.Split(abs)
	srcDir = filepath.Clean(srcDir)
	if outDir == "" {
		outDir = srcDir
	}
	if outDir, err = filepath.Abs(outDir); err != nil {
		return "", &EnvironmentError{Op: "resolve", File: src, Err: err}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", &EnvironmentError{Op: "output directory", File: src, Err: err}
	}
	dest := filepath.Join(outDir, strings.TrimSuffix(name, filepath.Ext(name))+".pdf")
	if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", &EnvironmentError{Op: "remove stale output", File: src, Err: err}
	}

	spec := RunSpec{
		Image:   c.opts.Image,
		Mounts:  []Mount{{Host: srcDir, Container: sourceDir}},
		WorkDir: sourceDir,
		Cmd:     []string{"libreoffice", "--headless", "--convert-to", "pdf", "--outdir", sourceDir, name},
	}
	if outDir != srcDir {
		spec.Mounts = append(spec.Mounts, Mount{Host: outDir, Container: outputDir})
		spec.Cmd[5] = outputDir
	}

	start := time.Now()
	err = c.convert(ctx, spec, src, dest)
	c.stats.Record(time.Since(start), err == nil)
	if err != nil {
		return "", err
	}
	return dest, nil
}

// convert runs spec until it produces dest or fails for good.
func (c *Converter) convert(ctx context.Context, spec RunSpec, src, dest string) error {
	log := c.log.With("file", src)
	var lastErr error
	for attempt := 0; attempt < c.opts.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.opts.Backoff(attempt - 1)):
			case <-ctx.Done():
				return &EnvironmentError{Op: "convert", File: src, Err: ctx.Err()}
			}
		}
		spec.Name = "autopages-" + uuid.NewString()
		lastErr = c.attempt(ctx, spec, dest)
		if lastErr == nil {
			log.Info("converted to pdf", "pdf", dest, "attempt", attempt+1)
			return nil
		}
		if !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable conversion error", "attempt", attempt, "error", lastErr)
	}
	return &EnvironmentError{Op: "convert", File: src, Err: lastErr}
}

func (c *Converter) attempt(ctx context.Context, spec RunSpec, dest string) error {
	runCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	out, err := c.rt.Run(runCtx, spec)
	if err != nil {
		var runErr *RunError
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case runCtx.Err() != nil:
			return &RetryableError{Err: fmt.Errorf("timed out after %s", c.opts.Timeout)}
		case errors.As(err, &runErr) && runErr.ExitCode != 126 && runErr.ExitCode != 127:
			return &RetryableError{Err: err}
		}
		return err
	}

	pages, err := verifyPDF(dest)
	if err != nil {
		return &RetryableError{Err: fmt.Errorf("%w (output: %s)", err, truncate(strings.TrimSpace(string(out)), 200))}
	}
	c.log.Debug("pdf verified", "pdf", dest, "pages", pages)
	return nil
}

// verifyPDF opens the rendered file and returns its page count.
func verifyPDF(path string) (int, error) {
	f, r, err := pdflib.Open(path)
	if err != nil {
		return 0, fmt.Errorf("no readable pdf produced: %w", err)
	}
	defer f.Close()
	n := r.NumPage()
	if n == 0 {
		return 0, fmt.Errorf("pdf %s has no pages", filepath.Base(path))
	}
	return n, nil
}
