package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/dgallion1/autopages/internal/convert"
	"github.com/dgallion1/autopages/internal/outname"
)

// BatchOptions configure ConvertDir.
type BatchOptions struct {
	// OutDir receives the PDFs; empty writes them beside the decks.
	OutDir string
	// Workers defaults to the number of CPUs.
	Workers int
	// Delete removes each deck after it converted.
	Delete bool
}

// ConvertDir converts every deck directly under dir with a fixed pool of
// workers. Files are independent: one failure does not stop the others.
// Snapshots are returned in file name order.
func ConvertDir(ctx context.Context, conv *convert.Converter, dir string, opts BatchOptions, log *slog.Logger) ([]JobSnapshot, error) {
	files, err := listDecks(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Warn("no decks found", "dir", dir)
		return nil, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(files))

	jobs := make([]*Job, len(files))
	for i, f := range files {
		jobs[i] = NewJob(Request{TemplatePath: f})
		jobs[i].SetDocuments(1)
	}
	log.Info("converting directory", "dir", dir, "files", len(files), "workers", workers)

	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				convertOne(ctx, conv, files[i], opts, jobs[i], log)
			}
		}()
	}
feed:
	for i := range files {
		select {
		case queue <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	snaps := make([]JobSnapshot, len(jobs))
	for i, j := range jobs {
		if j.Snapshot().Status == StatusQueued {
			j.AddError(ctx.Err().Error())
			j.SetStatus(StatusFailed, "cancelled")
		}
		snaps[i] = j.Snapshot()
	}
	return snaps, ctx.Err()
}

func convertOne(ctx context.Context, conv *convert.Converter, file string, opts BatchOptions, job *Job, log *slog.Logger) {
	log = log.With("job_id", job.ID, "file", file)
	job.SetStatus(StatusConverting, "converting")

	pdf, err := conv.ToPDF(ctx, file, opts.OutDir)
	if err != nil {
		log.Error("conversion failed", "error", err)
		job.AddError(err.Error())
		job.AddOutput(Output{Deck: file, Error: err.Error()})
		job.SetStatus(StatusFailed, "converting")
		return
	}
	out := Output{Deck: file, PDF: pdf}
	if opts.Delete {
		if err := os.Remove(file); err != nil {
			log.Warn("could not delete deck", "error", err)
		} else {
			out.Deleted = true
		}
	}
	job.AddOutput(out)
	job.SetStatus(StatusCompleted, "done")
}

// listDecks returns the .pptx files directly under dir, skipping Office lock
// files.
func listDecks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~$") || !strings.EqualFold(filepath.Ext(name), outname.ExtPPTX) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}
