package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgallion1/autopages/internal/convert"
	"github.com/dgallion1/autopages/internal/loader"
	"github.com/dgallion1/autopages/internal/outname"
	"github.com/dgallion1/autopages/internal/populate"
	"github.com/dgallion1/autopages/internal/record"
)

// ErrConversionFailed is returned by Run when every document was written but
// at least one could not be converted.
var ErrConversionFailed = errors.New("conversion failed")

// Request describes one populate run.
type Request struct {
	DataPath     string
	TemplatePath string
	Outfile      string

	Convert  bool
	Delete   bool
	Single   bool
	NoTitles bool
	// FailFast aborts the run on the first conversion failure.
	FailFast bool

	Loader loader.Options
	// OutputRoot confines every output path when set.
	OutputRoot string
	// Confirm is asked before an existing file is overwritten. Nil overwrites.
	Confirm func(path string) bool
}

// Runner executes populate runs: load, build, name, populate and convert,
// one document at a time.
type Runner struct {
	conv   *convert.Converter
	legacy bool
	now    func() time.Time
	log    *slog.Logger
}

// RunnerOptions configure a Runner.
type RunnerOptions struct {
	// LegacySubstitution enables the "content"/"title" replacement in plain
	// output names.
	LegacySubstitution bool
	Now                func() time.Time
}

// NewRunner returns a runner. conv may be nil when no run converts.
func NewRunner(conv *convert.Converter, opts RunnerOptions, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{conv: conv, legacy: opts.LegacySubstitution, now: opts.Now, log: log}
}

// Run processes req and records progress on job. Data, template, layout and
// overflow errors abort the run. Conversion errors abort only their document
// unless req.FailFast is set.
func (r *Runner) Run(ctx context.Context, req Request, job *Job) error {
	log := r.log.With("job_id", job.ID, "data", req.DataPath)

	job.SetStatus(StatusLoading, "loading")
	rows, err := loader.LoadFile(req.DataPath, req.Loader)
	if err != nil {
		return r.fail(job, log, "loading", err)
	}
	docs, err := record.Build(rows, req.Single)
	if err != nil {
		return r.fail(job, log, "loading", err)
	}
	job.SetDocuments(len(docs))
	log.Info("data loaded", "rows", len(rows), "documents", len(docs))

	base, convertPDF := outname.Resolve(req.Outfile, req.Convert)
	if convertPDF && r.conv == nil {
		return r.fail(job, log, "loading", &convert.EnvironmentError{Op: "setup", Err: errors.New("no converter configured")})
	}
	plan, err := outname.NewPlan(base, req.OutputRoot, r.legacy)
	if err != nil {
		return r.fail(job, log, "naming", err)
	}
	pop := populate.New(populate.Options{NoTitles: req.NoTitles, Now: r.now}, log)

	failed := 0
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return r.fail(job, log, "cancelled", err)
		}
		dlog := log.With("document", i)

		dest, err := plan.PathFor(i, len(docs), doc)
		if err != nil {
			return r.fail(job, log, "naming", err)
		}
		if req.Confirm != nil && exists(dest) && !req.Confirm(dest) {
			dlog.Info("existing output kept", "output", dest)
			job.AddOutput(Output{Document: i, Deck: dest, Skipped: true})
			continue
		}

		job.SetStatus(StatusPopulating, fmt.Sprintf("populating %d/%d", i+1, len(docs)))
		written, err := pop.Populate(ctx, req.TemplatePath, dest, doc)
		if err != nil {
			return r.fail(job, dlog, "populating", fmt.Errorf("document %d: %w", i, err))
		}
		out := Output{Document: i, Deck: written}

		if convertPDF {
			job.SetStatus(StatusConverting, fmt.Sprintf("converting %d/%d", i+1, len(docs)))
			pdf, err := r.conv.ToPDF(ctx, written, "")
			if err != nil {
				dlog.Error("conversion failed", "deck", written, "error", err)
				out.Error = err.Error()
				job.AddError(fmt.Sprintf("document %d: %s", i, err))
				job.AddOutput(out)
				failed++
				if req.FailFast {
					job.SetStatus(StatusFailed, "converting")
					return err
				}
				continue
			}
			out.PDF = pdf
			if req.Delete {
				if err := os.Remove(written); err != nil {
					dlog.Warn("could not delete intermediate deck", "deck", written, "error", err)
				} else {
					out.Deleted = true
				}
			}
		}
		job.AddOutput(out)
	}

	switch {
	case failed == 0:
		job.SetStatus(StatusCompleted, "done")
		return nil
	case failed < len(docs):
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "converting")
	}
	return fmt.Errorf("%w for %d of %d documents", ErrConversionFailed, failed, len(docs))
}

func (r *Runner) fail(job *Job, log *slog.Logger, phase string, err error) error {
	log.Error("run failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
	return err
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
