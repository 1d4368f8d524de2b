// Package converttest provides an in-process container runtime for tests.
package converttest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dgallion1/autopages/internal/convert"
)

// Runtime fakes a container engine. Run writes a one-page PDF where the
// LibreOffice command would have written it.
type Runtime struct {
	PingErr error
	Images  map[string]bool
	// Fail, when set, is consulted before each run; a non-nil error is
	// returned instead of producing output.
	Fail func(n int, spec convert.RunSpec) error
	// SkipOutput makes successful runs produce nothing.
	SkipOutput bool

	mu    sync.Mutex
	pings int
	pulls []string
	runs  []convert.RunSpec
}

func (r *Runtime) Ping(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pings++
	return r.PingErr
}

func (r *Runtime) ImageExists(_ context.Context, image string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Images[image], nil
}

func (r *Runtime) PullImage(_ context.Context, image string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pulls = append(r.pulls, image)
	if r.Images == nil {
		r.Images = make(map[string]bool)
	}
	r.Images[image] = true
	return nil
}

func (r *Runtime) Run(ctx context.Context, spec convert.RunSpec) ([]byte, error) {
	r.mu.Lock()
	n := len(r.runs)
	r.runs = append(r.runs, spec)
	fail := r.Fail
	r.mu.Unlock()

	if fail != nil {
		if err := fail(n, spec); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.SkipOutput {
		return []byte("no output"), nil
	}

	dest, err := outputPath(spec)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(dest, MinimalPDF(), 0o644); err != nil {
		return nil, err
	}
	return []byte("convert " + path.Base(dest)), nil
}

// Pings returns how often Ping was called.
func (r *Runtime) Pings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pings
}

// Pulls returns the images pulled so far.
func (r *Runtime) Pulls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.pulls...)
}

// Runs returns the container runs so far.
func (r *Runtime) Runs() []convert.RunSpec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]convert.RunSpec(nil), r.runs...)
}

// outputPath maps the --outdir and input arguments back to the host.
func outputPath(spec convert.RunSpec) (string, error) {
	var outDir, input string
	for i := 0; i < len(spec.Cmd); i++ {
		if spec.Cmd[i] == "--outdir" && i+1 < len(spec.Cmd) {
			outDir = spec.Cmd[i+1]
			i++
			continue
		}
		input = spec.Cmd[i]
	}
	for _, m := range spec.Mounts {
		if m.Container == outDir {
			base := strings.TrimSuffix(input, path.Ext(input)) + ".pdf"
			return filepath.Join(m.Host, base), nil
		}
	}
	return "", fmt.Errorf("no mount for output directory %q", outDir)
}

// MinimalPDF returns a valid single page PDF document.
func MinimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}
