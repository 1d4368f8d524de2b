package convert_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/autopages/internal/convert"
	"github.com/dgallion1/autopages/internal/convert/converttest"
)

func noBackoff(int) time.Duration { return 0 }

func writeDeck(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("pptx"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestToPDF_BesideSource(t *testing.T) {
	dir := t.TempDir()
	src := writeDeck(t, dir, "report.pptx")
	rt := &converttest.Runtime{}
	c := convert.New(rt, convert.Options{Backoff: noBackoff}, nil)

	got, err := c.ToPDF(context.Background(), src, "")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if want := filepath.Join(dir, "report.pdf"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	runs := rt.Runs()
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	wantCmd := []string{"libreoffice", "--headless", "--convert-to", "pdf", "--outdir", "/tmp/ppttopdf", "report.pptx"}
	if diff := cmp.Diff(wantCmd, runs[0].Cmd); diff != "" {
		t.Errorf("command mismatch (-want +got):\n%s", diff)
	}
	if runs[0].Image != convert.DefaultImage {
		t.Errorf("expected image %q, got %q", convert.DefaultImage, runs[0].Image)
	}
	if !strings.HasPrefix(runs[0].Name, "autopages-") {
		t.Errorf("expected named container, got %q", runs[0].Name)
	}
}

func TestToPDF_SeparateOutputDirectory(t *testing.T) {
	src := writeDeck(t, t.TempDir(), "deck.pptx")
	out := filepath.Join(t.TempDir(), "pdfs")
	rt := &converttest.Runtime{}
	c := convert.New(rt, convert.Options{Backoff: noBackoff}, nil)

	got, err := c.ToPDF(context.Background(), src, out)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if want := filepath.Join(out, "deck.pdf"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if n := len(rt.Runs()[0].Mounts); n != 2 {
		t.Errorf("expected 2 mounts, got %d", n)
	}
}

func TestToPDF_PingsAndPullsOnce(t *testing.T) {
	dir := t.TempDir()
	rt := &converttest.Runtime{}
	c := convert.New(rt, convert.Options{Backoff: noBackoff}, nil)

	for _, name := range []string{"a.pptx", "b.pptx", "c.pptx"} {
		if _, err := c.ToPDF(context.Background(), writeDeck(t, dir, name), ""); err != nil {
			t.Fatalf("convert %s: %v", name, err)
		}
	}
	if rt.Pings() != 1 {
		t.Errorf("expected 1 ping, got %d", rt.Pings())
	}
	if diff := cmp.Diff([]string{convert.DefaultImage}, rt.Pulls()); diff != "" {
		t.Errorf("pulls mismatch (-want +got):\n%s", diff)
	}
}

func TestToPDF_ExistingImageNotPulled(t *testing.T) {
	rt := &converttest.Runtime{Images: map[string]bool{"office:1": true}}
	c := convert.New(rt, convert.Options{Image: "office:1", Backoff: noBackoff}, nil)
	if _, err := c.ToPDF(context.Background(), writeDeck(t, t.TempDir(), "a.pptx"), ""); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(rt.Pulls()) != 0 {
		t.Errorf("expected no pulls, got %v", rt.Pulls())
	}
}

func TestToPDF_RetriesTransientFailure(t *testing.T) {
	rt := &converttest.Runtime{Fail: func(n int, _ convert.RunSpec) error {
		if n == 0 {
			return &convert.RunError{ExitCode: 1, Output: "javaldx: Could not find a Java Runtime"}
		}
		return nil
	}}
	c := convert.New(rt, convert.Options{Attempts: 3, Backoff: noBackoff}, nil)

	if _, err := c.ToPDF(context.Background(), writeDeck(t, t.TempDir(), "a.pptx"), ""); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if n := len(rt.Runs()); n != 2 {
		t.Errorf("expected 2 runs, got %d", n)
	}
}

func TestToPDF_PermanentFailureNotRetried(t *testing.T) {
	rt := &converttest.Runtime{Fail: func(int, convert.RunSpec) error {
		return &convert.RunError{ExitCode: 127, Output: "libreoffice: not found"}
	}}
	c := convert.New(rt, convert.Options{Attempts: 3, Backoff: noBackoff}, nil)

	_, err := c.ToPDF(context.Background(), writeDeck(t, t.TempDir(), "a.pptx"), "")
	var envErr *convert.EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("expected EnvironmentError, got %v", err)
	}
	if n := len(rt.Runs()); n != 1 {
		t.Errorf("expected 1 run, got %d", n)
	}
}

func TestToPDF_MissingOutputExhaustsAttempts(t *testing.T) {
	rt := &converttest.Runtime{SkipOutput: true}
	c := convert.New(rt, convert.Options{Attempts: 2, Backoff: noBackoff}, nil)

	_, err := c.ToPDF(context.Background(), writeDeck(t, t.TempDir(), "a.pptx"), "")
	var envErr *convert.EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("expected EnvironmentError, got %v", err)
	}
	if !convert.IsRetryable(envErr.Err) {
		t.Errorf("expected the last cause to be retryable, got %v", envErr.Err)
	}
	if n := len(rt.Runs()); n != 2 {
		t.Errorf("expected 2 runs, got %d", n)
	}
}

func TestToPDF_Timeout(t *testing.T) {
	rt := &converttest.Runtime{Fail: func(int, convert.RunSpec) error {
		time.Sleep(50 * time.Millisecond)
		return nil
	}}
	c := convert.New(rt, convert.Options{Attempts: 2, Timeout: 10 * time.Millisecond, Backoff: noBackoff}, nil)

	_, err := c.ToPDF(context.Background(), writeDeck(t, t.TempDir(), "a.pptx"), "")
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if n := len(rt.Runs()); n != 2 {
		t.Errorf("expected 2 runs, got %d", n)
	}
}

func TestToPDF_RuntimeUnavailable(t *testing.T) {
	rt := &converttest.Runtime{PingErr: errors.New("cannot connect to the docker daemon")}
	c := convert.New(rt, convert.Options{Backoff: noBackoff}, nil)

	_, err := c.ToPDF(context.Background(), writeDeck(t, t.TempDir(), "a.pptx"), "")
	var envErr *convert.EnvironmentError
	if !errors.As(err, &envErr) || envErr.Op != "ping" {
		t.Fatalf("expected ping EnvironmentError, got %v", err)
	}
	if len(rt.Runs()) != 0 {
		t.Errorf("expected no runs, got %d", len(rt.Runs()))
	}
}

func TestToPDF_MissingSource(t *testing.T) {
	c := convert.New(&converttest.Runtime{}, convert.Options{}, nil)
	_, err := c.ToPDF(context.Background(), filepath.Join(t.TempDir(), "nope.pptx"), "")
	var envErr *convert.EnvironmentError
	if !errors.As(err, &envErr) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected EnvironmentError wrapping ErrNotExist, got %v", err)
	}
}

func TestBackoff_Bounds(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		d := convert.Backoff(attempt)
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		if d < base || d >= base+base/2 {
			t.Errorf("attempt %d: backoff %s outside [%s, %s)", attempt, d, base, base+base/2)
		}
	}
}

func TestNewDockerCLI_SplitsCommand(t *testing.T) {
	if _, err := convert.NewDockerCLI(`sudo "docker`, nil); err == nil {
		t.Error("expected error for unterminated quote")
	}
	if _, err := convert.NewDockerCLI("", nil); err != nil {
		t.Errorf("expected default command, got %v", err)
	}
}

func TestToPDF_RecordsStats(t *testing.T) {
	dir := t.TempDir()
	rt := &converttest.Runtime{Fail: func(n int, spec convert.RunSpec) error {
		if spec.Cmd[len(spec.Cmd)-1] == "bad.pptx" {
			return &convert.RunError{ExitCode: 127}
		}
		return nil
	}}
	c := convert.New(rt, convert.Options{Backoff: noBackoff}, nil)

	if _, err := c.ToPDF(context.Background(), writeDeck(t, dir, "good.pptx"), ""); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if _, err := c.ToPDF(context.Background(), writeDeck(t, dir, "bad.pptx"), ""); err == nil {
		t.Fatal("expected failure")
	}
	snap := c.Stats()
	if snap.Conversions != 2 || snap.Failed != 1 {
		t.Errorf("expected 2 conversions with 1 failed, got %+v", snap)
	}
}
