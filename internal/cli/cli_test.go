package cli

import (
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/autopages/internal/analyse"
	"github.com/dgallion1/autopages/internal/pipeline"
)

func newFlags() (*flag.FlagSet, *bool, *string) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	convert := false
	delim := ";"
	BoolFlag(fs, &convert, "convert", "c", "convert")
	StringFlag(fs, &delim, "delimiter", "delimiter")
	return fs, &convert, &delim
}

func TestParse_Interspersed(t *testing.T) {
	fs, convert, delim := newFlags()
	pos, err := Parse(fs, []string{"data.csv", "-c", "tpl.pptx", "--delimiter", ",", "out.pdf"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]string{"data.csv", "tpl.pptx", "out.pdf"}, pos); diff != "" {
		t.Errorf("positionals mismatch (-want +got):\n%s", diff)
	}
	if !*convert || *delim != "," {
		t.Errorf("expected convert and delimiter ',', got %v %q", *convert, *delim)
	}
}

func TestParse_LongAlias(t *testing.T) {
	fs, convert, _ := newFlags()
	if _, err := Parse(fs, []string{"--convert", "a"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !*convert {
		t.Error("expected --convert to set the flag")
	}
}

func TestParse_Terminator(t *testing.T) {
	fs, convert, _ := newFlags()
	pos, err := Parse(fs, []string{"a", "--", "-c", "b"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "-c", "b"}, pos); diff != "" {
		t.Errorf("positionals mismatch (-want +got):\n%s", diff)
	}
	if *convert {
		t.Error("expected -c after -- to be positional")
	}
}

func TestParse_UnknownFlag(t *testing.T) {
	fs, _, _ := newFlags()
	if _, err := Parse(fs, []string{"a", "--nope"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	Logger(&buf, false).Debug("hidden")
	Logger(&buf, true).Debug("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected log output %q", buf.String())
	}
}

func TestRenderLayouts(t *testing.T) {
	out := RenderLayouts("brand.pptx", []analyse.LayoutInfo{
		{Index: 0, Name: "Title Slide", Placeholders: []analyse.PlaceholderInfo{
			{Idx: 0, Type: "ctrTitle", Name: "Title 1", Role: "title"},
		}},
		{Index: 1, Name: "Blank"},
	})
	for _, want := range []string{"brand.pptx: 2 layouts", "[0] Title Slide", "ctrTitle", "Title 1", "[1] Blank", "no placeholders"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected report to contain %q:\n%s", want, out)
		}
	}
}

func TestRenderBatch(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(pdf, make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}
	out := RenderBatch([]pipeline.JobSnapshot{
		{Status: pipeline.StatusCompleted, Outputs: []pipeline.Output{{Deck: "a.pptx", PDF: pdf, Deleted: true}}},
		{Status: pipeline.StatusFailed, Outputs: []pipeline.Output{{Deck: "b.pptx", Error: "exit status 1"}}},
	})
	for _, want := range []string{"wrote " + pdf + " (2.0 kB)", "failed b.pptx: exit status 1", "1 of 2 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "wrote a.pptx") {
		t.Errorf("deleted deck listed as written:\n%s", out)
	}
}
