package deck_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/autopages/internal/deck"
	"github.com/dgallion1/autopages/internal/deck/decktest"
)

func openDefault(t *testing.T) *deck.Deck {
	t.Helper()
	d, err := deck.Read(decktest.Build(decktest.Default()), "default.pptx")
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	return d
}

func reopen(t *testing.T, d *deck.Deck) *deck.Deck {
	t.Helper()
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := deck.Read(buf.Bytes(), "reopened.pptx")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	return out
}

func roles(phs []*deck.Placeholder) []string {
	var out []string
	for _, ph := range phs {
		out = append(out, ph.Role.String())
	}
	return out
}

func TestRead_LayoutsInMasterOrder(t *testing.T) {
	d := openDefault(t)
	want := []string{"Title Slide", "Title and Content", "Two Content", "Picture with Caption", "Blank"}
	if diff := cmp.Diff(want, d.LayoutNames()); diff != "" {
		t.Errorf("layout names mismatch (-want +got):\n%s", diff)
	}
	if len(d.Slides()) != 0 {
		t.Errorf("expected no slides, got %d", len(d.Slides()))
	}
}

func TestRead_ResolvesRoles(t *testing.T) {
	d := openDefault(t)
	got := roles(d.Layouts()[3].Placeholders)
	want := []string{"title", "picture", "content", "date", "other", "slide-number"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_RoleFromShapeName(t *testing.T) {
	spec := decktest.Default()
	spec.Slides = []decktest.Slide{{Layout: 1, Placeholders: []decktest.PH{
		{Type: "title", Name: "Title 1"},
		{Idx: 1, Name: "Content Placeholder 2"},
		{Type: "body", Idx: 13, Name: "Report Date"},
		{Type: "body", Idx: 14, Name: "Slide Number Box"},
	}}}
	d, err := deck.Read(decktest.Build(spec), "named.pptx")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := roles(d.Slides()[0].Placeholders())
	want := []string{"title", "content", "date", "slide-number"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
	if d.Slides()[0].Layout == nil || d.Slides()[0].Layout.Name != "Title and Content" {
		t.Errorf("expected slide linked to Title and Content layout")
	}
}

func TestAddSlide_SkipsFooterPlaceholders(t *testing.T) {
	d := openDefault(t)
	s, err := d.AddSlide(d.Layouts()[2])
	if err != nil {
		t.Fatalf("add slide: %v", err)
	}
	want := []string{"title", "content", "content"}
	if diff := cmp.Diff(want, roles(s.Placeholders())); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
	if s.Index != 0 {
		t.Errorf("expected index 0, got %d", s.Index)
	}
}

func TestAddSlide_SurvivesRoundTrip(t *testing.T) {
	d := openDefault(t)
	s, err := d.AddSlide(d.Layouts()[1])
	if err != nil {
		t.Fatalf("add slide: %v", err)
	}
	if err := s.Title().SetText("Quarterly results"); err != nil {
		t.Fatalf("set title: %v", err)
	}
	if err := s.Placeholders()[1].SetText("first\nsecond\vwrapped"); err != nil {
		t.Fatalf("set body: %v", err)
	}
	if _, err := d.AddSlide(d.Layouts()[0]); err != nil {
		t.Fatalf("add second slide: %v", err)
	}

	got := reopen(t, d)
	slides := got.Slides()
	if len(slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(slides))
	}
	if slides[0].Layout.Name != "Title and Content" || slides[1].Layout.Name != "Title Slide" {
		t.Errorf("unexpected layouts %q, %q", slides[0].Layout.Name, slides[1].Layout.Name)
	}
	if txt := slides[0].Title().Text(); txt != "Quarterly results" {
		t.Errorf("expected title text, got %q", txt)
	}
	if txt := slides[0].Placeholders()[1].Text(); txt != "first\nsecond\vwrapped" {
		t.Errorf("expected body text, got %q", txt)
	}
}

func TestClonePlaceholder_FromMaster(t *testing.T) {
	d := openDefault(t)
	s, err := d.AddSlide(d.Layouts()[4])
	if err != nil {
		t.Fatalf("add slide: %v", err)
	}
	if len(s.Placeholders()) != 0 {
		t.Fatalf("expected blank slide, got %v", roles(s.Placeholders()))
	}
	for _, ph := range d.Master().Placeholders {
		s.ClonePlaceholder(ph)
	}
	want := []string{"title", "content", "date", "other", "slide-number"}
	if diff := cmp.Diff(want, roles(s.Placeholders())); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}

	got := reopen(t, d).Slides()[0]
	if diff := cmp.Diff(want, roles(got.Placeholders())); diff != "" {
		t.Errorf("roles after reload mismatch (-want +got):\n%s", diff)
	}
}

func TestSetText_EmptyStringLeavesOneParagraph(t *testing.T) {
	d := openDefault(t)
	s, _ := d.AddSlide(d.Layouts()[1])
	ph := s.Title()
	if err := ph.SetText(""); err != nil {
		t.Fatalf("set text: %v", err)
	}
	if ph.Text() != "" {
		t.Errorf("expected empty text, got %q", ph.Text())
	}
}

func TestSave_CreatesParentDirectories(t *testing.T) {
	d := openDefault(t)
	if _, err := d.AddSlide(d.Layouts()[0]); err != nil {
		t.Fatalf("add slide: %v", err)
	}
	dest := filepath.Join(t.TempDir(), "nested", "dir", "out.pptx")
	if err := d.Save(dest); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := deck.Open(dest)
	if err != nil {
		t.Fatalf("open saved: %v", err)
	}
	if len(got.Slides()) != 1 {
		t.Errorf("expected 1 slide, got %d", len(got.Slides()))
	}
}

func TestOpen_TextStubHint(t *testing.T) {
	cases := []struct {
		name string
		data string
		hint string
	}{
		{"lfs", "version https://git-lfs.github.com/spec/v1\noid sha256:abc\nsize 123\n", "git lfs pull"},
		{"text", "not a presentation\n", "plain text"},
		{"empty", "", "empty"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "template.pptx")
			if err := os.WriteFile(path, []byte(c.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := deck.Open(path)
			var tle *deck.TemplateLoadError
			if !errors.As(err, &tle) {
				t.Fatalf("expected TemplateLoadError, got %v", err)
			}
			if !strings.Contains(tle.Hint, c.hint) {
				t.Errorf("expected hint containing %q, got %q", c.hint, tle.Hint)
			}
		})
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := deck.Open(filepath.Join(t.TempDir(), "nope.pptx"))
	var tle *deck.TemplateLoadError
	if !errors.As(err, &tle) {
		t.Fatalf("expected TemplateLoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}
