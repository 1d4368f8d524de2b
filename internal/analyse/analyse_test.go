package analyse

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/autopages/internal/deck"
	"github.com/dgallion1/autopages/internal/deck/decktest"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestInspect(t *testing.T) {
	d, err := deck.Read(decktest.Build(decktest.Default()), "template.pptx")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	layouts := Inspect(d)
	if len(layouts) != 5 {
		t.Fatalf("expected 5 layouts, got %d", len(layouts))
	}

	two := layouts[2]
	if two.Name != "Two Content" || two.ContentBlocks != 2 {
		t.Errorf("expected Two Content with 2 blocks, got %q with %d", two.Name, two.ContentBlocks)
	}
	want := []PlaceholderInfo{
		{Idx: 0, Type: "title", Name: "Title 1", Role: "title"},
		{Idx: 1, Type: "obj", Name: "Content Placeholder 2", Role: "content"},
		{Idx: 2, Type: "obj", Name: "Content Placeholder 3", Role: "content"},
		{Idx: 10, Type: "dt", Name: "Date Placeholder 3", Role: "date"},
		{Idx: 11, Type: "ftr", Name: "Footer Placeholder 4", Role: "other"},
		{Idx: 12, Type: "sldNum", Name: "Slide Number Placeholder 5", Role: "slide-number"},
	}
	if diff := cmp.Diff(want, two.Placeholders); diff != "" {
		t.Errorf("placeholders mismatch (-want +got):\n%s", diff)
	}
	if layouts[4].ContentBlocks != 0 {
		t.Errorf("expected blank layout to take no content, got %d", layouts[4].ContentBlocks)
	}
}

func TestMarkup(t *testing.T) {
	dir := t.TempDir()
	tpl := decktest.Write(t, dir, "brand.pptx", decktest.Default())

	dest, err := Markup(tpl, quiet)
	if err != nil {
		t.Fatalf("markup: %v", err)
	}
	if want := filepath.Join(dir, "brand-markup.pptx"); dest != want {
		t.Errorf("expected %q, got %q", want, dest)
	}

	d, err := deck.Open(dest)
	if err != nil {
		t.Fatalf("open markup: %v", err)
	}
	slides := d.Slides()
	if len(slides) != 5 {
		t.Fatalf("expected one slide per layout, got %d", len(slides))
	}

	var texts []string
	for _, ph := range slides[3].Placeholders() {
		texts = append(texts, ph.Text())
	}
	want := []string{"Title for Layout 3", "", "Placeholder index:2 type:Text Placeholder 3"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("picture layout texts mismatch (-want +got):\n%s", diff)
	}
	if got := slides[4].Placeholders(); len(got) != 0 {
		t.Errorf("expected blank layout slide without placeholders, got %d", len(got))
	}
}
