package loader

import (
	"strings"
	"testing"

	"github.com/dgallion1/autopages/internal/record"
	"github.com/google/go-cmp/cmp"
)

func pageOf(t *testing.T, doc *record.Fields, key string) *record.Fields {
	t.Helper()
	v, ok := doc.Get(key)
	if !ok {
		t.Fatalf("expected page %q, have keys %v", key, doc.Keys())
	}
	p, ok := v.(*record.Fields)
	if !ok {
		t.Fatalf("expected page %q to be a section, got %T", key, v)
	}
	return p
}

func TestMarkdownLoader_Outline(t *testing.T) {
	input := `# Quarterly Review

Prepared by finance.

## Revenue

Revenue grew **12%**.

- North
- South

## Split

Left column.

---

Right column.

<!-- layout: 3 -->
`
	rows, err := (&MarkdownLoader{}).Load(strings.NewReader(input), "deck.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 document, got %d", len(rows))
	}
	doc := rows[0]
	if diff := cmp.Diff([]string{"Quarterly Review", "Revenue", "Split"}, doc.Keys()); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}

	cover := pageOf(t, doc, "Quarterly Review")
	if v, _ := cover.String("layout"); v != "0" {
		t.Errorf("expected title slide layout 0, got %q", v)
	}
	if v, _ := cover.String("content"); v != "Prepared by finance." {
		t.Errorf("expected subtitle content, got %q", v)
	}

	rev := pageOf(t, doc, "Revenue")
	if v, _ := rev.String("content"); v != "Revenue grew 12%.\nNorth\nSouth" {
		t.Errorf("unexpected revenue content %q", v)
	}

	split := pageOf(t, doc, "Split")
	content, _ := split.Get("content")
	if diff := cmp.Diff([]any{"Left column.", "Right column."}, content); diff != "" {
		t.Errorf("split content mismatch (-want +got):\n%s", diff)
	}
	if v, _ := split.String("layout"); v != "3" {
		t.Errorf("expected layout directive 3, got %q", v)
	}
}

func TestMarkdownLoader_MultipleDocuments(t *testing.T) {
	input := "# One\n\n## A\n\nx\n\n# Two\n\n## B\n\ny\n"
	rows, err := (&MarkdownLoader{}).Load(strings.NewReader(input), "two.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(rows))
	}
	if diff := cmp.Diff([]string{"Two", "B"}, rows[1].Keys()); diff != "" {
		t.Errorf("second document pages mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownLoader_NoHeadings(t *testing.T) {
	rows, err := (&MarkdownLoader{}).Load(strings.NewReader("Just some text."), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Len() != 1 {
		t.Fatalf("expected one document with one page, got %d documents", len(rows))
	}
	page := pageOf(t, rows[0], "Unnamed: 0")
	if _, ok := page.Get("title"); ok {
		t.Error("expected untitled page")
	}
}

func TestMarkdownLoader_RepeatedHeadingsKeepBothPages(t *testing.T) {
	input := "## Notes\n\na\n\n## Notes\n\nb\n"
	rows, err := (&MarkdownLoader{}).Load(strings.NewReader(input), "dup.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"Notes", "Notes (2)"}, rows[0].Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	second := pageOf(t, rows[0], "Notes (2)")
	if v, _ := second.String("title"); v != "Notes" {
		t.Errorf("expected title Notes, got %q", v)
	}
}

func TestMarkdownLoader_BreakNeedsBlankLine(t *testing.T) {
	input := "## Page\n\nLeft\n\n---\n\nRight\n---\n\nBelow\n"
	rows, err := (&MarkdownLoader{}).Load(strings.NewReader(input), "setext.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"Page", "Right"}, rows[0].Keys()); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
	content, _ := pageOf(t, rows[0], "Page").Get("content")
	if diff := cmp.Diff("Left", content); diff != "" {
		t.Errorf("page content mismatch (-want +got):\n%s", diff)
	}
	if v, _ := pageOf(t, rows[0], "Right").String("content"); v != "Below" {
		t.Errorf("expected text under the setext heading, got %q", v)
	}
}

func TestMarkdownLoader_EmptyInput(t *testing.T) {
	rows, err := (&MarkdownLoader{}).Load(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no documents, got %d", len(rows))
	}
}
