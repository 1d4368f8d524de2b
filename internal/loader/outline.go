package loader

import (
	"fmt"
	"strings"

	"github.com/dgallion1/autopages/internal/record"
)

// Layout indices given to pages built from document outlines, following the
// default PowerPoint master: title slide first, then title and content.
const (
	outlineTitleLayout   = "0"
	outlineContentLayout = "1"
)

// outline builds rows from heading-structured documents (markdown, docx,
// html). A level 1 heading starts a new output document with a title slide,
// a level 2 heading starts a page, and a break starts the next content block
// of the current page.
type outline struct {
	rows  []*record.Fields
	doc   *record.Fields
	page  *record.Fields
	items []string
	lines []string
}

func (o *outline) startDocument(title string) {
	o.flushPage()
	o.doc = record.NewFields()
	o.rows = append(o.rows, o.doc)
	if title != "" {
		o.startPage(title, outlineTitleLayout)
	}
}

func (o *outline) startPage(title, layout string) {
	o.flushPage()
	if o.doc == nil {
		o.doc = record.NewFields()
		o.rows = append(o.rows, o.doc)
	}
	p := record.NewFields()
	if title != "" {
		p.Set(record.KeyTitle, title)
	}
	p.Set(record.KeyLayout, layout)
	o.page = p
	o.doc.Set(o.pageKey(title), p)
}

// pageKey keeps repeated headings from overwriting each other.
func (o *outline) pageKey(title string) string {
	if title == "" {
		title = fmt.Sprintf("Unnamed: %d", o.doc.Len())
	}
	key := title
	for n := 2; ; n++ {
		if _, taken := o.doc.Get(key); !taken {
			return key
		}
		key = fmt.Sprintf("%s (%d)", title, n)
	}
}

func (o *outline) text(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if o.page == nil {
		o.startPage("", outlineContentLayout)
	}
	o.lines = append(o.lines, line)
}

func (o *outline) nextBlock() {
	if len(o.lines) == 0 {
		return
	}
	o.items = append(o.items, strings.Join(o.lines, "\n"))
	o.lines = nil
}

func (o *outline) setLayout(layout string) {
	if o.page == nil {
		return
	}
	o.page.Set(record.KeyLayout, strings.TrimSpace(layout))
}

func (o *outline) flushPage() {
	if o.page == nil {
		return
	}
	o.nextBlock()
	switch len(o.items) {
	case 0:
	case 1:
		o.page.Set(record.KeyContent, o.items[0])
	default:
		list := make([]any, len(o.items))
		for i, it := range o.items {
			list[i] = it
		}
		o.page.Set(record.KeyContent, list)
	}
	o.page = nil
	o.items = nil
}

func (o *outline) finish() []*record.Fields {
	o.flushPage()
	return o.rows
}

// layoutDirective extracts N from a "layout: N" comment body.
func layoutDirective(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<!--")
	s = strings.TrimSuffix(s, "-->")
	s = strings.TrimSpace(s)
	const prefix = "layout:"
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(s[len(prefix):]), true
}
