// Package outname derives output file names for populated decks.
package outname

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/dgallion1/autopages/internal/record"
)

const (
	ExtPPTX = ".pptx"
	ExtPDF  = ".pdf"
)

// Resolve normalises the requested output name. A ".pdf" name is turned into
// the intermediate ".pptx" name and implies conversion.
func Resolve(outfile string, convert bool) (string, bool) {
	if strings.HasSuffix(outfile, ExtPDF) {
		outfile = strings.TrimSuffix(outfile, ExtPDF)
		convert = true
	}
	return WithPPTX(outfile), convert
}

// WithPPTX appends ".pptx" unless name already ends with it. A trailing ".pdf"
// is dropped first.
func WithPPTX(name string) string {
	name = strings.TrimSuffix(name, ExtPDF)
	if strings.HasSuffix(name, ExtPPTX) {
		return name
	}
	return name + ExtPPTX
}

// PDFPath returns the sibling PDF path of a deck.
func PDFPath(pptx string) string {
	return strings.TrimSuffix(pptx, filepath.Ext(pptx)) + ExtPDF
}

// Indexed inserts "_<i>" before the extension of name.
func Indexed(name string, i int) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + strconv.Itoa(i) + ext
}

// Substitute replaces the literals "content" and "title" in path with the
// given values, content first.
func Substitute(path, title, content string) string {
	path = strings.ReplaceAll(path, "content", content)
	return strings.ReplaceAll(path, "title", title)
}

// IsTemplate reports whether outfile is a per-document name template.
func IsTemplate(outfile string) bool {
	return strings.Contains(outfile, "{{")
}

// Plan hands out one output path per document of a run.
type Plan struct {
	base   string
	root   string
	legacy bool
	tmpl   *pongo2.Template
	used   map[string]bool
}

// NewPlan prepares naming for base, the name returned by Resolve. When root is
// set, every path handed out is confined to it. legacy enables Substitute on
// plain names; it has no effect on name templates.
func NewPlan(base, root string, legacy bool) (*Plan, error) {
	p := &Plan{base: base, root: root, legacy: legacy, used: make(map[string]bool)}
	if IsTemplate(base) {
		tmpl, err := pongo2.FromString(base)
		if err != nil {
			return nil, fmt.Errorf("output name template %q: %w", base, err)
		}
		p.tmpl = tmpl
	}
	return p, nil
}

// Templated reports whether the plan evaluates a name template.
func (p *Plan) Templated() bool { return p.tmpl != nil }

// PathFor returns the output path of document i out of total.
func (p *Plan) PathFor(i, total int, doc record.Document) (string, error) {
	var name string
	switch {
	case doc.Output != "":
		override := WithPPTX(doc.Output)
		if p.root != "" {
			if !filepath.IsLocal(override) {
				return "", fmt.Errorf("document %d: output %q escapes the output directory", i, doc.Output)
			}
			override = filepath.Join(p.root, override)
		}
		name = override
	case p.tmpl != nil:
		out, err := p.tmpl.Execute(templateContext(i, total, doc))
		if err != nil {
			return "", fmt.Errorf("document %d: output name template: %w", i, err)
		}
		name = WithPPTX(strings.TrimSpace(out))
	case total > 1:
		name = Indexed(p.base, i)
	default:
		name = p.base
	}
	if p.legacy && p.tmpl == nil {
		name = p.substitute(name, doc)
	}
	if p.tmpl != nil && p.used[name] {
		name = Indexed(name, i)
	}
	if err := p.confine(name); err != nil {
		return "", fmt.Errorf("document %d: %w", i, err)
	}
	p.used[name] = true
	return name, nil
}

// substitute applies Substitute with the last page of doc. Under a root only
// the part below it is rewritten.
func (p *Plan) substitute(name string, doc record.Document) string {
	last, ok := doc.Last()
	if !ok {
		return name
	}
	title, content := pathSafe(last.Content.Title), pathSafe(last.Content.Joined())
	if p.root == "" {
		return Substitute(name, title, content)
	}
	rel, err := filepath.Rel(p.root, name)
	if err != nil {
		return Substitute(name, title, content)
	}
	return filepath.Join(p.root, Substitute(rel, title, content))
}

func (p *Plan) confine(name string) error {
	if p.root == "" {
		return nil
	}
	rel, err := filepath.Rel(p.root, name)
	if err != nil || !filepath.IsLocal(rel) {
		return fmt.Errorf("output %q escapes the output directory", name)
	}
	return nil
}

func templateContext(i, total int, doc record.Document) pongo2.Context {
	ctx := pongo2.Context{
		"index":  i,
		"number": i + 1,
		"total":  total,
		"pages":  len(doc.Pages),
	}
	title, content := "", ""
	if first, ok := firstPage(doc); ok {
		ctx["first_title"] = pongo2.AsSafeValue(pathSafe(first.Content.Title))
	}
	if last, ok := doc.Last(); ok {
		title = last.Content.Title
		content = last.Content.Joined()
	}
	ctx["title"] = pongo2.AsSafeValue(pathSafe(title))
	ctx["content"] = pongo2.AsSafeValue(pathSafe(content))
	return ctx
}

func firstPage(doc record.Document) (record.Page, bool) {
	if len(doc.Pages) == 0 {
		return record.Page{}, false
	}
	return doc.Pages[0], true
}

var pathReplacer = strings.NewReplacer("/", "-", `\`, "-", "\x00", "", "\n", " ", "\r", " ")

// pathSafe keeps data values from introducing directories.
func pathSafe(s string) string {
	return strings.TrimSpace(pathReplacer.Replace(s))
}
