package loader

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/autopages/internal/record"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownLoader handles Markdown outlines using goldmark.
//
//	# Deck title          -> new output document, title slide
//	## Slide title        -> new page
//	---                   -> next content block on the same page
//	<!-- layout: 2 -->    -> layout of the current page
//
// A "---" directly under a line of text makes that line a level 2 heading,
// so a block break needs a blank line before it.
type MarkdownLoader struct{}

func (l *MarkdownLoader) Load(r io.Reader, filename string) ([]*record.Fields, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var o outline
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := inlineText(node, src)
			switch node.Level {
			case 1:
				o.startDocument(title)
			case 2:
				o.startPage(title, outlineContentLayout)
			default:
				o.text(title)
			}
		case *ast.ThematicBreak:
			o.nextBlock()
		case *ast.HTMLBlock:
			raw := string(blockLines(node, src))
			if layout, ok := layoutDirective(raw); ok {
				o.setLayout(layout)
				continue
			}
			o.text(plainText(raw))
		case *ast.List:
			listLines(&o, node, src)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			for _, line := range strings.Split(string(blockLines(node, src)), "\n") {
				o.text(line)
			}
		default:
			o.text(inlineText(n, src))
		}
	}
	return o.finish(), nil
}

func listLines(o *outline, list *ast.List, src []byte) {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				listLines(o, sub, src)
				continue
			}
			o.text(inlineText(c, src))
		}
	}
}

// inlineText collects the visible text of a node, dropping inline HTML.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.AutoLink:
			buf.Write(t.Label(src))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

func blockLines(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}
