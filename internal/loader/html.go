package loader

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/autopages/internal/record"
	"golang.org/x/net/html"
)

// HTMLLoader handles HTML outlines: <h1> starts an output document, <h2> a
// page, <hr> the next content block, and <!-- layout: N --> sets the page
// layout.
type HTMLLoader struct{}

func (l *HTMLLoader) Load(r io.Reader, filename string) ([]*record.Fields, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var o outline
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.CommentNode:
			if layout, ok := layoutDirective(n.Data); ok {
				o.setLayout(layout)
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "h1":
				o.startDocument(textContent(n))
				return
			case "h2":
				o.startPage(textContent(n), outlineContentLayout)
				return
			case "h3", "h4", "h5", "h6", "p", "li", "td", "blockquote", "pre":
				o.text(textContent(n))
				return
			case "hr":
				o.nextBlock()
				return
			case "script", "style", "nav", "footer", "header", "head":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return o.finish(), nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findBody(c); found != nil {
			return found
		}
	}
	return nil
}
