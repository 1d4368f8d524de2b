package loader

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/autopages/internal/record"
	"github.com/fumiama/go-docx"
)

// DOCXLoader handles .docx outlines: Heading 1 starts an output document,
// Heading 2 starts a page, a paragraph reading "---" starts the next content
// block and a paragraph "layout: N" sets the page layout.
type DOCXLoader struct{}

func (l *DOCXLoader) Load(r io.Reader, filename string) ([]*record.Fields, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var o outline
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}

		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		switch level := docxHeadingLevel(para); {
		case level == 1:
			o.startDocument(text)
		case level == 2:
			o.startPage(text, outlineContentLayout)
		case text == "---":
			o.nextBlock()
		default:
			if layout, ok := layoutDirective(text); ok {
				o.setLayout(layout)
				continue
			}
			o.text(text)
		}
	}
	return o.finish(), nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	switch style {
	case "title", "heading1":
		return 1
	case "heading2":
		return 2
	case "heading3", "heading4", "heading5", "heading6":
		return 3
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
