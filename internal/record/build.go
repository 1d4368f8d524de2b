package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Reserved keys inside a section mapping.
const (
	KeyTitle   = "title"
	KeyContent = "content"
	KeyLayout  = "layout"
	KeyOutput  = "output"
)

// MissingKeyError is returned in single-document mode when a row lacks a
// required key.
type MissingKeyError struct {
	Row int
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("row %d: missing required key %q", e.Row, e.Key)
}

// ValueError reports a value whose shape cannot be turned into a page.
type ValueError struct {
	Row int
	Key string
	Msg string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("row %d, key %q: %s", e.Row, e.Key, e.Msg)
}

// Build resolves loaded rows into documents. In normal mode every row is one
// document whose keys are pages. In single mode every row must carry a title
// and all rows collapse into one document with one page per row.
func Build(rows []*Fields, single bool) ([]Document, error) {
	if single {
		doc, err := collapse(rows)
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	}

	docs := make([]Document, 0, len(rows))
	for i, row := range rows {
		doc, err := documentFrom(i, row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func documentFrom(row int, f *Fields) (Document, error) {
	var doc Document
	for _, key := range f.Keys() {
		v, _ := f.Get(key)
		if key == KeyOutput {
			if s, ok := v.(string); ok {
				doc.Output = s
				continue
			}
		}
		content, err := contentFrom(row, key, v)
		if err != nil {
			return Document{}, err
		}
		if doc.Output == "" && content.Output != "" {
			doc.Output = content.Output
		}
		doc.Pages = append(doc.Pages, Page{Key: key, Content: content})
	}
	return doc, nil
}

func collapse(rows []*Fields) (Document, error) {
	for i, row := range rows {
		if _, ok := row.String(KeyTitle); !ok {
			return Document{}, &MissingKeyError{Row: i, Key: KeyTitle}
		}
	}

	var doc Document
	pos := make(map[string]int, len(rows))
	for i, row := range rows {
		title, _ := row.String(KeyTitle)
		content, err := sectionFrom(i, title, row)
		if err != nil {
			return Document{}, err
		}
		if doc.Output == "" && content.Output != "" {
			doc.Output = content.Output
		}
		page := Page{Key: title, Content: content}
		if at, ok := pos[title]; ok {
			doc.Pages[at] = page
			continue
		}
		pos[title] = len(doc.Pages)
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

func contentFrom(row int, key string, v any) (Content, error) {
	switch val := v.(type) {
	case *Fields:
		return sectionFrom(row, key, val)
	case string:
		return Content{Kind: PlainText, Title: key, HasTitle: true, Items: []string{val}}, nil
	case nil:
		return Content{Kind: PlainText, Title: key, HasTitle: true}, nil
	case []any:
		items, err := stringList(row, key, val)
		if err != nil {
			return Content{}, err
		}
		return Content{Kind: PlainText, Title: key, HasTitle: true, Items: items}, nil
	default:
		return Content{}, &ValueError{Row: row, Key: key, Msg: fmt.Sprintf("unsupported value type %T", v)}
	}
}

func sectionFrom(row int, key string, f *Fields) (Content, error) {
	c := Content{Kind: Section}
	if t, ok := f.Get(KeyTitle); ok && t != nil {
		s, ok := t.(string)
		if !ok {
			return Content{}, &ValueError{Row: row, Key: key, Msg: "title must be a string"}
		}
		c.Title, c.HasTitle = s, true
	}

	if v, ok := f.Get(KeyContent); ok {
		switch val := v.(type) {
		case string:
			c.Items = []string{val}
		case []any:
			items, err := stringList(row, key, val)
			if err != nil {
				return Content{}, err
			}
			c.Items = items
		case nil:
		default:
			return Content{}, &ValueError{Row: row, Key: key, Msg: "content must be a string or a list of strings"}
		}
	}

	if v, ok := f.Get(KeyLayout); ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return Content{}, &ValueError{Row: row, Key: key, Msg: "layout must be an index or a name"}
		}
		c.Layout = ParseLayout(s)
	}

	if s, ok := f.String(KeyOutput); ok {
		c.Output = s
	}
	return c, nil
}

// ParseLayout interprets s as a layout index when it is numeric and as a
// layout name otherwise. Numeric text such as "2.0" is accepted.
func ParseLayout(s string) Layout {
	s = strings.TrimSpace(s)
	if s == "" {
		return Layout{}
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Layout{Index: n}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return Layout{Index: int(f)}
	}
	return Layout{Name: s}
}

func stringList(row int, key string, vals []any) ([]string, error) {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		switch s := v.(type) {
		case string:
			out = append(out, s)
		case nil:
			out = append(out, "")
		default:
			return nil, &ValueError{Row: row, Key: key, Msg: "content list must hold strings"}
		}
	}
	return out, nil
}

// Joined returns the content items joined by a single space.
func (c Content) Joined() string {
	return strings.Join(c.Items, " ")
}
