package record

import "strconv"

// Kind tags the shape a page was declared with in the data file.
type Kind int

const (
	// PlainText is a page declared as "title": "text".
	PlainText Kind = iota
	// Section is a page declared as a mapping with title/content/layout/output.
	Section
)

func (k Kind) String() string {
	if k == Section {
		return "section"
	}
	return "plain"
}

// Layout selects a template layout by index or by name.
// The zero value selects layout 0.
type Layout struct {
	Index int
	Name  string
}

// IsNamed reports whether the layout is referenced by name.
func (l Layout) IsNamed() bool { return l.Name != "" }

func (l Layout) String() string {
	if l.IsNamed() {
		return strconv.Quote(l.Name)
	}
	return strconv.Itoa(l.Index)
}

// Content is the resolved payload of one page.
type Content struct {
	Kind     Kind
	Title    string
	HasTitle bool
	Items    []string
	Layout   Layout
	Output   string
}

// Page is one slide worth of data.
type Page struct {
	Key     string
	Content Content
}

// Document is one output deck: an ordered list of pages.
type Document struct {
	Pages  []Page
	Output string
}

// Last returns the last page of the document.
func (d Document) Last() (Page, bool) {
	if len(d.Pages) == 0 {
		return Page{}, false
	}
	return d.Pages[len(d.Pages)-1], true
}
