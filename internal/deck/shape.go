package deck

import (
	"errors"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Role is what a placeholder is used for when a slide is populated.
type Role int

const (
	RoleOther Role = iota
	RoleTitle
	RolePicture
	RoleContent
	RoleDate
	RoleSlideNumber
)

func (r Role) String() string {
	switch r {
	case RoleTitle:
		return "title"
	case RolePicture:
		return "picture"
	case RoleContent:
		return "content"
	case RoleDate:
		return "date"
	case RoleSlideNumber:
		return "slide-number"
	}
	return "other"
}

// ErrNoTextFrame is returned when text is set on a shape that cannot hold text.
var ErrNoTextFrame = errors.New("deck: shape has no text frame")

// roleFor resolves the role of a placeholder from its <p:ph type> and, for
// generic body placeholders only, from its display name.
func roleFor(shapeTag, phType, name string) Role {
	switch shapeTag {
	case "pic":
		return RolePicture
	case "graphicFrame":
		return RoleOther
	}
	switch phType {
	case "title", "ctrTitle":
		return RoleTitle
	case "pic":
		return RolePicture
	case "dt":
		return RoleDate
	case "sldNum":
		return RoleSlideNumber
	case "ftr", "hdr", "chart", "tbl", "dgm", "media", "clipArt", "sldImg":
		return RoleOther
	}
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "date"):
		return RoleDate
	case strings.Contains(lower, "slide number"):
		return RoleSlideNumber
	}
	return RoleContent
}

// Placeholder is a placeholder shape on a slide, layout or master.
type Placeholder struct {
	el    *etree.Element
	owner *part

	Role Role
	Name string
	// Type is the raw ph type; empty means the default "obj".
	Type string
	Idx  int
}

// placeholdersOf returns the placeholders in the shape tree of p in document
// order. Shapes inside groups are not placeholders.
func placeholdersOf(p *part) []*Placeholder {
	tree := spTree(p)
	if tree == nil {
		return nil
	}
	var out []*Placeholder
	for _, shape := range tree.ChildElements() {
		if ph := newPlaceholder(p, shape); ph != nil {
			out = append(out, ph)
		}
	}
	return out
}

func spTree(p *part) *etree.Element {
	return child(child(p.root(), "cSld"), "spTree")
}

func newPlaceholder(owner *part, shape *etree.Element) *Placeholder {
	nv := nonVisual(shape)
	ph := child(child(nv, "nvPr"), "ph")
	if ph == nil {
		return nil
	}
	name := attr(child(nv, "cNvPr"), "name")
	phType := attr(ph, "type")
	idx, _ := strconv.Atoi(attr(ph, "idx"))
	return &Placeholder{
		el:    shape,
		owner: owner,
		Role:  roleFor(shape.Tag, phType, name),
		Name:  name,
		Type:  phType,
		Idx:   idx,
	}
}

func nonVisual(shape *etree.Element) *etree.Element {
	if shape == nil {
		return nil
	}
	for _, c := range shape.ChildElements() {
		if strings.HasPrefix(c.Tag, "nv") {
			return c
		}
	}
	return nil
}

// Text returns the text of the placeholder, one line per paragraph.
func (p *Placeholder) Text() string {
	tx := child(p.el, "txBody")
	if tx == nil {
		return ""
	}
	var lines []string
	for _, para := range children(tx, "p") {
		var b strings.Builder
		for _, c := range para.ChildElements() {
			switch c.Tag {
			case "r", "fld":
				if t := child(c, "t"); t != nil {
					b.WriteString(t.Text())
				}
			case "br":
				b.WriteByte('\v')
			}
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// SetText replaces all paragraphs of the placeholder. Each "\n" starts a new
// paragraph and each "\v" a line break inside a paragraph.
func (p *Placeholder) SetText(s string) error {
	if p.el.Tag != "sp" {
		return ErrNoTextFrame
	}
	a := p.owner.prefix(nsDrawingML, "a")
	tx := p.textBody(a)
	for _, para := range children(tx, "p") {
		tx.RemoveChild(para)
	}
	for _, line := range strings.Split(s, "\n") {
		para := tx.CreateElement(qualify(a, "p"))
		for i, piece := range strings.Split(line, "\v") {
			if i > 0 {
				para.CreateElement(qualify(a, "br"))
			}
			if piece == "" {
				continue
			}
			run := para.CreateElement(qualify(a, "r"))
			run.CreateElement(qualify(a, "t")).SetText(piece)
		}
	}
	p.owner.dirty = true
	return nil
}

func (p *Placeholder) textBody(a string) *etree.Element {
	if tx := child(p.el, "txBody"); tx != nil {
		return tx
	}
	tx := etree.NewElement(qualify(p.el.Space, "txBody"))
	tx.CreateElement(qualify(a, "bodyPr"))
	tx.CreateElement(qualify(a, "lstStyle"))
	if ext := child(p.el, "extLst"); ext != nil {
		p.el.InsertChildAt(ext.Index(), tx)
	} else {
		p.el.AddChild(tx)
	}
	return tx
}

// phElement returns the <p:ph> element of the placeholder.
func (p *Placeholder) phElement() *etree.Element {
	return child(child(nonVisual(p.el), "nvPr"), "ph")
}

// hasTextFrame reports whether PowerPoint gives this placeholder type a text
// body when it is copied onto a slide.
func (p *Placeholder) hasTextFrame() bool {
	switch p.Type {
	case "", "obj", "body", "title", "ctrTitle", "subTitle":
		return true
	}
	return false
}

var placeholderBaseNames = map[string]string{
	"":         "Content Placeholder",
	"obj":      "Content Placeholder",
	"body":     "Text Placeholder",
	"title":    "Title",
	"ctrTitle": "Title",
	"subTitle": "Subtitle",
	"dt":       "Date Placeholder",
	"ftr":      "Footer Placeholder",
	"sldNum":   "Slide Number Placeholder",
	"pic":      "Picture Placeholder",
	"chart":    "Chart Placeholder",
	"tbl":      "Table Placeholder",
	"media":    "Media Placeholder",
	"clipArt":  "ClipArt Placeholder",
	"dgm":      "SmartArt Placeholder",
	"hdr":      "Header Placeholder",
	"sldImg":   "Slide Image Placeholder",
}

func placeholderName(phType string, id int) string {
	base, ok := placeholderBaseNames[phType]
	if !ok {
		base = "Placeholder"
	}
	return base + " " + strconv.Itoa(id-1)
}
