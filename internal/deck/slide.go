package deck

import (
	"strconv"

	"github.com/beevik/etree"
)

// Master is the slide master the layouts of the deck hang off.
type Master struct {
	part         *part
	Placeholders []*Placeholder
}

// Layout is one slide layout of the master, in master order.
type Layout struct {
	Index        int
	Name         string
	part         *part
	Placeholders []*Placeholder
}

// Slide is a slide of the deck.
type Slide struct {
	Index  int
	Layout *Layout
	part   *part
	phs    []*Placeholder
}

// Placeholders returns the placeholders of the slide in shape-tree order.
func (s *Slide) Placeholders() []*Placeholder {
	out := make([]*Placeholder, len(s.phs))
	copy(out, s.phs)
	return out
}

// Title returns the title placeholder, if the slide has one.
func (s *Slide) Title() *Placeholder {
	for _, ph := range s.phs {
		if ph.Role == RoleTitle {
			return ph
		}
	}
	return nil
}

// ClonePlaceholder copies the placeholder binding of src (from a layout or
// the master) onto the slide. The clone inherits position and formatting
// from the layout, so only its identity is written.
func (s *Slide) ClonePlaceholder(src *Placeholder) *Placeholder {
	p := s.part.prefix(nsPresentation, "p")
	a := s.part.prefix(nsDrawingML, "a")
	tree := spTree(s.part)

	id := nextShapeID(tree)
	sp := etree.NewElement(qualify(p, "sp"))
	if ext := child(tree, "extLst"); ext != nil {
		tree.InsertChildAt(ext.Index(), sp)
	} else {
		tree.AddChild(sp)
	}
	nv := sp.CreateElement(qualify(p, "nvSpPr"))
	cNvPr := nv.CreateElement(qualify(p, "cNvPr"))
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	name := placeholderName(src.Type, id)
	if roleFor("sp", src.Type, "") != src.Role {
		// The role came from the source name; keep it so it survives a reload.
		name = src.Name
	}
	cNvPr.CreateAttr("name", name)
	nv.CreateElement(qualify(p, "cNvSpPr")).CreateElement(qualify(a, "spLocks")).CreateAttr("noGrp", "1")
	nvPr := nv.CreateElement(qualify(p, "nvPr"))

	ph := nvPr.CreateElement(qualify(p, "ph"))
	if srcPh := src.phElement(); srcPh != nil {
		for _, key := range []string{"type", "orient", "sz", "idx"} {
			if v := attr(srcPh, key); v != "" {
				ph.CreateAttr(key, v)
			}
		}
	}
	sp.CreateElement(qualify(p, "spPr"))
	if src.hasTextFrame() {
		tx := sp.CreateElement(qualify(p, "txBody"))
		tx.CreateElement(qualify(a, "bodyPr"))
		tx.CreateElement(qualify(a, "lstStyle"))
		tx.CreateElement(qualify(a, "p"))
	}
	s.part.dirty = true

	clone := &Placeholder{
		el:    sp,
		owner: s.part,
		Role:  src.Role,
		Name:  name,
		Type:  src.Type,
		Idx:   src.Idx,
	}
	s.phs = append(s.phs, clone)
	return clone
}

func nextShapeID(tree *etree.Element) int {
	highest := 0
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		if e.Tag == "cNvPr" {
			if n, err := strconv.Atoi(attr(e, "id")); err == nil && n > highest {
				highest = n
			}
		}
		for _, c := range e.ChildElements() {
			walk(c)
		}
	}
	walk(tree)
	return highest + 1
}

// cloneable reports whether a layout placeholder is copied onto new slides.
// Date, footer and slide number are left to the master, as PowerPoint does.
func (ph *Placeholder) cloneable() bool {
	switch ph.Type {
	case "dt", "ftr", "sldNum":
		return false
	}
	return true
}
