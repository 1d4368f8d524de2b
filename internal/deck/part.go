package deck

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsDrawingML     = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPresentation  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsOfficeRels    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relTypeOfficeDocument = nsOfficeRels + "/officeDocument"
	relTypeSlide          = nsOfficeRels + "/slide"
	relTypeSlideLayout    = nsOfficeRels + "/slideLayout"
	relTypeSlideMaster    = nsOfficeRels + "/slideMaster"

	contentTypeSlide = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	contentTypeRels  = "application/vnd.openxmlformats-package.relationships+xml"

	contentTypesPart = "[Content_Types].xml"
)

// part is one parsed XML member of the package.
type part struct {
	name  string
	doc   *etree.Document
	dirty bool
}

func parsePart(name string, data []byte) (*part, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("parse %s: empty document", name)
	}
	return &part{name: name, doc: doc}, nil
}

func newPart(name, xml string) *part {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		// The skeletons are constants of this package.
		panic(fmt.Sprintf("deck: bad skeleton for %s: %v", name, err))
	}
	return &part{name: name, doc: doc, dirty: true}
}

func (p *part) root() *etree.Element { return p.doc.Root() }

// prefix returns the namespace prefix the part binds to uri, declaring
// fallback on the root element when the part does not bind it yet.
func (p *part) prefix(uri, fallback string) string {
	root := p.root()
	for _, a := range root.Attr {
		if a.Value != uri {
			continue
		}
		if a.Space == "xmlns" {
			return a.Key
		}
		if a.Space == "" && a.Key == "xmlns" {
			return ""
		}
	}
	root.CreateAttr("xmlns:"+fallback, uri)
	p.dirty = true
	return fallback
}

func qualify(prefix, tag string) string {
	if prefix == "" {
		return tag
	}
	return prefix + ":" + tag
}

// attr returns the value of the attribute key that carries no namespace.
func attr(e *etree.Element, key string) string {
	for _, a := range e.Attr {
		if a.Space == "" && a.Key == key {
			return a.Value
		}
	}
	return ""
}

// relID returns the r:id style attribute of e, whatever its prefix.
func relID(e *etree.Element) string {
	for _, a := range e.Attr {
		if a.Space != "" && a.Space != "xmlns" && a.Key == "id" {
			return a.Value
		}
	}
	return ""
}

func child(e *etree.Element, tag string) *etree.Element {
	if e == nil {
		return nil
	}
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func children(e *etree.Element, tag string) []*etree.Element {
	if e == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// rels is the relationship part belonging to a source part.
type rels struct {
	source string
	*part
}

func relsName(source string) string {
	dir, file := path.Split(source)
	return dir + "_rels/" + file + ".rels"
}

const relsSkeleton = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func newRels(source string) *rels {
	return &rels{source: source, part: newPart(relsName(source), relsSkeleton)}
}

// relationship is one resolved entry of a rels part.
type relationship struct {
	ID     string
	Type   string
	Target string // package part name, without leading slash
}

func (r *rels) list() []relationship {
	var out []relationship
	for _, e := range children(r.root(), "Relationship") {
		if attr(e, "TargetMode") == "External" {
			continue
		}
		out = append(out, relationship{
			ID:     attr(e, "Id"),
			Type:   attr(e, "Type"),
			Target: resolveTarget(r.source, attr(e, "Target")),
		})
	}
	return out
}

func (r *rels) target(id string) (string, bool) {
	for _, rel := range r.list() {
		if rel.ID == id {
			return rel.Target, true
		}
	}
	return "", false
}

// ofType matches by the last path element of the relationship type, so both
// transitional and strict OOXML namespaces are accepted.
func (r *rels) ofType(relType string) []relationship {
	suffix := relType[strings.LastIndex(relType, "/"):]
	var out []relationship
	for _, rel := range r.list() {
		if strings.HasSuffix(rel.Type, suffix) {
			out = append(out, rel)
		}
	}
	return out
}

// add appends a relationship from the source part to target and returns its id.
func (r *rels) add(relType, target string) string {
	used := make(map[string]bool)
	for _, e := range children(r.root(), "Relationship") {
		used[attr(e, "Id")] = true
	}
	id := ""
	for n := 1; ; n++ {
		id = "rId" + strconv.Itoa(n)
		if !used[id] {
			break
		}
	}
	e := r.root().CreateElement("Relationship")
	e.CreateAttr("Id", id)
	e.CreateAttr("Type", relType)
	e.CreateAttr("Target", relativeTarget(r.source, target))
	r.dirty = true
	return id
}

func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

func relativeTarget(source, target string) string {
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(source)), filepath.FromSlash(target))
	if err != nil {
		return "/" + target
	}
	return filepath.ToSlash(rel)
}
