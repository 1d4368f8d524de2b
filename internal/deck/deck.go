// Package deck reads, edits and writes PresentationML (.pptx) packages.
//
// Only the parts needed to populate slides are parsed: the presentation, its
// first slide master, the master's layouts and the slides. Every other member
// of the package is carried through unchanged.
package deck

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/natefinch/atomic"
)

// Deck is an opened presentation package. It is not safe for concurrent use.
type Deck struct {
	name     string
	entries  []*zip.File
	raw      map[string][]byte
	parts    map[string]*part
	newParts []string
	modified time.Time

	types    *part
	pres     *part
	presRels *rels
	master   *Master
	layouts  []*Layout
	slides   []*Slide
	relsOf   map[string]*rels
}

// Open reads the package at path.
func Open(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TemplateLoadError{Path: path, Err: err}
	}
	return Read(data, path)
}

// Read parses a package held in memory. name is used in errors only.
func Read(data []byte, name string) (*Deck, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &TemplateLoadError{Path: name, Hint: stubHint(data), Err: err}
	}

	d := &Deck{
		name:    name,
		entries: zr.File,
		raw:     make(map[string][]byte, len(zr.File)),
		parts:   make(map[string]*part),
		relsOf:  make(map[string]*rels),
	}
	for _, f := range zr.File {
		b, err := readEntry(f)
		if err != nil {
			return nil, &TemplateLoadError{Path: name, Err: err}
		}
		d.raw[f.Name] = b
		if f.Modified.After(d.modified) {
			d.modified = f.Modified
		}
	}

	if err := d.load(); err != nil {
		return nil, &TemplateLoadError{Path: name, Err: err}
	}
	return d, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return b, nil
}

func (d *Deck) load() error {
	var err error
	if d.types, err = d.xmlPart(contentTypesPart); err != nil {
		return err
	}

	presName := "ppt/presentation.xml"
	if root, err := d.relsFor(""); err == nil {
		if docs := root.ofType(relTypeOfficeDocument); len(docs) > 0 {
			presName = docs[0].Target
		}
	}
	if d.pres, err = d.xmlPart(presName); err != nil {
		return err
	}
	if d.presRels, err = d.relsFor(presName); err != nil {
		return err
	}

	masterID := ""
	if first := child(child(d.pres.root(), "sldMasterIdLst"), "sldMasterId"); first != nil {
		masterID = relID(first)
	}
	masterName, ok := d.presRels.target(masterID)
	if !ok {
		masters := d.presRels.ofType(relTypeSlideMaster)
		if len(masters) == 0 {
			return fmt.Errorf("%s: no slide master", presName)
		}
		masterName = masters[0].Target
	}
	if err := d.loadMaster(masterName); err != nil {
		return err
	}

	for i, id := range children(child(d.pres.root(), "sldIdLst"), "sldId") {
		target, ok := d.presRels.target(relID(id))
		if !ok {
			return fmt.Errorf("slide %d: dangling relationship %q", i, relID(id))
		}
		s, err := d.loadSlide(i, target)
		if err != nil {
			return err
		}
		d.slides = append(d.slides, s)
	}
	return nil
}

func (d *Deck) loadMaster(name string) error {
	mp, err := d.xmlPart(name)
	if err != nil {
		return err
	}
	d.master = &Master{part: mp, Placeholders: placeholdersOf(mp)}

	mrels, err := d.relsFor(name)
	if err != nil {
		return err
	}
	for i, id := range children(child(mp.root(), "sldLayoutIdLst"), "sldLayoutId") {
		target, ok := mrels.target(relID(id))
		if !ok {
			return fmt.Errorf("layout %d: dangling relationship %q", i, relID(id))
		}
		lp, err := d.xmlPart(target)
		if err != nil {
			return err
		}
		d.layouts = append(d.layouts, &Layout{
			Index:        i,
			Name:         attr(child(lp.root(), "cSld"), "name"),
			part:         lp,
			Placeholders: placeholdersOf(lp),
		})
	}
	if len(d.layouts) == 0 {
		return fmt.Errorf("%s: master declares no layouts", name)
	}
	return nil
}

func (d *Deck) loadSlide(index int, name string) (*Slide, error) {
	sp, err := d.xmlPart(name)
	if err != nil {
		return nil, err
	}
	s := &Slide{Index: index, part: sp, phs: placeholdersOf(sp)}
	srels, err := d.relsFor(name)
	if err != nil {
		return nil, err
	}
	if ls := srels.ofType(relTypeSlideLayout); len(ls) > 0 {
		for _, l := range d.layouts {
			if l.part.name == ls[0].Target {
				s.Layout = l
				break
			}
		}
	}
	return s, nil
}

func (d *Deck) xmlPart(name string) (*part, error) {
	if p, ok := d.parts[name]; ok {
		return p, nil
	}
	data, ok := d.raw[name]
	if !ok {
		return nil, fmt.Errorf("missing part %s", name)
	}
	p, err := parsePart(name, data)
	if err != nil {
		return nil, err
	}
	d.parts[name] = p
	return p, nil
}

func (d *Deck) relsFor(source string) (*rels, error) {
	if r, ok := d.relsOf[source]; ok {
		return r, nil
	}
	p, err := d.xmlPart(relsName(source))
	if err != nil {
		return nil, err
	}
	r := &rels{source: source, part: p}
	d.relsOf[source] = r
	return r, nil
}

// Name returns the name the deck was opened with.
func (d *Deck) Name() string { return d.name }

// Master returns the slide master of the deck.
func (d *Deck) Master() *Master { return d.master }

// Layouts returns the layouts of the master in order.
func (d *Deck) Layouts() []*Layout {
	out := make([]*Layout, len(d.layouts))
	copy(out, d.layouts)
	return out
}

// Slides returns the slides in presentation order.
func (d *Deck) Slides() []*Slide {
	out := make([]*Slide, len(d.slides))
	copy(out, d.slides)
	return out
}

// LayoutNames returns the names of all layouts, in order.
func (d *Deck) LayoutNames() []string {
	names := make([]string, len(d.layouts))
	for i, l := range d.layouts {
		names[i] = l.Name
	}
	return names
}

const slideSkeleton = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`

// AddSlide appends a slide based on layout and copies the layout's
// placeholders onto it, except date, footer and slide number.
func (d *Deck) AddSlide(layout *Layout) (*Slide, error) {
	if layout == nil {
		return nil, fmt.Errorf("deck: nil layout")
	}
	name := d.nextSlideName()
	sp := newPart(name, slideSkeleton)
	d.parts[name] = sp
	d.newParts = append(d.newParts, name)

	srels := newRels(name)
	srels.add(relTypeSlideLayout, layout.part.name)
	d.parts[srels.name] = srels.part
	d.relsOf[name] = srels
	d.newParts = append(d.newParts, srels.name)

	d.addOverride(name, contentTypeSlide)
	d.ensureRelsDefault()

	rID := d.presRels.add(relTypeSlide, name)
	d.appendSlideID(rID)

	s := &Slide{Index: len(d.slides), Layout: layout, part: sp}
	for _, ph := range layout.Placeholders {
		if ph.cloneable() {
			s.ClonePlaceholder(ph)
		}
	}
	d.slides = append(d.slides, s)
	return s, nil
}

func (d *Deck) nextSlideName() string {
	for n := len(d.slides) + 1; ; n++ {
		name := "ppt/slides/slide" + strconv.Itoa(n) + ".xml"
		if _, ok := d.raw[name]; ok {
			continue
		}
		if _, ok := d.parts[name]; ok {
			continue
		}
		return name
	}
}

func (d *Deck) addOverride(name, contentType string) {
	root := d.types.root()
	o := root.CreateElement(qualify(root.Space, "Override"))
	o.CreateAttr("PartName", "/"+name)
	o.CreateAttr("ContentType", contentType)
	d.types.dirty = true
}

// ensureRelsDefault makes sure .rels members have a content type, which is
// always the case for packages written by PowerPoint.
func (d *Deck) ensureRelsDefault() {
	root := d.types.root()
	for _, def := range children(root, "Default") {
		if strings.EqualFold(attr(def, "Extension"), "rels") {
			return
		}
	}
	def := etree.NewElement(qualify(root.Space, "Default"))
	def.CreateAttr("Extension", "rels")
	def.CreateAttr("ContentType", contentTypeRels)
	root.InsertChildAt(0, def)
	d.types.dirty = true
}

func (d *Deck) appendSlideID(rID string) {
	root := d.pres.root()
	p := d.pres.prefix(nsPresentation, "p")
	r := d.pres.prefix(nsOfficeRels, "r")

	list := child(root, "sldIdLst")
	if list == nil {
		list = etree.NewElement(qualify(p, "sldIdLst"))
		at := 0
		for _, tag := range []string{"sldMasterIdLst", "notesMasterIdLst", "handoutMasterIdLst"} {
			if e := child(root, tag); e != nil && e.Index()+1 > at {
				at = e.Index() + 1
			}
		}
		root.InsertChildAt(at, list)
	}

	next := 256
	for _, id := range children(list, "sldId") {
		if n, err := strconv.Atoi(attr(id, "id")); err == nil && n >= next {
			next = n + 1
		}
	}
	e := list.CreateElement(qualify(p, "sldId"))
	e.CreateAttr("id", strconv.Itoa(next))
	e.CreateAttr(qualify(r, "id"), rID)
	d.pres.dirty = true
}

// WriteTo writes the package as a zip archive. Unchanged members are copied
// byte for byte.
func (d *Deck) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	write := func(name string, method uint16, data []byte) error {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method, Modified: d.modified})
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	}

	for _, f := range d.entries {
		data, err := d.memberBytes(f.Name)
		if err != nil {
			return cw.n, err
		}
		if err := write(f.Name, f.Method, data); err != nil {
			return cw.n, err
		}
	}

	added := append([]string(nil), d.newParts...)
	sort.Strings(added)
	for _, name := range added {
		data, err := d.memberBytes(name)
		if err != nil {
			return cw.n, err
		}
		if err := write(name, zip.Deflate, data); err != nil {
			return cw.n, err
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("close zip: %w", err)
	}
	return cw.n, nil
}

func (d *Deck) memberBytes(name string) ([]byte, error) {
	if p, ok := d.parts[name]; ok && p.dirty {
		b, err := p.doc.WriteToBytes()
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", name, err)
		}
		return b, nil
	}
	if b, ok := d.raw[name]; ok {
		return b, nil
	}
	if p, ok := d.parts[name]; ok {
		return p.doc.WriteToBytes()
	}
	return nil, fmt.Errorf("unknown member %s", name)
}

// Save writes the deck to path atomically, creating parent directories.
func (d *Deck) Save(dest string) error {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return err
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := atomic.WriteFile(dest, &buf); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
