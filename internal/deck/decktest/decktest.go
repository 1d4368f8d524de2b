// Package decktest builds small PresentationML packages for tests.
package decktest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// PH describes a placeholder shape.
type PH struct {
	Type string // ph type, "" for the default object placeholder
	Idx  int
	Name string
	Text string
}

// Layout describes a slide layout.
type Layout struct {
	Name         string
	Placeholders []PH
}

// Slide describes a slide already present in the template.
type Slide struct {
	Layout       int
	Placeholders []PH
}

// Spec describes a whole package.
type Spec struct {
	Master  []PH
	Layouts []Layout
	Slides  []Slide
}

var footer = []PH{
	{Type: "dt", Idx: 10, Name: "Date Placeholder 3"},
	{Type: "ftr", Idx: 11, Name: "Footer Placeholder 4"},
	{Type: "sldNum", Idx: 12, Name: "Slide Number Placeholder 5"},
}

func withFooter(phs ...PH) []PH {
	return append(phs, footer...)
}

// Default mirrors the stock PowerPoint master: every layout declares the
// footer trio, which new slides do not inherit.
func Default() Spec {
	return Spec{
		Master: withFooter(
			PH{Type: "title", Name: "Title Placeholder 1", Text: "Click to edit Master title style"},
			PH{Type: "body", Idx: 1, Name: "Text Placeholder 2", Text: "Click to edit Master text styles"},
		),
		Layouts: []Layout{
			{Name: "Title Slide", Placeholders: withFooter(
				PH{Type: "ctrTitle", Name: "Title 1", Text: "Click to edit title"},
				PH{Type: "subTitle", Idx: 1, Name: "Subtitle 2"},
			)},
			{Name: "Title and Content", Placeholders: withFooter(
				PH{Type: "title", Name: "Title 1"},
				PH{Idx: 1, Name: "Content Placeholder 2"},
			)},
			{Name: "Two Content", Placeholders: withFooter(
				PH{Type: "title", Name: "Title 1"},
				PH{Idx: 1, Name: "Content Placeholder 2"},
				PH{Idx: 2, Name: "Content Placeholder 3"},
			)},
			{Name: "Picture with Caption", Placeholders: withFooter(
				PH{Type: "title", Name: "Title 1"},
				PH{Type: "pic", Idx: 1, Name: "Picture Placeholder 2"},
				PH{Type: "body", Idx: 2, Name: "Text Placeholder 3"},
			)},
			{Name: "Blank", Placeholders: footer},
		},
	}
}

// Build returns the package bytes for spec.
func Build(spec Spec) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	add := func(name, body string) {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			panic(err)
		}
	}

	var types strings.Builder
	types.WriteString(xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	types.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	types.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	types.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	types.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	for i := range spec.Layouts {
		fmt.Fprintf(&types, `<Override PartName="/ppt/slideLayouts/slideLayout%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`, i+1)
	}
	for i := range spec.Slides {
		fmt.Fprintf(&types, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i+1)
	}
	types.WriteString(`</Types>`)
	add("[Content_Types].xml", types.String())

	add("_rels/.rels", xmlHeader+`<Relationships xmlns="`+nsRels+`"><Relationship Id="rId1" Type="`+relBase+`/officeDocument" Target="ppt/presentation.xml"/></Relationships>`)

	var pres, presRels strings.Builder
	pres.WriteString(xmlHeader + `<p:presentation ` + nsDecl + `><p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	presRels.WriteString(xmlHeader + `<Relationships xmlns="` + nsRels + `"><Relationship Id="rId1" Type="` + relBase + `/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	if len(spec.Slides) > 0 {
		pres.WriteString(`<p:sldIdLst>`)
		for i := range spec.Slides {
			fmt.Fprintf(&pres, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
			fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="%s/slide" Target="slides/slide%d.xml"/>`, i+2, relBase, i+1)
		}
		pres.WriteString(`</p:sldIdLst>`)
	}
	pres.WriteString(`<p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`)
	presRels.WriteString(`</Relationships>`)
	add("ppt/presentation.xml", pres.String())
	add("ppt/_rels/presentation.xml.rels", presRels.String())

	var master, masterRels strings.Builder
	master.WriteString(xmlHeader + `<p:sldMaster ` + nsDecl + `><p:cSld>` + tree(spec.Master) + `</p:cSld><p:sldLayoutIdLst>`)
	masterRels.WriteString(xmlHeader + `<Relationships xmlns="` + nsRels + `">`)
	for i := range spec.Layouts {
		fmt.Fprintf(&master, `<p:sldLayoutId id="%d" r:id="rId%d"/>`, 2147483649+i, i+1)
		fmt.Fprintf(&masterRels, `<Relationship Id="rId%d" Type="%s/slideLayout" Target="../slideLayouts/slideLayout%d.xml"/>`, i+1, relBase, i+1)
	}
	master.WriteString(`</p:sldLayoutIdLst></p:sldMaster>`)
	masterRels.WriteString(`</Relationships>`)
	add("ppt/slideMasters/slideMaster1.xml", master.String())
	add("ppt/slideMasters/_rels/slideMaster1.xml.rels", masterRels.String())

	for i, l := range spec.Layouts {
		add(fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", i+1),
			xmlHeader+`<p:sldLayout `+nsDecl+`><p:cSld name="`+html.EscapeString(l.Name)+`">`+tree(l.Placeholders)+`</p:cSld></p:sldLayout>`)
		add(fmt.Sprintf("ppt/slideLayouts/_rels/slideLayout%d.xml.rels", i+1),
			xmlHeader+`<Relationships xmlns="`+nsRels+`"><Relationship Id="rId1" Type="`+relBase+`/slideMaster" Target="../slideMasters/slideMaster1.xml"/></Relationships>`)
	}

	for i, s := range spec.Slides {
		add(fmt.Sprintf("ppt/slides/slide%d.xml", i+1),
			xmlHeader+`<p:sld `+nsDecl+`><p:cSld>`+tree(s.Placeholders)+`</p:cSld></p:sld>`)
		add(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1),
			fmt.Sprintf(xmlHeader+`<Relationships xmlns="%s"><Relationship Id="rId1" Type="%s/slideLayout" Target="../slideLayouts/slideLayout%d.xml"/></Relationships>`, nsRels, relBase, s.Layout+1))
	}

	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Write builds spec into dir/name and returns the path.
func Write(t testing.TB, dir, name string, spec Spec) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(spec), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	nsRels    = "http://schemas.openxmlformats.org/package/2006/relationships"
	relBase   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsDecl    = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
)

func tree(phs []PH) string {
	var b strings.Builder
	b.WriteString(`<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	for i, ph := range phs {
		var attrs string
		if ph.Type != "" {
			attrs += ` type="` + ph.Type + `"`
		}
		if ph.Idx != 0 {
			attrs += fmt.Sprintf(` idx="%d"`, ph.Idx)
		}
		name := ph.Name
		if name == "" {
			name = fmt.Sprintf("Placeholder %d", i+1)
		}
		para := `<a:p/>`
		if ph.Text != "" {
			para = `<a:p><a:r><a:rPr lang="en-US"/><a:t>` + html.EscapeString(ph.Text) + `</a:t></a:r></a:p>`
		}
		fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph%s/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/>%s</p:txBody></p:sp>`,
			i+2, html.EscapeString(name), attrs, para)
	}
	b.WriteString(`</p:spTree>`)
	return b.String()
}
