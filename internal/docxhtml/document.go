// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package docxhtml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/nicholasgasior/markitdown-docx/internal/ooxml"
)

// Document model produced by the parser and consumed by the renderer.

type block interface{ isBlock() }

type paragraph struct {
	styleID   string
	styleName string
	numID     string
	level     int
	children  []inline
}

func (*paragraph) isBlock() {}

func (p *paragraph) isList() bool {
	return p.numID != "" && p.numID != "0"
}

type table struct {
	rows []tableRow
}

func (*table) isBlock() {}

type tableRow struct {
	header bool
	cells  []tableCell
}

type tableCell struct {
	colSpan int
	blocks  []block
}

type inline interface{ isInline() }

type run struct {
	styleID   string
	styleName string
	bold      bool
	italic    bool
	underline bool
	strike    bool
	vertAlign string
	children  []inline
}

type text string
type tab struct{}
type lineBreak struct{}

type hyperlink struct {
	href     string
	children []inline
}

type image struct {
	img Image
}

type noteRef struct {
	kind string
	id   string
}

func (*run) isInline()       {}
func (text) isInline()       {}
func (tab) isInline()        {}
func (lineBreak) isInline()  {}
func (*hyperlink) isInline() {}
func (*image) isInline()     {}
func (noteRef) isInline()    {}

// styleDef is a style from styles.xml.
type styleDef struct {
	name  string
	numID string
	level int
}

type styles struct {
	paragraph map[string]styleDef
	character map[string]styleDef
}

type stylesXML struct {
	Styles []struct {
		Type string `xml:"type,attr"`
		ID   string `xml:"styleId,attr"`
		Name struct {
			Val string `xml:"val,attr"`
		} `xml:"name"`
		NumID struct {
			Val string `xml:"val,attr"`
		} `xml:"pPr>numPr>numId"`
		Ilvl struct {
			Val string `xml:"val,attr"`
		} `xml:"pPr>numPr>ilvl"`
	} `xml:"style"`
}

func readStyles(pkg *ooxml.Package) (styles, error) {
	s := styles{paragraph: map[string]styleDef{}, character: map[string]styleDef{}}
	data, err := pkg.Read(ooxml.PartStyles)
	if errors.Is(err, ooxml.ErrPartNotFound) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	var doc stylesXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return s, fmt.Errorf("parse styles.xml: %w", err)
	}
	for _, st := range doc.Styles {
		def := styleDef{name: st.Name.Val, numID: st.NumID.Val}
		def.level = parseLevel(st.Ilvl.Val)
		switch st.Type {
		case "paragraph":
			s.paragraph[st.ID] = def
		case "character":
			s.character[st.ID] = def
		}
	}
	return s, nil
}

// numbering maps numId → level → number format.
type numbering map[string]map[int]string

type numberingXML struct {
	AbstractNums []struct {
		ID     string `xml:"abstractNumId,attr"`
		Levels []struct {
			Ilvl   string `xml:"ilvl,attr"`
			NumFmt struct {
				Val string `xml:"val,attr"`
			} `xml:"numFmt"`
		} `xml:"lvl"`
	} `xml:"abstractNum"`
	Nums []struct {
		ID       string `xml:"numId,attr"`
		Abstract struct {
			Val string `xml:"val,attr"`
		} `xml:"abstractNumId"`
	} `xml:"num"`
}

func readNumbering(pkg *ooxml.Package) (numbering, error) {
	n := numbering{}
	data, err := pkg.Read(ooxml.PartNumbering)
	if errors.Is(err, ooxml.ErrPartNotFound) {
		return n, nil
	}
	if err != nil {
		return n, err
	}
	var doc numberingXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return n, fmt.Errorf("parse numbering.xml: %w", err)
	}
	abstract := make(map[string]map[int]string, len(doc.AbstractNums))
	for _, an := range doc.AbstractNums {
		levels := make(map[int]string, len(an.Levels))
		for _, lvl := range an.Levels {
			i, err := strconv.Atoi(lvl.Ilvl)
			if err != nil || i < 0 || i > maxListLevel {
				continue
			}
			levels[i] = lvl.NumFmt.Val
		}
		abstract[an.ID] = levels
	}
	for _, num := range doc.Nums {
		if levels, ok := abstract[num.Abstract.Val]; ok {
			n[num.ID] = levels
		}
	}
	return n, nil
}

// maxListLevel is the deepest w:ilvl WordprocessingML defines.
const maxListLevel = 8

// parseLevel reads a w:ilvl value clamped to 0..maxListLevel.
func parseLevel(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return min(n, maxListLevel)
}

// has reports whether numID defines the given level.
func (n numbering) has(numID string, level int) bool {
	_, ok := n[numID][level]
	return ok
}

func (n numbering) ordered(numID string, level int) bool {
	switch f := n[numID][level]; f {
	case "", "bullet", "none":
		return false
	}
	return true
}

// partParser parses the WordprocessingML of one part.
type partParser struct {
	pkg    *ooxml.Package
	part   string
	rels   map[string]ooxml.Relationship
	styles styles
	warn   func(string)
}

func newPartParser(pkg *ooxml.Package, part string, st styles, warn func(string)) (*partParser, error) {
	rels, err := pkg.Relationships(part)
	if err != nil {
		return nil, fmt.Errorf("%s relationships: %w", part, err)
	}
	return &partParser{pkg: pkg, part: part, rels: rels, styles: st, warn: warn}, nil
}

// parseBody returns the blocks of the w:body element.
func (p *partParser) parseBody(data []byte) ([]block, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "body" {
			return p.parseBlocks(dec, "body")
		}
	}
}

// parseNotes returns the footnote or endnote bodies of the part, keyed by id.
func (p *partParser) parseNotes(data []byte, element string) (map[string][]block, error) {
	notes := map[string][]block{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return notes, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != element {
			continue
		}
		switch typ, _ := ooxml.Attr(se, "type"); typ {
		case "separator", "continuationSeparator", "continuationNotice":
			if err := dec.Skip(); err != nil {
				return nil, err
			}
			continue
		}
		id, _ := ooxml.Attr(se, "id")
		blocks, err := p.parseBlocks(dec, element)
		if err != nil {
			return nil, err
		}
		notes[id] = blocks
	}
}

func (p *partParser) parseBlocks(dec *xml.Decoder, end string) ([]block, error) {
	var blocks []block
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				paras, err := p.parseParagraph(dec)
				if err != nil {
					return nil, err
				}
				for _, para := range paras {
					blocks = append(blocks, para)
				}
			case "tbl":
				tbl, err := p.parseTable(dec)
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, tbl)
			case "sectPr", "sdtPr", "sdtEndPr", "bookmarkStart", "bookmarkEnd":
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == end {
				return blocks, nil
			}
		}
	}
}

// parseParagraph returns the paragraph, split into several when it holds
// nested paragraphs such as rewritten display math.
func (p *partParser) parseParagraph(dec *xml.Decoder) ([]*paragraph, error) {
	para := &paragraph{}
	paras := []*paragraph{para}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				if err := p.parseParagraphProps(dec, para); err != nil {
					return nil, err
				}
			case "p":
				nested, err := p.parseParagraph(dec)
				if err != nil {
					return nil, err
				}
				paras = append(paras, nested...)
				para = &paragraph{styleID: para.styleID, styleName: para.styleName}
				paras = append(paras, para)
			case "r":
				r, err := p.parseRun(dec)
				if err != nil {
					return nil, err
				}
				para.children = append(para.children, r)
			case "hyperlink":
				h, err := p.parseHyperlink(dec, t)
				if err != nil {
					return nil, err
				}
				para.children = append(para.children, h)
			case "del", "moveFrom", "sdtPr", "sdtEndPr", "bookmarkStart", "bookmarkEnd",
				"commentRangeStart", "commentRangeEnd", "proofErr", "oMath", "oMathPara":
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				return splitParagraphs(paras), nil
			}
		}
	}
}

// splitParagraphs drops the empty pieces left around nested paragraphs.
func splitParagraphs(paras []*paragraph) []*paragraph {
	if len(paras) == 1 {
		return paras
	}
	kept := paras[:0]
	for _, para := range paras {
		if len(para.children) > 0 {
			kept = append(kept, para)
		}
	}
	return kept
}

func (p *partParser) parseParagraphProps(dec *xml.Decoder, para *paragraph) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pStyle":
				para.styleID, _ = ooxml.Attr(t, "val")
			case "numId":
				para.numID, _ = ooxml.Attr(t, "val")
			case "ilvl":
				v, _ := ooxml.Attr(t, "val")
				para.level = parseLevel(v)
			case "numPr":
				continue
			}
			if err := dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local != "pPr" {
				continue
			}
			if def, ok := p.styles.paragraph[para.styleID]; ok {
				para.styleName = def.name
				if para.numID == "" && def.numID != "" {
					para.numID = def.numID
					para.level = def.level
				}
			}
			return nil
		}
	}
}

func (p *partParser) parseRun(dec *xml.Decoder) (*run, error) {
	r := &run{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				if err := p.parseRunProps(dec, r); err != nil {
					return nil, err
				}
			case "t":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return nil, err
				}
				r.children = append(r.children, text(s))
			case "tab":
				r.children = append(r.children, tab{})
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			case "br":
				if typ, _ := ooxml.Attr(t, "type"); typ != "page" && typ != "column" {
					r.children = append(r.children, lineBreak{})
				}
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			case "cr":
				r.children = append(r.children, lineBreak{})
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			case "noBreakHyphen":
				r.children = append(r.children, text("-"))
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			case "drawing", "pict", "object":
				img, err := p.parseImage(dec, t)
				if err != nil {
					return nil, err
				}
				if img != nil {
					r.children = append(r.children, img)
				}
			case "footnoteReference", "endnoteReference":
				id, _ := ooxml.Attr(t, "id")
				kind := "footnote"
				if t.Name.Local == "endnoteReference" {
					kind = "endnote"
				}
				r.children = append(r.children, noteRef{kind: kind, id: id})
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			case "Fallback", "delText", "instrText", "fldChar", "sym", "softHyphen",
				"lastRenderedPageBreak", "commentReference", "annotationRef":
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "r" {
				return r, nil
			}
		}
	}
}

func (p *partParser) parseRunProps(dec *xml.Decoder, r *run) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rStyle":
				r.styleID, _ = ooxml.Attr(t, "val")
				r.styleName = p.styles.character[r.styleID].name
			case "b":
				r.bold = ooxml.Toggle(t)
			case "i":
				r.italic = ooxml.Toggle(t)
			case "u":
				v, _ := ooxml.Attr(t, "val")
				r.underline = v != "none" && v != "0"
			case "strike", "dstrike":
				r.strike = r.strike || ooxml.Toggle(t)
			case "vertAlign":
				r.vertAlign, _ = ooxml.Attr(t, "val")
			}
			if err := dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == "rPr" {
				return nil
			}
		}
	}
}

func (p *partParser) parseHyperlink(dec *xml.Decoder, start xml.StartElement) (*hyperlink, error) {
	h := &hyperlink{}
	if id, ok := ooxml.AttrNS(start, ooxml.NSRelDoc, "id"); ok {
		if rel, ok := p.rels[id]; ok {
			h.href = rel.Target
		}
	}
	if anchor, ok := ooxml.Attr(start, "anchor"); ok {
		h.href += "#" + anchor
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "r":
				r, err := p.parseRun(dec)
				if err != nil {
					return nil, err
				}
				h.children = append(h.children, r)
			case "del", "proofErr", "bookmarkStart", "bookmarkEnd":
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "hyperlink" {
				return h, nil
			}
		}
	}
}

// parseImage consumes a w:drawing, w:pict or w:object element and resolves
// the image it references.
func (p *partParser) parseImage(dec *xml.Decoder, start xml.StartElement) (*image, error) {
	var relID, descr, title string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "blip":
				if id, ok := ooxml.AttrNS(t, ooxml.NSRelDoc, "embed"); ok {
					relID = id
				} else if id, ok := ooxml.AttrNS(t, ooxml.NSRelDoc, "link"); ok {
					relID = id
				}
			case "imagedata":
				if id, ok := ooxml.AttrNS(t, ooxml.NSRelDoc, "id"); ok {
					relID = id
				}
				if v, ok := ooxml.Attr(t, "title"); ok && title == "" {
					title = v
				}
			case "docPr":
				descr, _ = ooxml.Attr(t, "descr")
				if v, ok := ooxml.Attr(t, "title"); ok && title == "" {
					title = v
				}
			}
		case xml.EndElement:
			depth--
		}
	}
	if relID == "" {
		return nil, nil
	}
	rel, ok := p.rels[relID]
	if !ok {
		p.warn(fmt.Sprintf("could not find image relationship %q in %s", relID, p.part))
		return nil, nil
	}
	if rel.External() {
		p.warn(fmt.Sprintf("linked image %q is not embedded and was skipped", rel.Target))
		return nil, nil
	}
	name := ooxml.ResolveTarget(p.part, rel.Target)
	data, err := p.pkg.Read(name)
	if err != nil {
		p.warn(fmt.Sprintf("could not read image %s: %v", name, err))
		return nil, nil
	}
	alt := descr
	if alt == "" {
		alt = title
	}
	return &image{img: NewImage(name, "", alt, data)}, nil
}

func (p *partParser) parseTable(dec *xml.Decoder) (*table, error) {
	tbl := &table{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				row, err := p.parseRow(dec)
				if err != nil {
					return nil, err
				}
				tbl.rows = append(tbl.rows, row)
			case "tblPr", "tblGrid", "tblPrEx":
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tbl" {
				return tbl, nil
			}
		}
	}
}

func (p *partParser) parseRow(dec *xml.Decoder) (tableRow, error) {
	var row tableRow
	for {
		tok, err := dec.Token()
		if err != nil {
			return row, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tblHeader":
				row.header = ooxml.Toggle(t)
				if err := dec.Skip(); err != nil {
					return row, err
				}
			case "tc":
				cell, err := p.parseCell(dec)
				if err != nil {
					return row, err
				}
				row.cells = append(row.cells, cell)
			case "tblPrEx":
				if err := dec.Skip(); err != nil {
					return row, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tr" {
				return row, nil
			}
		}
	}
}

func (p *partParser) parseCell(dec *xml.Decoder) (tableCell, error) {
	cell := tableCell{colSpan: 1}
	for {
		tok, err := dec.Token()
		if err != nil {
			return cell, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "gridSpan":
				v, _ := ooxml.Attr(t, "val")
				if n, err := strconv.Atoi(v); err == nil && n > 1 {
					cell.colSpan = n
				}
				if err := dec.Skip(); err != nil {
					return cell, err
				}
			case "p":
				paras, err := p.parseParagraph(dec)
				if err != nil {
					return cell, err
				}
				for _, para := range paras {
					cell.blocks = append(cell.blocks, para)
				}
			case "tbl":
				tbl, err := p.parseTable(dec)
				if err != nil {
					return cell, err
				}
				cell.blocks = append(cell.blocks, tbl)
			case "sdtPr", "sdtEndPr":
				if err := dec.Skip(); err != nil {
					return cell, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tc" {
				return cell, nil
			}
		}
	}
}
