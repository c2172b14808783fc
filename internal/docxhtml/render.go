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
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
)

const rootTag = "#root"

var voidTags = map[string]bool{"img": true, "br": true}

// node is an HTML element or, when tag is empty, a text node.
type node struct {
	tag      string
	attrs    [][2]string
	text     string
	fresh    bool
	children []*node
}

func sameAttrs(a, b [][2]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// appendChild adds c, merging adjacent text and adjacent collapsible
// elements with the same tag and attributes.
func (n *node) appendChild(c *node) {
	if len(n.children) > 0 {
		last := n.children[len(n.children)-1]
		if c.tag == "" && last.tag == "" {
			last.text += c.text
			return
		}
		if c.tag != "" && c.tag == last.tag && !c.fresh && !last.fresh && !voidTags[c.tag] && sameAttrs(c.attrs, last.attrs) {
			for _, gc := range c.children {
				last.appendChild(gc)
			}
			return
		}
	}
	n.children = append(n.children, c)
}

func (n *node) write(b *strings.Builder) {
	switch n.tag {
	case "":
		b.WriteString(html.EscapeString(n.text))
		return
	case rootTag:
		for _, c := range n.children {
			c.write(b)
		}
		return
	}
	b.WriteString("<" + n.tag)
	for _, a := range n.attrs {
		fmt.Fprintf(b, ` %s="%s"`, a[0], html.EscapeString(a[1]))
	}
	if voidTags[n.tag] {
		b.WriteString(" />")
		return
	}
	b.WriteString(">")
	for _, c := range n.children {
		c.write(b)
	}
	b.WriteString("</" + n.tag + ">")
}

type noteKey struct {
	kind string
	id   string
}

type renderer struct {
	styleMap     StyleMap
	convertImage ImageConverter
	numbering    numbering
	notes        map[string]map[string][]block
	noteOrder    []noteKey
	noteIndex    map[noteKey]int
	warn         func(string)
}

func (r *renderer) renderBlocks(parent *node, blocks []block) error {
	var stack []*node
	for _, b := range blocks {
		switch b := b.(type) {
		case *paragraph:
			path, ignore := r.paragraphPath(b)
			if ignore {
				continue
			}
			children, err := r.renderInlines(b.children)
			if err != nil {
				return err
			}
			if len(children) == 0 {
				continue
			}
			if len(path) == 0 {
				stack = nil
				for _, c := range children {
					parent.appendChild(c)
				}
				continue
			}
			var merged bool
			stack, merged = openPath(parent, stack, path)
			target := stack[len(stack)-1]
			if merged && len(target.children) > 0 {
				if target.tag == "pre" {
					target.appendChild(&node{text: "\n"})
				} else {
					target.appendChild(&node{tag: "br"})
				}
			}
			for _, c := range children {
				target.appendChild(c)
			}
		case *table:
			stack = nil
			t, err := r.renderTable(b)
			if err != nil {
				return err
			}
			parent.children = append(parent.children, t)
		}
	}
	return nil
}

// openPath reuses the open elements that match the leading non-fresh part
// of path and opens the rest. merged reports that no element was opened.
func openPath(parent *node, stack []*node, path []pathElement) ([]*node, bool) {
	i := 0
	for i < len(stack) && i < len(path) && !path[i].fresh &&
		stack[i].tag == path[i].tag && sameAttrs(stack[i].attrs, path[i].attrs()) {
		i++
	}
	stack = stack[:i]
	merged := i == len(path)
	for j := i; j < len(path); j++ {
		el := &node{tag: path[j].tag, attrs: path[j].attrs(), fresh: path[j].fresh}
		if j == 0 {
			parent.children = append(parent.children, el)
		} else {
			stack[j-1].children = append(stack[j-1].children, el)
		}
		stack = append(stack, el)
	}
	return stack, merged
}

func (r *renderer) paragraphPath(p *paragraph) ([]pathElement, bool) {
	if rule, ok := r.styleMap.find(matchParagraph, p.styleID, p.styleName); ok {
		return rule.path, rule.ignore
	}
	if p.isList() && r.numbering.has(p.numID, p.level) {
		return r.listPath(p), false
	}
	if p.styleID != "" {
		r.warn(fmt.Sprintf("Unrecognised paragraph style: '%s' (Style ID: %s)", p.styleName, p.styleID))
	}
	return []pathElement{{tag: "p", fresh: true}}, false
}

func (r *renderer) listPath(p *paragraph) []pathElement {
	var path []pathElement
	for lvl := 0; lvl <= p.level; lvl++ {
		tag := "ul"
		if r.numbering.ordered(p.numID, lvl) {
			tag = "ol"
		}
		path = append(path, pathElement{tag: tag}, pathElement{tag: "li", fresh: lvl == p.level})
	}
	return path
}

func (r *renderer) renderInlines(inlines []inline) ([]*node, error) {
	holder := &node{tag: rootTag}
	for _, in := range inlines {
		switch v := in.(type) {
		case text:
			if v != "" {
				holder.appendChild(&node{text: string(v)})
			}
		case tab:
			holder.appendChild(&node{text: "\t"})
		case lineBreak:
			holder.appendChild(&node{tag: "br"})
		case *run:
			nodes, err := r.renderRun(v)
			if err != nil {
				return nil, err
			}
			for _, n := range nodes {
				holder.appendChild(n)
			}
		case *hyperlink:
			children, err := r.renderInlines(v.children)
			if err != nil {
				return nil, err
			}
			if len(children) == 0 {
				continue
			}
			if v.href == "" {
				for _, c := range children {
					holder.appendChild(c)
				}
				continue
			}
			a := &node{tag: "a", attrs: [][2]string{{"href", v.href}}}
			for _, c := range children {
				a.appendChild(c)
			}
			holder.appendChild(a)
		case *image:
			img, err := r.renderImage(v.img)
			if err != nil {
				return nil, err
			}
			holder.appendChild(img)
		case noteRef:
			if ref := r.renderNoteRef(v); ref != nil {
				holder.appendChild(ref)
			}
		}
	}
	return holder.children, nil
}

func (r *renderer) renderRun(rn *run) ([]*node, error) {
	children, err := r.renderInlines(rn.children)
	if err != nil || len(children) == 0 {
		return nil, err
	}
	wrap := func(path []pathElement) {
		for i := len(path) - 1; i >= 0; i-- {
			el := &node{tag: path[i].tag, attrs: path[i].attrs(), fresh: path[i].fresh}
			for _, c := range children {
				el.appendChild(c)
			}
			children = []*node{el}
		}
	}
	format := func(kind matchKind) {
		if rule, ok := r.styleMap.find(kind, "", ""); ok && !rule.ignore {
			wrap(rule.path)
		}
	}

	switch rn.vertAlign {
	case "superscript":
		wrap([]pathElement{{tag: "sup"}})
	case "subscript":
		wrap([]pathElement{{tag: "sub"}})
	}
	if rn.strike {
		format(matchStrike)
	}
	if rn.underline {
		format(matchUnderline)
	}
	if rn.italic {
		format(matchItalic)
	}
	if rn.bold {
		format(matchBold)
	}
	if rn.styleID != "" {
		rule, ok := r.styleMap.find(matchRun, rn.styleID, rn.styleName)
		switch {
		case !ok:
			r.warn(fmt.Sprintf("Unrecognised run style: '%s' (Style ID: %s)", rn.styleName, rn.styleID))
		case rule.ignore:
			return nil, nil
		default:
			wrap(rule.path)
		}
	}
	return children, nil
}

func (r *renderer) renderImage(img Image) (*node, error) {
	convert := r.convertImage
	if convert == nil {
		convert = DataURI
	}
	converted, err := convert(img)
	if err != nil {
		return nil, fmt.Errorf("convert image %s: %w", img.Name, err)
	}
	attrs := make(map[string]string, len(converted)+1)
	for k, v := range converted {
		attrs[k] = v
	}
	if _, ok := attrs["alt"]; !ok && img.AltText != "" {
		attrs["alt"] = img.AltText
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	el := &node{tag: "img", fresh: true}
	for _, k := range keys {
		el.attrs = append(el.attrs, [2]string{k, attrs[k]})
	}
	return el, nil
}

func (r *renderer) renderNoteRef(ref noteRef) *node {
	key := noteKey{kind: ref.kind, id: ref.id}
	if _, ok := r.notes[ref.kind][ref.id]; !ok {
		r.warn(fmt.Sprintf("%s %s is referenced but missing", ref.kind, ref.id))
		return nil
	}
	n, ok := r.noteIndex[key]
	if !ok {
		r.noteOrder = append(r.noteOrder, key)
		n = len(r.noteOrder)
		r.noteIndex[key] = n
	}
	anchor := ref.kind + "-" + ref.id
	a := &node{
		tag:   "a",
		fresh: true,
		attrs: [][2]string{{"href", "#" + anchor}, {"id", anchor + "-ref"}},
		children: []*node{
			{text: "[" + strconv.Itoa(n) + "]"},
		},
	}
	return &node{tag: "sup", fresh: true, children: []*node{a}}
}

// renderNotes appends the referenced footnotes and endnotes as an ordered list.
func (r *renderer) renderNotes(parent *node) error {
	if len(r.noteOrder) == 0 {
		return nil
	}
	list := &node{tag: "ol"}
	for i := 0; i < len(r.noteOrder); i++ {
		key := r.noteOrder[i]
		anchor := key.kind + "-" + key.id
		li := &node{tag: "li", attrs: [][2]string{{"id", anchor}}}
		if err := r.renderBlocks(li, r.notes[key.kind][key.id]); err != nil {
			return err
		}
		back := &node{tag: "a", fresh: true, attrs: [][2]string{{"href", "#" + anchor + "-ref"}}, children: []*node{{text: "↑"}}}
		target := li
		if n := len(li.children); n > 0 && li.children[n-1].tag == "p" {
			target = li.children[n-1]
		}
		target.appendChild(&node{text: " "})
		target.appendChild(back)
		list.children = append(list.children, li)
	}
	parent.children = append(parent.children, list)
	return nil
}

func (r *renderer) renderTable(t *table) (*node, error) {
	tbl := &node{tag: "table", fresh: true}
	for i, row := range t.rows {
		tr := &node{tag: "tr", fresh: true}
		cellTag := "td"
		if i == 0 || row.header {
			cellTag = "th"
		}
		for _, c := range row.cells {
			cell := &node{tag: cellTag, fresh: true}
			if c.colSpan > 1 {
				cell.attrs = [][2]string{{"colspan", strconv.Itoa(c.colSpan)}}
			}
			if err := r.renderBlocks(cell, c.blocks); err != nil {
				return nil, err
			}
			unwrapParagraphs(cell)
			tr.children = append(tr.children, cell)
		}
		tbl.children = append(tbl.children, tr)
	}
	return tbl, nil
}

// unwrapParagraphs flattens cells that hold only plain paragraphs so table
// rows stay on one Markdown line.
func unwrapParagraphs(cell *node) {
	for _, c := range cell.children {
		if c.tag != "p" || len(c.attrs) > 0 {
			return
		}
	}
	paras := cell.children
	cell.children = nil
	for i, p := range paras {
		if i > 0 {
			cell.appendChild(&node{tag: "br"})
		}
		for _, c := range p.children {
			cell.appendChild(c)
		}
	}
}
