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

// Package docxhtml converts WordprocessingML packages to semantic HTML.
//
// Paragraph and run styles are mapped to HTML through a style map written in
// the mammoth syntax, for example:
//
//	p[style-name='Section Title'] => h1:fresh
//	p[style-name='Quote'] => blockquote > p:fresh
//	r[style-name='Code'] => code
//	b => strong
//
// Caller rules are consulted before DefaultStyleMap. Embedded images are
// inlined as data URIs unless an ImageConverter is supplied.
package docxhtml

import (
	"fmt"
	"io"
	"strings"

	"github.com/nicholasgasior/markitdown-docx/internal/ooxml"
)

// Options controls a conversion.
type Options struct {
	// StyleMap holds extra style map rules, one per line.
	StyleMap string
	// ConvertImage overrides how embedded images are emitted.
	ConvertImage ImageConverter
	// IgnoreDefaultStyleMap drops DefaultStyleMap so only StyleMap applies.
	IgnoreDefaultStyleMap bool
}

// Result is the HTML produced for a document plus any warnings raised on the way.
type Result struct {
	HTML     string
	Messages []string
}

// Convert reads a DOCX package from r and renders its body as HTML.
func Convert(r io.Reader, opts Options) (*Result, error) {
	pkg, err := ooxml.Open(r)
	if err != nil {
		return nil, err
	}

	var messages []string
	seen := map[string]bool{}
	warn := func(msg string) {
		if !seen[msg] {
			seen[msg] = true
			messages = append(messages, msg)
		}
	}

	styleMap, warnings := ParseStyleMap(opts.StyleMap)
	for _, w := range warnings {
		warn(w)
	}
	if !opts.IgnoreDefaultStyleMap {
		styleMap = styleMap.Append(defaultStyleMap)
	}

	st, err := readStyles(pkg)
	if err != nil {
		return nil, err
	}
	num, err := readNumbering(pkg)
	if err != nil {
		return nil, err
	}

	docData, err := pkg.Read(ooxml.PartDocument)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	body, err := newPartParser(pkg, ooxml.PartDocument, st, warn)
	if err != nil {
		return nil, err
	}
	blocks, err := body.parseBody(docData)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ooxml.PartDocument, err)
	}

	notes := map[string]map[string][]block{}
	for _, part := range []struct{ name, element string }{
		{ooxml.PartFootnotes, "footnote"},
		{ooxml.PartEndnotes, "endnote"},
	} {
		parsed, err := readNotes(pkg, part.name, part.element, st, warn)
		if err != nil {
			return nil, err
		}
		notes[part.element] = parsed
	}

	rnd := &renderer{
		styleMap:     styleMap,
		convertImage: opts.ConvertImage,
		numbering:    num,
		notes:        notes,
		noteIndex:    map[noteKey]int{},
		warn:         warn,
	}
	root := &node{tag: rootTag}
	if err := rnd.renderBlocks(root, blocks); err != nil {
		return nil, err
	}
	if err := rnd.renderNotes(root); err != nil {
		return nil, err
	}

	var b strings.Builder
	root.write(&b)
	return &Result{HTML: b.String(), Messages: messages}, nil
}

func readNotes(pkg *ooxml.Package, part, element string, st styles, warn func(string)) (map[string][]block, error) {
	if !pkg.Has(part) {
		return map[string][]block{}, nil
	}
	data, err := pkg.Read(part)
	if err != nil {
		return nil, err
	}
	p, err := newPartParser(pkg, part, st, warn)
	if err != nil {
		return nil, err
	}
	notes, err := p.parseNotes(data, element)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", part, err)
	}
	return notes, nil
}
