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

// Package ooxml holds the zip and relationship plumbing shared by the DOCX packages.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// WordprocessingML namespaces.
const (
	NSWordprocessingML = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NSRelDoc           = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSOMML             = "http://schemas.openxmlformats.org/officeDocument/2006/math"
	NSDrawingML        = "http://schemas.openxmlformats.org/drawingml/2006/main"
)

// Well-known part names inside a DOCX package.
const (
	PartDocument  = "word/document.xml"
	PartStyles    = "word/styles.xml"
	PartNumbering = "word/numbering.xml"
	PartFootnotes = "word/footnotes.xml"
	PartEndnotes  = "word/endnotes.xml"
	PartDocRels   = "word/_rels/document.xml.rels"
)

// ErrPartNotFound is returned when a named part is missing from the package.
var ErrPartNotFound = errors.New("part not found")

// Relationship is one entry of a .rels part.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// External reports whether the relationship points outside the package.
func (r Relationship) External() bool {
	return strings.EqualFold(r.TargetMode, "External")
}

type relationships struct {
	XMLName       xml.Name       `xml:"Relationships"`
	Relationships []Relationship `xml:"Relationship"`
}

// Package is an opened OOXML zip archive.
type Package struct {
	zr *zip.Reader
}

// Open reads an OOXML package from r.
func Open(r io.Reader) (*Package, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read package: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open package zip: %w", err)
	}
	return &Package{zr: zr}, nil
}

// Zip exposes the underlying archive.
func (p *Package) Zip() *zip.Reader {
	return p.zr
}

// Has reports whether the package contains the named part.
func (p *Package) Has(name string) bool {
	return p.find(name) != nil
}

// Read returns the contents of the named part.
func (p *Package) Read(name string) ([]byte, error) {
	f := p.find(name)
	if f == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrPartNotFound)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Relationships parses the .rels part belonging to partName. A missing
// .rels part yields an empty map.
func (p *Package) Relationships(partName string) (map[string]Relationship, error) {
	data, err := p.Read(RelsPathFor(partName))
	if errors.Is(err, ErrPartNotFound) {
		return map[string]Relationship{}, nil
	}
	if err != nil {
		return nil, err
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("decode relationships: %w", err)
	}
	result := make(map[string]Relationship, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		result[rel.ID] = rel
	}
	return result, nil
}

func (p *Package) find(name string) *zip.File {
	name = strings.TrimPrefix(name, "/")
	for _, f := range p.zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// RelsPathFor returns the .rels path for a given part.
func RelsPathFor(partName string) string {
	dir := path.Dir(partName)
	base := path.Base(partName)
	if dir == "." {
		return "_rels/" + base + ".rels"
	}
	return dir + "/_rels/" + base + ".rels"
}

// ResolveTarget resolves a relationship target against the part that owns it.
func ResolveTarget(partName, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(partName), target)
}

// Attr returns the value of the attribute with the given local name.
func Attr(el xml.StartElement, local string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// AttrNS returns the value of the attribute with the given namespace and local name.
func AttrNS(el xml.StartElement, space, local string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Toggle interprets an on/off property such as <w:b/> or <w:b w:val="false"/>.
func Toggle(el xml.StartElement) bool {
	v, ok := Attr(el, "val")
	if !ok {
		return true
	}
	switch strings.ToLower(v) {
	case "0", "false", "off", "none":
		return false
	}
	return true
}
