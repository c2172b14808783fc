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

// Package pandoc implements markitdown.DocxTransformer on top of the pandoc
// executable.
package pandoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	markitdown "github.com/nicholasgasior/markitdown-docx"
)

var _ markitdown.DocxTransformer = (*Transformer)(nil)

// DefaultTimeout bounds a single pandoc run.
const DefaultTimeout = 2 * time.Minute

// ErrStyleMapUnsupported is returned when a conversion asks for a style map.
var ErrStyleMapUnsupported = errors.New("pandoc: style maps are not supported")

// Transformer converts DOCX to HTML by running pandoc.
type Transformer struct {
	binary  string
	timeout time.Duration
	lookErr error
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithBinary sets the pandoc executable name or path.
func WithBinary(name string) Option {
	return func(t *Transformer) {
		t.binary = name
	}
}

// WithTimeout bounds each pandoc run.
func WithTimeout(d time.Duration) Option {
	return func(t *Transformer) {
		t.timeout = d
	}
}

// New resolves the pandoc executable. A missing executable is reported by
// Available rather than here.
func New(opts ...Option) *Transformer {
	t := &Transformer{binary: "pandoc", timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(t)
	}
	path, err := exec.LookPath(t.binary)
	if err != nil {
		t.lookErr = fmt.Errorf("pandoc: %w", err)
		return t
	}
	t.binary = path
	return t
}

// Available reports whether the pandoc executable was found.
func (t *Transformer) Available() error {
	return t.lookErr
}

// TransformToHTML runs pandoc on the DOCX stream. Extracted media are passed
// to opts.ConvertImage, or inlined as data URIs when it is nil.
func (t *Transformer) TransformToHTML(r io.Reader, opts markitdown.DocxOptions) (string, error) {
	if t.lookErr != nil {
		return "", t.lookErr
	}
	if opts.StyleMap != "" {
		return "", ErrStyleMapUnsupported
	}

	dir, err := os.MkdirTemp("", "markitdown-pandoc-*")
	if err != nil {
		return "", fmt.Errorf("pandoc: create work dir: %w", err)
	}
	defer os.RemoveAll(dir)
	if dir, err = filepath.Abs(dir); err != nil {
		return "", fmt.Errorf("pandoc: %w", err)
	}

	input := filepath.Join(dir, "input.docx")
	if err := writeFile(input, r); err != nil {
		return "", fmt.Errorf("pandoc: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary,
		"--from=docx",
		"--to=html",
		"--extract-media="+dir,
		input,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("pandoc: %w", ctx.Err())
		}
		return "", fmt.Errorf("pandoc: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	convert := opts.ConvertImage
	if convert == nil {
		convert = markitdown.DataURI
	}
	return embedImages(stdout.String(), dir, convert)
}

func writeFile(name string, r io.Reader) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// embedImages replaces each <img> that points into dir with the attributes
// returned by convert. Pandoc writes extracted media as absolute paths
// because dir is absolute; anything else is left untouched.
func embedImages(fragment, dir string, convert markitdown.ImageConverter) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("pandoc: parse output: %w", err)
	}

	var convErr error
	doc.Find("img[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		name := filepath.Clean(src)
		if !filepath.IsAbs(name) {
			return true
		}
		rel, err := filepath.Rel(dir, name)
		if err != nil || strings.HasPrefix(rel, "..") {
			return true
		}
		data, err := os.ReadFile(name)
		if err != nil {
			convErr = fmt.Errorf("pandoc: read media %s: %w", rel, err)
			return false
		}
		alt, _ := sel.Attr("alt")
		attrs, err := convert(markitdown.NewImage(filepath.Base(name), "", alt, data))
		if err != nil {
			convErr = fmt.Errorf("convert image %s: %w", filepath.Base(name), err)
			return false
		}
		sel.RemoveAttr("src")
		for k, v := range attrs {
			sel.SetAttr(k, v)
		}
		return true
	})
	if convErr != nil {
		return "", convErr
	}

	return doc.Find("body").Html()
}
