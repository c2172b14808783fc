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

// Package mock provides function-field implementations of the markitdown
// interfaces for tests.
package mock

import (
	"io"

	markitdown "github.com/nicholasgasior/markitdown-docx"
)

var (
	_ markitdown.DocumentConverter = (*Converter)(nil)
	_ markitdown.HTMLRenderer      = (*Renderer)(nil)
	_ markitdown.DocxTransformer   = (*Transformer)(nil)
)

// Converter is a mock implementation of markitdown.DocumentConverter.
type Converter struct {
	AcceptsFn func(info markitdown.StreamInfo) bool
	ConvertFn func(reader io.ReadSeeker, info markitdown.StreamInfo, opts markitdown.ConvertOptions) (*markitdown.DocumentConverterResult, error)
}

func (c *Converter) Accepts(info markitdown.StreamInfo) bool {
	return c.AcceptsFn(info)
}

func (c *Converter) Convert(reader io.ReadSeeker, info markitdown.StreamInfo, opts markitdown.ConvertOptions) (*markitdown.DocumentConverterResult, error) {
	return c.ConvertFn(reader, info, opts)
}

// Renderer is a mock implementation of markitdown.HTMLRenderer.
type Renderer struct {
	RenderHTMLFn func(html string, opts markitdown.ConvertOptions) (*markitdown.DocumentConverterResult, error)
}

func (r *Renderer) RenderHTML(html string, opts markitdown.ConvertOptions) (*markitdown.DocumentConverterResult, error) {
	return r.RenderHTMLFn(html, opts)
}

// Transformer is a mock implementation of markitdown.DocxTransformer. When
// AvailableFn is set it is consulted as the availability check.
type Transformer struct {
	TransformToHTMLFn func(r io.Reader, opts markitdown.DocxOptions) (string, error)
	AvailableFn       func() error
}

func (t *Transformer) TransformToHTML(r io.Reader, opts markitdown.DocxOptions) (string, error) {
	return t.TransformToHTMLFn(r, opts)
}

func (t *Transformer) Available() error {
	if t.AvailableFn == nil {
		return nil
	}
	return t.AvailableFn()
}
