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

package markitdown

import (
	"io"
	"log/slog"
	"strings"

	"github.com/nicholasgasior/markitdown-docx/internal/docxhtml"
	"github.com/nicholasgasior/markitdown-docx/internal/docxpre"
)

// DocxOptionsKey is the ConvertOptions.Extra key read by DocxConverter.
const DocxOptionsKey = "docx"

// DocxOptions configures the DOCX to HTML step: an extra style map and an
// optional image converter.
type DocxOptions = docxhtml.Options

// Image is an image embedded in a DOCX document.
type Image = docxhtml.Image

// ImageConverter maps an embedded image to the attributes of its <img> tag.
type ImageConverter = docxhtml.ImageConverter

// NewImage creates an Image. An empty contentType is sniffed from data.
func NewImage(name, contentType, altText string, data []byte) Image {
	return docxhtml.NewImage(name, contentType, altText, data)
}

// DataURI is the default ImageConverter. It inlines the image as a base64
// data URI.
func DataURI(img Image) (map[string]string, error) {
	return docxhtml.DataURI(img)
}

// DocxTransformer turns a DOCX stream into HTML.
type DocxTransformer interface {
	TransformToHTML(r io.Reader, opts DocxOptions) (string, error)
}

// availabilityChecker is implemented by transformers that rely on something
// outside the process, such as an executable.
type availabilityChecker interface {
	Available() error
}

var (
	docxExtensions   = []string{".docx"}
	docxMIMEPrefixes = []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
)

// DocxConverter handles DOCX files. Headings, lists, tables, links, images
// and notes are preserved where possible.
type DocxConverter struct {
	renderer    HTMLRenderer
	transformer DocxTransformer
	preprocess  func(io.Reader) (io.Reader, error)
	defaults    DocxOptions
	logger      *slog.Logger

	// depErr is fixed at construction; non-nil means every Convert fails.
	depErr error
}

// DocxOption configures a DocxConverter.
type DocxOption func(*DocxConverter)

// WithDocxDefaults sets the options used when a call carries none.
func WithDocxDefaults(opts DocxOptions) DocxOption {
	return func(c *DocxConverter) {
		c.defaults = opts
	}
}

// WithDocxPreprocessor replaces the math pre-processing step.
func WithDocxPreprocessor(fn func(io.Reader) (io.Reader, error)) DocxOption {
	return func(c *DocxConverter) {
		c.preprocess = fn
	}
}

// WithDocxLogger sets the logger used for dependency diagnostics.
func WithDocxLogger(logger *slog.Logger) DocxOption {
	return func(c *DocxConverter) {
		c.logger = logger
	}
}

// NewDocxConverter creates a DocxConverter that hands transformer output to
// renderer. A nil transformer, or one whose Available check fails, leaves
// the converter permanently unable to convert.
func NewDocxConverter(renderer HTMLRenderer, transformer DocxTransformer, opts ...DocxOption) *DocxConverter {
	c := &DocxConverter{
		renderer:    renderer,
		transformer: transformer,
		preprocess:  docxpre.Process,
		logger:      discardLogger,
	}
	for _, opt := range opts {
		opt(c)
	}

	switch t := transformer.(type) {
	case nil:
		c.depErr = ErrTransformerUnavailable
	case availabilityChecker:
		c.depErr = t.Available()
	}
	if c.depErr != nil {
		c.logger.Debug("docx transformer unavailable", "err", c.depErr)
	}
	return c
}

func (c *DocxConverter) Accepts(info StreamInfo) bool {
	ext := strings.ToLower(info.Extension)
	for _, e := range docxExtensions {
		if ext == e {
			return true
		}
	}
	mime := strings.ToLower(info.MIMEType)
	for _, prefix := range docxMIMEPrefixes {
		if strings.HasPrefix(mime, prefix) {
			return true
		}
	}
	return false
}

// Convert transforms the DOCX stream to HTML and renders it. Errors from the
// transformer and the renderer are returned as is. The reader is not closed.
func (c *DocxConverter) Convert(reader io.ReadSeeker, info StreamInfo, opts ConvertOptions) (*DocumentConverterResult, error) {
	if c.depErr != nil {
		return nil, &MissingDependencyError{
			Converter: "DocxConverter",
			Extension: ".docx",
			Feature:   "docx",
			Err:       c.depErr,
		}
	}

	stream, err := c.preprocess(reader)
	if err != nil {
		return nil, err
	}

	html, err := c.transformer.TransformToHTML(stream, c.docxOptions(opts))
	if err != nil {
		return nil, err
	}

	return c.renderer.RenderHTML(html, opts)
}

// docxOptions overlays the per-call options on the converter defaults.
func (c *DocxConverter) docxOptions(opts ConvertOptions) DocxOptions {
	merged := c.defaults
	v, ok := opts.Lookup(DocxOptionsKey)
	if !ok {
		return merged
	}
	var call DocxOptions
	switch o := v.(type) {
	case DocxOptions:
		call = o
	case *DocxOptions:
		if o == nil {
			return merged
		}
		call = *o
	default:
		return merged
	}
	if call.StyleMap != "" {
		merged.StyleMap = call.StyleMap
	}
	if call.ConvertImage != nil {
		merged.ConvertImage = call.ConvertImage
	}
	merged.IgnoreDefaultStyleMap = merged.IgnoreDefaultStyleMap || call.IgnoreDefaultStyleMap
	return merged
}

// NativeTransformer is the built-in DocxTransformer.
type NativeTransformer struct {
	logger *slog.Logger
}

// NewNativeTransformer creates a NativeTransformer. Conversion warnings such
// as unrecognised styles are logged at debug level.
func NewNativeTransformer(logger *slog.Logger) *NativeTransformer {
	if logger == nil {
		logger = discardLogger
	}
	return &NativeTransformer{logger: logger}
}

func (t *NativeTransformer) TransformToHTML(r io.Reader, opts DocxOptions) (string, error) {
	res, err := docxhtml.Convert(r, opts)
	if err != nil {
		return "", err
	}
	for _, msg := range res.Messages {
		t.logger.Debug("docx transform", "warning", msg)
	}
	return res.HTML, nil
}
