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

// Package markitdown converts documents to Markdown. DOCX files are turned
// into HTML and rendered by the shared HTML converter; HTML input is handled
// directly.
package markitdown

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// PrioritySpecific is for format-specific converters such as DOCX.
	PrioritySpecific = 0.0
	// PriorityGeneric is for fallback converters such as HTML.
	PriorityGeneric = 10.0
)

var discardLogger = slog.New(slog.DiscardHandler)

type registeredConverter struct {
	converter DocumentConverter
	priority  float64
	name      string
}

// MarkItDown is the main document-to-markdown conversion engine.
type MarkItDown struct {
	converters     []registeredConverter
	keepDataURIs   bool
	docx           DocxOptions
	transformer    DocxTransformer
	transformerSet bool
	logger         *slog.Logger
	wrap           func(name string, c DocumentConverter) DocumentConverter
	httpClient     *http.Client
}

// New creates a new MarkItDown instance with the given options.
func New(opts ...Option) *MarkItDown {
	m := &MarkItDown{
		logger:     discardLogger,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.transformerSet {
		m.transformer = NewNativeTransformer(m.logger)
	}
	m.enableBuiltins()
	return m
}

// RegisterConverter adds a custom converter with the given priority.
// Lower priority values are tried first.
func (m *MarkItDown) RegisterConverter(name string, c DocumentConverter, priority float64) {
	if m.wrap != nil {
		c = m.wrap(name, c)
	}
	m.converters = append(m.converters, registeredConverter{
		converter: c,
		priority:  priority,
		name:      name,
	})
	sort.SliceStable(m.converters, func(i, j int) bool {
		return m.converters[i].priority < m.converters[j].priority
	})
}

// Convert auto-detects the source type (file path or URL) and converts it.
func (m *MarkItDown) Convert(source string, opts ...ConvertOption) (*DocumentConverterResult, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return m.ConvertURL(source, opts...)
	}
	return m.ConvertFile(source, opts...)
}

// ConvertFile converts a local file to markdown.
func (m *MarkItDown) ConvertFile(path string, opts ...ConvertOption) (*DocumentConverterResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	info := StreamInfo{
		Extension: ext,
		Filename:  filepath.Base(path),
		LocalPath: path,
	}
	info.MIMEType = detectMIMEType(f, ext)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	return m.ConvertReader(f, info, opts...)
}

// ConvertReader converts a stream to markdown using the provided StreamInfo.
// The MIME type is sniffed from the stream when info leaves it empty.
func (m *MarkItDown) ConvertReader(r io.ReadSeeker, info StreamInfo, opts ...ConvertOption) (*DocumentConverterResult, error) {
	if info.MIMEType == "" {
		info.MIMEType = detectMIMEType(r, strings.ToLower(info.Extension))
	}
	return m.convert(r, info, m.convertOptions(opts))
}

// ConvertURL fetches a URL and converts the response to markdown.
func (m *MarkItDown) ConvertURL(rawURL string, opts ...ConvertOption) (*DocumentConverterResult, error) {
	resp, err := m.httpClient.Get(rawURL) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch URL: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	reader := bytes.NewReader(data)

	info := StreamInfo{URL: rawURL}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, params, err := mime.ParseMediaType(ct); err == nil {
			info.MIMEType = mt
			info.Charset = params["charset"]
		}
	}

	urlPath := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		urlPath = u.Path
	}
	info.Extension = strings.ToLower(path.Ext(urlPath))
	if info.Extension != "" {
		info.Filename = path.Base(urlPath)
	}

	// Servers often label DOCX downloads as a generic binary type.
	if info.MIMEType == "" || info.MIMEType == "application/octet-stream" {
		info.MIMEType = detectMIMEType(reader, info.Extension)
		if _, err := reader.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek: %w", err)
		}
	}

	return m.ConvertReader(reader, info, opts...)
}

func (m *MarkItDown) convertOptions(opts []ConvertOption) ConvertOptions {
	o := ConvertOptions{KeepDataURIs: m.keepDataURIs}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// convert is the internal dispatch method.
func (m *MarkItDown) convert(r io.ReadSeeker, info StreamInfo, opts ConvertOptions) (*DocumentConverterResult, error) {
	var failedAttempts []FailedConversionAttempt

	for _, rc := range m.converters {
		if !rc.converter.Accepts(info) {
			continue
		}

		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek: %w", err)
		}

		result, err := rc.converter.Convert(r, info, opts)
		if err != nil {
			failedAttempts = append(failedAttempts, FailedConversionAttempt{
				Converter: rc.name,
				Err:       err,
			})
			continue
		}

		result.Markdown = normalizeOutput(result.Markdown)
		return result, nil
	}

	if len(failedAttempts) > 0 {
		return nil, &ConversionError{Attempts: failedAttempts}
	}

	return nil, &UnsupportedFormatError{
		Extension: info.Extension,
		MIMEType:  info.MIMEType,
	}
}

// enableBuiltins registers the built-in converters.
func (m *MarkItDown) enableBuiltins() {
	html := NewHTMLConverter()
	docx := NewDocxConverter(html, m.transformer,
		WithDocxDefaults(m.docx),
		WithDocxLogger(m.logger),
	)

	m.RegisterConverter("docx", docx, PrioritySpecific)
	m.RegisterConverter("html", html, PriorityGeneric)
}

// detectMIMEType detects the MIME type from content and extension.
func detectMIMEType(r io.ReadSeeker, ext string) string {
	byExt := mimeFromExtension(ext)
	mtype, err := mimetype.DetectReader(r)
	if err != nil || mtype.Is("application/octet-stream") {
		return byExt
	}
	// A bare zip signature says less than a known extension.
	if mtype.Is("application/zip") && byExt != "application/octet-stream" {
		return byExt
	}
	return mtype.String()
}

// mimeFromExtension returns a MIME type for the extensions this package handles.
func mimeFromExtension(ext string) string {
	switch ext {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".html", ".htm":
		return "text/html"
	case ".xhtml":
		return "application/xhtml+xml"
	}
	return "application/octet-stream"
}
