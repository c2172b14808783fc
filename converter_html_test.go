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

package markitdown_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	markitdown "github.com/nicholasgasior/markitdown-docx"
)

func TestHTMLConverter_Accepts(t *testing.T) {
	t.Parallel()

	c := markitdown.NewHTMLConverter()
	tests := []struct {
		name string
		info markitdown.StreamInfo
		want bool
	}{
		{"html by ext", markitdown.StreamInfo{Extension: ".html"}, true},
		{"htm upper case", markitdown.StreamInfo{Extension: ".HTM"}, true},
		{"html by mime", markitdown.StreamInfo{MIMEType: "text/html; charset=utf-8"}, true},
		{"xhtml by mime", markitdown.StreamInfo{MIMEType: "application/xhtml+xml"}, true},
		{"docx", markitdown.StreamInfo{Extension: ".docx"}, false},
		{"plain text", markitdown.StreamInfo{MIMEType: "text/plain"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, c.Accepts(tt.info))
		})
	}
}

func TestHTMLConverter_RenderHTML(t *testing.T) {
	t.Parallel()

	c := markitdown.NewHTMLConverter()
	render := func(t *testing.T, html string, opts markitdown.ConvertOptions) *markitdown.DocumentConverterResult {
		t.Helper()
		res, err := c.RenderHTML(html, opts)
		require.NoError(t, err)
		return res
	}

	t.Run("title element wins", func(t *testing.T) {
		t.Parallel()

		res := render(t, `<html><head><title> Doc </title></head><body><h1>Heading</h1></body></html>`, markitdown.ConvertOptions{})
		assert.Equal(t, "Doc", res.Title)
		assert.Equal(t, "# Heading", strings.TrimSpace(res.Markdown))
	})

	t.Run("title from first heading", func(t *testing.T) {
		t.Parallel()

		res := render(t, `<h2>Intro</h2><h1>Heading <em>one</em></h1><h1>Other</h1>`, markitdown.ConvertOptions{})
		assert.Equal(t, "Heading one", res.Title)
	})

	t.Run("no heading no title", func(t *testing.T) {
		t.Parallel()

		res := render(t, `<p>just text</p>`, markitdown.ConvertOptions{})
		assert.Empty(t, res.Title)
	})

	t.Run("scripts and styles dropped", func(t *testing.T) {
		t.Parallel()

		res := render(t, `<style>p{}</style><p>a</p><script>alert(1)</script><noscript>b</noscript>`, markitdown.ConvertOptions{})
		assert.Equal(t, "a", strings.TrimSpace(res.Markdown))
	})

	t.Run("tables", func(t *testing.T) {
		t.Parallel()

		res := render(t, `<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>`, markitdown.ConvertOptions{})
		assert.Contains(t, res.Markdown, "| A | B |")
		assert.Contains(t, res.Markdown, "| 1 | 2 |")
	})

	long := "data:image/png;base64," + strings.Repeat("QUJD", 32)

	t.Run("long data URIs truncated", func(t *testing.T) {
		t.Parallel()

		res := render(t, `<img alt="x" src="`+long+`">`, markitdown.ConvertOptions{})
		assert.Equal(t, "![x](data:image/png;base64,...)", strings.TrimSpace(res.Markdown))
	})

	t.Run("long data URIs kept", func(t *testing.T) {
		t.Parallel()

		res := render(t, `<img alt="x" src="`+long+`">`, markitdown.ConvertOptions{KeepDataURIs: true})
		assert.Contains(t, res.Markdown, long)
	})

	t.Run("short data URIs untouched", func(t *testing.T) {
		t.Parallel()

		res := render(t, `<img alt="x" src="data:image/gif;base64,R0lGOD">`, markitdown.ConvertOptions{})
		assert.Contains(t, res.Markdown, "data:image/gif;base64,R0lGOD")
	})
}
