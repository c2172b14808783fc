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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nicholasgasior/markitdown-docx/internal/docxtest"
)

func TestNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trailing whitespace",
			input: "hello   \nworld   \n",
			want:  "hello\nworld",
		},
		{
			name:  "multiple newlines",
			input: "hello\n\n\n\n\nworld",
			want:  "hello\n\nworld",
		},
		{
			name:  "crlf",
			input: "hello\r\nworld\r\n",
			want:  "hello\nworld",
		},
		{
			name:  "lone carriage return",
			input: "a\rb",
			want:  "a\nb",
		},
		{
			name:  "control characters",
			input: "hello\x00world\x01test",
			want:  "helloworldtest",
		},
		{
			name:  "tabs survive",
			input: "a\tb",
			want:  "a\tb",
		},
		{
			name:  "invalid utf-8 dropped",
			input: "ok\xffok",
			want:  "okok",
		},
		{
			name:  "blank lines of spaces collapse",
			input: "a\n  \n \n\nb",
			want:  "a\n\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := normalizeOutput(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, normalizeOutput(got))
		})
	}
}

func TestDetectMIMEType(t *testing.T) {
	t.Parallel()

	docx := docxtest.New(docxtest.Para("x")).Bytes(t)

	t.Run("docx by extension", func(t *testing.T) {
		t.Parallel()
		got := detectMIMEType(bytes.NewReader(docx), ".docx")
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", got)
	})

	t.Run("html by content", func(t *testing.T) {
		t.Parallel()
		got := detectMIMEType(strings.NewReader("<html><body><p>x</p></body></html>"), "")
		assert.True(t, strings.HasPrefix(got, "text/html"), got)
	})

	t.Run("unknown bytes fall back to extension", func(t *testing.T) {
		t.Parallel()
		got := detectMIMEType(bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03}), ".htm")
		assert.Equal(t, "text/html", got)
	})

	t.Run("unknown everything", func(t *testing.T) {
		t.Parallel()
		got := detectMIMEType(bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03}), ".bin")
		assert.Equal(t, "application/octet-stream", got)
	})
}

func TestDocxConverter_docxOptions(t *testing.T) {
	t.Parallel()

	defaultImage := func(Image) (map[string]string, error) { return nil, nil }
	callImage := func(Image) (map[string]string, error) { return map[string]string{"src": "x"}, nil }

	c := NewDocxConverter(nil, nil, WithDocxDefaults(DocxOptions{
		StyleMap:     "p.A => h1",
		ConvertImage: defaultImage,
	}))

	t.Run("defaults without per-call options", func(t *testing.T) {
		t.Parallel()
		got := c.docxOptions(ConvertOptions{})
		assert.Equal(t, "p.A => h1", got.StyleMap)
		assert.NotNil(t, got.ConvertImage)
		assert.False(t, got.IgnoreDefaultStyleMap)
	})

	t.Run("per-call value overrides", func(t *testing.T) {
		t.Parallel()
		got := c.docxOptions(ConvertOptions{Extra: map[string]any{
			DocxOptionsKey: DocxOptions{StyleMap: "p.B => h2", ConvertImage: callImage, IgnoreDefaultStyleMap: true},
		}})
		assert.Equal(t, "p.B => h2", got.StyleMap)
		attrs, err := got.ConvertImage(Image{})
		assert.NoError(t, err)
		assert.Equal(t, "x", attrs["src"])
		assert.True(t, got.IgnoreDefaultStyleMap)
	})

	t.Run("pointer with empty fields keeps defaults", func(t *testing.T) {
		t.Parallel()
		got := c.docxOptions(ConvertOptions{Extra: map[string]any{DocxOptionsKey: &DocxOptions{}}})
		assert.Equal(t, "p.A => h1", got.StyleMap)
	})

	t.Run("foreign value ignored", func(t *testing.T) {
		t.Parallel()
		got := c.docxOptions(ConvertOptions{Extra: map[string]any{DocxOptionsKey: "nonsense"}})
		assert.Equal(t, "p.A => h1", got.StyleMap)
	})
}
