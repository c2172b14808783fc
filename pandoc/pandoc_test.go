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

package pandoc

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	markitdown "github.com/nicholasgasior/markitdown-docx"
	"github.com/nicholasgasior/markitdown-docx/internal/docxtest"
)

// fakePandoc writes a shell script standing in for pandoc.
func fakePandoc(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "pandoc")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestNew_MissingBinary(t *testing.T) {
	t.Parallel()

	tr := New(WithBinary("definitely-not-pandoc-7f3a"))
	err := tr.Available()
	require.Error(t, err)
	assert.ErrorIs(t, err, exec.ErrNotFound)

	_, err = tr.TransformToHTML(strings.NewReader(""), markitdown.DocxOptions{})
	assert.Equal(t, tr.Available(), err)
}

func TestNew_MissingBinaryGatesConverter(t *testing.T) {
	t.Parallel()

	m := markitdown.New(markitdown.WithDocxTransformer(New(WithBinary("definitely-not-pandoc-7f3a"))))
	_, err := m.ConvertReader(strings.NewReader("PK"), markitdown.StreamInfo{Extension: ".docx"})
	require.Error(t, err)
	assert.True(t, markitdown.IsMissingDependency(err))
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestTransformer_TransformToHTML(t *testing.T) {
	t.Parallel()

	t.Run("returns pandoc output", func(t *testing.T) {
		t.Parallel()

		tr := New(WithBinary(fakePandoc(t, `cat <<'HTML'
<h1 id="title">Title</h1>
<p>Body</p>
HTML`)))
		require.NoError(t, tr.Available())

		html, err := tr.TransformToHTML(strings.NewReader("docx bytes"), markitdown.DocxOptions{})
		require.NoError(t, err)
		assert.Contains(t, html, `<h1 id="title">Title</h1>`)
		assert.Contains(t, html, "<p>Body</p>")
	})

	t.Run("passes the input file", func(t *testing.T) {
		t.Parallel()

		tr := New(WithBinary(fakePandoc(t, `for last; do :; done; printf '<p>%s</p>' "$(cat "$last")"`)))
		html, err := tr.TransformToHTML(strings.NewReader("payload"), markitdown.DocxOptions{})
		require.NoError(t, err)
		assert.Equal(t, "<p>payload</p>", html)
	})

	t.Run("style maps rejected", func(t *testing.T) {
		t.Parallel()

		tr := New(WithBinary(fakePandoc(t, "exit 0")))
		_, err := tr.TransformToHTML(strings.NewReader(""), markitdown.DocxOptions{StyleMap: "p.A => h1"})
		assert.ErrorIs(t, err, ErrStyleMapUnsupported)
	})

	t.Run("failure includes stderr", func(t *testing.T) {
		t.Parallel()

		tr := New(WithBinary(fakePandoc(t, "echo 'unknown reader' >&2; exit 3")))
		_, err := tr.TransformToHTML(strings.NewReader(""), markitdown.DocxOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown reader")
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		tr := New(WithBinary(fakePandoc(t, "exec sleep 5")), WithTimeout(50*time.Millisecond))
		_, err := tr.TransformToHTML(strings.NewReader(""), markitdown.DocxOptions{})
		assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	})
}

func TestEmbedImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "media"), 0o755))
	media := filepath.Join(dir, "media", "image1.png")
	require.NoError(t, os.WriteFile(media, docxtest.PNG, 0o644))

	fragment := `<p><img src="` + media + `" alt="A dot"/></p><p><img src="https://example.com/x.png"/></p>`

	t.Run("inlines media as data URIs", func(t *testing.T) {
		t.Parallel()

		html, err := embedImages(fragment, dir, markitdown.DataURI)
		require.NoError(t, err)
		assert.Contains(t, html, `alt="A dot"`)
		assert.Contains(t, html, `src="data:image/png;base64,`)
		assert.Contains(t, html, `src="https://example.com/x.png"`)
		assert.NotContains(t, html, media)
	})

	t.Run("custom converter", func(t *testing.T) {
		t.Parallel()

		var seen []markitdown.Image
		convert := func(img markitdown.Image) (map[string]string, error) {
			seen = append(seen, img)
			return map[string]string{"src": "images/" + img.Name}, nil
		}
		html, err := embedImages(fragment, dir, convert)
		require.NoError(t, err)
		require.Len(t, seen, 1)
		assert.Equal(t, "image/png", seen[0].ContentType)
		assert.Equal(t, "A dot", seen[0].AltText)
		assert.Contains(t, html, `src="images/image1.png"`)
	})

	t.Run("converter error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("disk full")
		_, err := embedImages(fragment, dir, func(markitdown.Image) (map[string]string, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("paths outside the work dir are ignored", func(t *testing.T) {
		t.Parallel()

		outside := filepath.Join(t.TempDir(), "secret.png")
		html, err := embedImages(`<img src="`+outside+`"/>`, dir, markitdown.DataURI)
		require.NoError(t, err)
		assert.Contains(t, html, outside)
	})
}

func TestTransformer_Pandoc(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("pandoc"); err != nil {
		t.Skip("pandoc not installed")
	}

	data := docxtest.New(docxtest.StyledPara("Heading1", "Title") + docxtest.Para("Body text.")).Bytes(t)
	m := markitdown.New(markitdown.WithDocxTransformer(New()))
	res, err := m.ConvertReader(bytes.NewReader(data), markitdown.StreamInfo{Extension: ".docx"})
	require.NoError(t, err)
	assert.Contains(t, res.Markdown, "Body text.")
}
