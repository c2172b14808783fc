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
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	markitdown "github.com/nicholasgasior/markitdown-docx"
	"github.com/nicholasgasior/markitdown-docx/internal/docxtest"
	"github.com/nicholasgasior/markitdown-docx/mock"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func helloDocx(t *testing.T) []byte {
	t.Helper()
	return docxtest.New(docxtest.StyledPara("Heading1", "Title") + docxtest.Para("Body text.")).Bytes(t)
}

func TestMarkItDown_ConvertReader(t *testing.T) {
	t.Parallel()

	t.Run("docx end to end", func(t *testing.T) {
		t.Parallel()

		m := markitdown.New()
		res, err := m.ConvertReader(bytes.NewReader(helloDocx(t)), markitdown.StreamInfo{Extension: ".docx"})
		require.NoError(t, err)
		assert.Equal(t, "# Title\n\nBody text.", res.Markdown)
		assert.Equal(t, "Title", res.Title)
	})

	t.Run("docx display math splits the paragraph", func(t *testing.T) {
		t.Parallel()

		data := docxtest.New(`<w:p><w:r><w:t>Before</w:t></w:r>` +
			`<m:oMathPara><m:oMath><m:r><m:t>x</m:t></m:r></m:oMath></m:oMathPara>` +
			`<w:r><w:t>After</w:t></w:r></w:p>`).Bytes(t)
		res, err := markitdown.New().ConvertReader(bytes.NewReader(data), markitdown.StreamInfo{Extension: ".docx"})
		require.NoError(t, err)
		assert.Equal(t, "Before\n\n$$x$$\n\nAfter", res.Markdown)
	})

	t.Run("docx list level without numbering is plain text", func(t *testing.T) {
		t.Parallel()

		data := docxtest.New(`<w:p><w:pPr><w:numPr><w:ilvl w:val="200000"/><w:numId w:val="1"/></w:numPr></w:pPr>` +
			`<w:r><w:t>Hello</w:t></w:r></w:p>`).Bytes(t)
		res, err := markitdown.New().ConvertReader(bytes.NewReader(data), markitdown.StreamInfo{Extension: ".docx"})
		require.NoError(t, err)
		assert.Equal(t, "Hello", res.Markdown)
	})

	t.Run("docx detected by content", func(t *testing.T) {
		t.Parallel()

		m := markitdown.New()
		res, err := m.ConvertReader(bytes.NewReader(helloDocx(t)), markitdown.StreamInfo{MIMEType: docxMIME})
		require.NoError(t, err)
		assert.Contains(t, res.Markdown, "Body text.")
	})

	t.Run("html", func(t *testing.T) {
		t.Parallel()

		m := markitdown.New()
		html := `<html><head><title>Page</title><script>x()</script></head><body><h2>Sub</h2><p>Hi <b>there</b></p></body></html>`
		res, err := m.ConvertReader(bytes.NewReader([]byte(html)), markitdown.StreamInfo{Extension: ".html"})
		require.NoError(t, err)
		assert.Equal(t, "## Sub\n\nHi **there**", res.Markdown)
		assert.Equal(t, "Page", res.Title)
	})

	t.Run("unsupported format", func(t *testing.T) {
		t.Parallel()

		m := markitdown.New()
		_, err := m.ConvertReader(bytes.NewReader([]byte{0, 1, 2, 3}), markitdown.StreamInfo{Extension: ".bin"})
		require.Error(t, err)
		assert.True(t, markitdown.IsUnsupportedFormat(err))

		var unsupported *markitdown.UnsupportedFormatError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, ".bin", unsupported.Extension)
	})

	t.Run("corrupt docx reports the attempt", func(t *testing.T) {
		t.Parallel()

		m := markitdown.New()
		_, err := m.ConvertReader(bytes.NewReader([]byte("PK\x03\x04 not really")), markitdown.StreamInfo{Extension: ".docx"})
		require.Error(t, err)

		var convErr *markitdown.ConversionError
		require.ErrorAs(t, err, &convErr)
		require.Len(t, convErr.Attempts, 1)
		assert.Equal(t, "docx", convErr.Attempts[0].Converter)
	})
}

func TestMarkItDown_Idempotent(t *testing.T) {
	t.Parallel()

	m := markitdown.New()
	data := imageDocx(t)

	first, err := m.ConvertReader(bytes.NewReader(data), markitdown.StreamInfo{Extension: ".docx"})
	require.NoError(t, err)
	second, err := m.ConvertReader(bytes.NewReader(data), markitdown.StreamInfo{Extension: ".docx"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMarkItDown_DataURIs(t *testing.T) {
	t.Parallel()

	t.Run("truncated by default", func(t *testing.T) {
		t.Parallel()

		res, err := markitdown.New().ConvertReader(bytes.NewReader(imageDocx(t)), markitdown.StreamInfo{Extension: ".docx"})
		require.NoError(t, err)
		assert.Contains(t, res.Markdown, "![A dot](data:image/png;base64,...)")
	})

	t.Run("kept on request", func(t *testing.T) {
		t.Parallel()

		res, err := markitdown.New().ConvertReader(bytes.NewReader(imageDocx(t)), markitdown.StreamInfo{Extension: ".docx"},
			markitdown.WithKeepDataURIsFor(true))
		require.NoError(t, err)
		assert.NotContains(t, res.Markdown, "base64,...")
		assert.Contains(t, res.Markdown, "data:image/png;base64,iVBOR")
	})
}

func TestMarkItDown_Options(t *testing.T) {
	t.Parallel()

	t.Run("style map", func(t *testing.T) {
		t.Parallel()

		data := docxtest.New(docxtest.StyledPara("Aside", "note")).Bytes(t)
		m := markitdown.New(markitdown.WithStyleMap("p.Aside => h3:fresh"))
		res, err := m.ConvertReader(bytes.NewReader(data), markitdown.StreamInfo{Extension: ".docx"})
		require.NoError(t, err)
		assert.Equal(t, "### note", res.Markdown)
	})

	t.Run("per-call style map overrides instance", func(t *testing.T) {
		t.Parallel()

		data := docxtest.New(docxtest.StyledPara("Aside", "note")).Bytes(t)
		m := markitdown.New(markitdown.WithStyleMap("p.Aside => h3:fresh"))
		res, err := m.ConvertReader(bytes.NewReader(data), markitdown.StreamInfo{Extension: ".docx"},
			markitdown.WithDocxOptions(markitdown.DocxOptions{StyleMap: "p.Aside => h2:fresh"}))
		require.NoError(t, err)
		assert.Equal(t, "## note", res.Markdown)
	})

	t.Run("image converter", func(t *testing.T) {
		t.Parallel()

		var calls int
		m := markitdown.New(markitdown.WithImageConverter(func(img markitdown.Image) (map[string]string, error) {
			calls++
			return map[string]string{"src": "img/" + filepath.Base(img.Name)}, nil
		}))
		res, err := m.ConvertReader(bytes.NewReader(imageDocx(t)), markitdown.StreamInfo{Extension: ".docx"})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, "# Pictures\n\n![A dot](img/image1.png)", res.Markdown)
	})

	t.Run("nil transformer disables docx", func(t *testing.T) {
		t.Parallel()

		m := markitdown.New(markitdown.WithDocxTransformer(nil))
		_, err := m.ConvertReader(bytes.NewReader(helloDocx(t)), markitdown.StreamInfo{Extension: ".docx"})
		require.Error(t, err)
		assert.True(t, markitdown.IsMissingDependency(err))
		assert.ErrorIs(t, err, markitdown.ErrTransformerUnavailable)
	})

	t.Run("custom transformer", func(t *testing.T) {
		t.Parallel()

		m := markitdown.New(markitdown.WithDocxTransformer(&mock.Transformer{
			TransformToHTMLFn: func(io.Reader, markitdown.DocxOptions) (string, error) {
				return "<h1>From mock</h1>", nil
			},
		}))
		res, err := m.ConvertReader(bytes.NewReader(helloDocx(t)), markitdown.StreamInfo{Extension: ".docx"})
		require.NoError(t, err)
		assert.Equal(t, "# From mock", res.Markdown)
	})

	t.Run("converter wrapper sees every converter", func(t *testing.T) {
		t.Parallel()

		var names []string
		m := markitdown.New(markitdown.WithConverterWrapper(func(name string, c markitdown.DocumentConverter) markitdown.DocumentConverter {
			names = append(names, name)
			return c
		}))
		_, err := m.ConvertReader(bytes.NewReader(helloDocx(t)), markitdown.StreamInfo{Extension: ".docx"})
		require.NoError(t, err)
		assert.Equal(t, []string{"docx", "html"}, names)
	})
}

func TestMarkItDown_RegisterConverter(t *testing.T) {
	t.Parallel()

	t.Run("lower priority wins", func(t *testing.T) {
		t.Parallel()

		m := markitdown.New()
		m.RegisterConverter("custom", &mock.Converter{
			AcceptsFn: func(info markitdown.StreamInfo) bool { return info.Extension == ".docx" },
			ConvertFn: func(io.ReadSeeker, markitdown.StreamInfo, markitdown.ConvertOptions) (*markitdown.DocumentConverterResult, error) {
				return &markitdown.DocumentConverterResult{Markdown: "custom  \n"}, nil
			},
		}, -1)

		res, err := m.ConvertReader(bytes.NewReader(helloDocx(t)), markitdown.StreamInfo{Extension: ".docx"})
		require.NoError(t, err)
		assert.Equal(t, "custom", res.Markdown)
	})

	t.Run("falls through failed attempts", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		m := markitdown.New()
		m.RegisterConverter("flaky", &mock.Converter{
			AcceptsFn: func(markitdown.StreamInfo) bool { return true },
			ConvertFn: func(r io.ReadSeeker, _ markitdown.StreamInfo, _ markitdown.ConvertOptions) (*markitdown.DocumentConverterResult, error) {
				_, _ = io.Copy(io.Discard, r)
				return nil, boom
			},
		}, -1)

		res, err := m.ConvertReader(bytes.NewReader(helloDocx(t)), markitdown.StreamInfo{Extension: ".docx"})
		require.NoError(t, err)
		assert.Contains(t, res.Markdown, "# Title")
	})

	t.Run("all attempts fail", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		m := markitdown.New()
		m.RegisterConverter("broken", &mock.Converter{
			AcceptsFn: func(info markitdown.StreamInfo) bool { return info.Extension == ".odd" },
			ConvertFn: func(io.ReadSeeker, markitdown.StreamInfo, markitdown.ConvertOptions) (*markitdown.DocumentConverterResult, error) {
				return nil, boom
			},
		}, markitdown.PrioritySpecific)

		_, err := m.ConvertReader(bytes.NewReader([]byte("x")), markitdown.StreamInfo{Extension: ".odd", MIMEType: "application/x-odd"})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "broken: boom")
	})
}

func TestMarkItDown_ConvertFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "Report.DOCX")
	require.NoError(t, os.WriteFile(path, helloDocx(t), 0o644))

	res, err := markitdown.New().Convert(path)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody text.", res.Markdown)

	_, err = markitdown.New().ConvertFile(filepath.Join(dir, "missing.docx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarkItDown_ConvertURL(t *testing.T) {
	t.Parallel()

	docx := helloDocx(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/files/report.docx", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(docx)
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", docxMIME)
		_, _ = w.Write(docx)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>caf\xe9</p>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	m := markitdown.New(markitdown.WithHTTPClient(srv.Client()))

	t.Run("docx by extension", func(t *testing.T) {
		res, err := m.Convert(srv.URL + "/files/report.docx?x=1")
		require.NoError(t, err)
		assert.Equal(t, "# Title\n\nBody text.", res.Markdown)
	})

	t.Run("docx by content type", func(t *testing.T) {
		res, err := m.ConvertURL(srv.URL + "/download")
		require.NoError(t, err)
		assert.Equal(t, "Title", res.Title)
	})

	t.Run("html with charset", func(t *testing.T) {
		res, err := m.ConvertURL(srv.URL + "/page")
		require.NoError(t, err)
		assert.Equal(t, "café", res.Markdown)
	})

	t.Run("error status", func(t *testing.T) {
		_, err := m.ConvertURL(srv.URL + "/nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}

// goldenTestFiles lists fixtures under testdata/ whose output must match
// testdata/golden/<name>.md exactly.
var goldenTestFiles = []string{
	"hello.docx",
	"release_notes.html",
}

func TestGoldenFiles(t *testing.T) {
	t.Parallel()

	m := markitdown.New()
	for _, filename := range goldenTestFiles {
		t.Run(filename, func(t *testing.T) {
			t.Parallel()

			inputPath := filepath.Join("testdata", filename)
			goldenPath := filepath.Join("testdata", "golden", filename+".md")
			if _, err := os.Stat(inputPath); os.IsNotExist(err) {
				t.Skipf("test fixture %s not found", inputPath)
			}

			result, err := m.ConvertFile(inputPath)
			require.NoError(t, err)

			golden, err := os.ReadFile(goldenPath)
			require.NoError(t, err)
			assert.Equal(t, string(golden), result.Markdown)
		})
	}
}

// TestUpdateGolden regenerates the golden files.
// Run with: UPDATE_GOLDEN=1 go test -run TestUpdateGolden
func TestUpdateGolden(t *testing.T) {
	if os.Getenv("UPDATE_GOLDEN") == "" {
		t.Skip("set UPDATE_GOLDEN=1 to regenerate golden files")
	}

	m := markitdown.New()
	for _, filename := range goldenTestFiles {
		result, err := m.ConvertFile(filepath.Join("testdata", filename))
		require.NoError(t, err)

		goldenPath := filepath.Join("testdata", "golden", filename+".md")
		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0o755))
		require.NoError(t, os.WriteFile(goldenPath, []byte(result.Markdown), 0o644))
		t.Logf("updated %s (%d bytes)", goldenPath, len(result.Markdown))
	}
}
