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

// Package docxpre normalizes a DOCX package before it is transformed to HTML.
// Office math (OMML) in the body, footnotes and endnotes is replaced by plain
// text runs holding LaTeX, so downstream transformers that know nothing about
// math still keep the equations.
package docxpre

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

const (
	nsOMML = "http://schemas.openxmlformats.org/officeDocument/2006/math"
	nsWord = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// mathParts are the parts that may carry equations.
var mathParts = map[string]bool{
	"word/document.xml":  true,
	"word/footnotes.xml": true,
	"word/endnotes.xml":  true,
}

var (
	reMathPrefix = regexp.MustCompile(`xmlns:([A-Za-z_][\w.-]*)="` + regexp.QuoteMeta(nsOMML) + `"`)
	reWordPrefix = regexp.MustCompile(`xmlns:([A-Za-z_][\w.-]*)="` + regexp.QuoteMeta(nsWord) + `"`)
)

// Process reads a DOCX package from r and returns an equivalent package with
// its equations rewritten as LaTeX text. The input is returned untouched when
// it holds no math. A part whose math cannot be converted is copied as is.
func Process(r io.Reader) (io.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx zip: %w", err)
	}

	contents := make([][]byte, len(zr.File))
	changed := false
	for i, f := range zr.File {
		content, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if mathParts[f.Name] && bytes.Contains(content, []byte("oMath")) {
			if updated, err := RewriteMath(content); err == nil {
				content = updated
				changed = true
			}
		}
		contents[i] = content
	}
	if !changed {
		return bytes.NewReader(data), nil
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if zr.Comment != "" {
		if err := zw.SetComment(zr.Comment); err != nil {
			return nil, err
		}
	}
	for i, f := range zr.File {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   f.Method,
			Modified: f.Modified,
		})
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
		if _, err := w.Write(contents[i]); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish docx zip: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// RewriteMath replaces the m:oMathPara and m:oMath elements of one
// WordprocessingML part with LaTeX text. Each equation of an m:oMathPara
// becomes its own w:p holding $$...$$; an inline m:oMath becomes a w:r
// holding $...$.
func RewriteMath(part []byte) ([]byte, error) {
	content := string(part)
	m := prefixFor(reMathPrefix, content, "m")
	w := prefixFor(reWordPrefix, content, "w")

	content, err := replaceElements(content, m+":oMathPara", func(block string) (string, error) {
		var runs strings.Builder
		inner := 0
		for {
			start, end, ok := findElement(block, m+":oMath", inner)
			if !ok {
				break
			}
			latex, err := ommlToLatex(block[start:end], m)
			if err != nil {
				return "", err
			}
			runs.WriteString(fmt.Sprintf("<%[1]s:p>%[2]s</%[1]s:p>", w, textRun(w, "$$"+latex+"$$")))
			inner = end
		}
		return runs.String(), nil
	})
	if err != nil {
		return nil, err
	}

	content, err = replaceElements(content, m+":oMath", func(block string) (string, error) {
		latex, err := ommlToLatex(block, m)
		if err != nil {
			return "", err
		}
		return textRun(w, "$"+latex+"$"), nil
	})
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

func prefixFor(re *regexp.Regexp, content, fallback string) string {
	if m := re.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return fallback
}

func textRun(w, text string) string {
	return fmt.Sprintf(`<%[1]s:r><%[1]s:t xml:space="preserve">%[2]s</%[1]s:t></%[1]s:r>`, w, html.EscapeString(text))
}

// replaceElements rewrites every element named qname with the result of fn.
func replaceElements(content, qname string, fn func(block string) (string, error)) (string, error) {
	var b strings.Builder
	pos := 0
	for {
		start, end, ok := findElement(content, qname, pos)
		if !ok {
			break
		}
		replacement, err := fn(content[start:end])
		if err != nil {
			return "", err
		}
		b.WriteString(content[pos:start])
		b.WriteString(replacement)
		pos = end
	}
	b.WriteString(content[pos:])
	return b.String(), nil
}

// findElement locates the next element whose qualified name is exactly qname
// at or after from. It returns the byte range of the whole element.
func findElement(content, qname string, from int) (int, int, bool) {
	open := "<" + qname
	start := -1
	for i := from; i < len(content); {
		idx := strings.Index(content[i:], open)
		if idx < 0 {
			return 0, 0, false
		}
		idx += i
		after := idx + len(open)
		if after < len(content) && isNameEnd(content[after]) {
			start = idx
			break
		}
		i = after
	}
	if start < 0 {
		return 0, 0, false
	}

	tagEnd := strings.IndexByte(content[start:], '>')
	if tagEnd < 0 {
		return 0, 0, false
	}
	tagEnd += start
	if content[tagEnd-1] == '/' {
		return start, tagEnd + 1, true
	}

	closeTag := "</" + qname + ">"
	depth := 1
	for i := tagEnd + 1; i < len(content); {
		nextClose := strings.Index(content[i:], closeTag)
		if nextClose < 0 {
			return 0, 0, false
		}
		nextClose += i
		nextOpen := indexOpenTag(content[i:nextClose], open)
		if nextOpen >= 0 {
			depth++
			i += nextOpen + len(open)
			continue
		}
		depth--
		if depth == 0 {
			return start, nextClose + len(closeTag), true
		}
		i = nextClose + len(closeTag)
	}
	return 0, 0, false
}

func indexOpenTag(s, open string) int {
	for i := 0; i < len(s); {
		idx := strings.Index(s[i:], open)
		if idx < 0 {
			return -1
		}
		idx += i
		after := idx + len(open)
		if after < len(s) && isNameEnd(s[after]) {
			return idx
		}
		i = after
	}
	return -1
}

func isNameEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '>', '/':
		return true
	}
	return false
}
