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

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	markitdown "github.com/nicholasgasior/markitdown-docx"
)

// imageWriter stores DOCX images as files named after their SHA-256 and
// links to them relative to base.
type imageWriter struct {
	dir  string
	base string
}

func (w *imageWriter) Convert(img markitdown.Image) (map[string]string, error) {
	rc, err := img.Open()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:]) + imageExtension(img.ContentType, data)
	dst := filepath.Join(w.dir, name)

	if _, err := os.Stat(dst); errors.Is(err, fs.ErrNotExist) {
		if err := writeAtomic(dst, data); err != nil {
			return nil, fmt.Errorf("save image: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	src := dst
	if rel, err := filepath.Rel(w.base, dst); err == nil {
		src = rel
	}
	return map[string]string{"src": filepath.ToSlash(src)}, nil
}

func imageExtension(contentType string, data []byte) string {
	if mt := mimetype.Lookup(contentType); mt != nil && mt.Extension() != "" {
		return mt.Extension()
	}
	if ext := mimetype.Detect(data).Extension(); ext != "" {
		return ext
	}
	return ".bin"
}

// writeAtomic writes through a temporary file so concurrent conversions
// never observe a partial image.
func writeAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".img-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
