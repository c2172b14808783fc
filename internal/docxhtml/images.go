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

package docxhtml

import (
	"bytes"
	"encoding/base64"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Image is an image embedded in a document.
type Image struct {
	// ContentType is the sniffed MIME type, e.g. "image/png".
	ContentType string
	// AltText comes from the drawing's description, if any.
	AltText string
	// Name is the part name inside the package, e.g. "word/media/image1.png".
	Name string

	data []byte
}

// NewImage builds an Image from raw bytes. An empty contentType is sniffed.
func NewImage(name, contentType, altText string, data []byte) Image {
	if contentType == "" {
		contentType = ContentType(name, data)
	}
	return Image{ContentType: contentType, AltText: altText, Name: name, data: data}
}

// Open returns a reader over the image bytes.
func (img Image) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(img.data)), nil
}

// Size returns the image size in bytes.
func (img Image) Size() int {
	return len(img.data)
}

// ImageConverter turns an image into the attributes of its <img> element.
// The returned map typically carries "src"; "alt" is filled in from the
// document when the converter leaves it out.
type ImageConverter func(img Image) (map[string]string, error)

// DataURI is the default ImageConverter: it inlines the image as a base64 data URI.
func DataURI(img Image) (map[string]string, error) {
	return map[string]string{
		"src": "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.data),
	}, nil
}

var extensionTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
	".emf":  "image/x-emf",
	".wmf":  "image/x-wmf",
}

// ContentType sniffs the MIME type of image data, falling back to the
// extension of name.
func ContentType(name string, data []byte) string {
	if len(data) > 0 {
		if mt := mimetype.Detect(data); strings.HasPrefix(mt.String(), "image/") {
			return mt.String()
		}
	}
	if ct, ok := extensionTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
