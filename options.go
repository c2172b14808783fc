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
	"log/slog"
	"net/http"
)

// Option configures a MarkItDown instance.
type Option func(*MarkItDown)

// WithKeepDataURIs configures whether to keep full data URIs in output
// (default: false, which truncates them to data:mime/type;base64...).
func WithKeepDataURIs(keep bool) Option {
	return func(m *MarkItDown) {
		m.keepDataURIs = keep
	}
}

// WithStyleMap sets extra style map rules for DOCX conversion.
func WithStyleMap(styleMap string) Option {
	return func(m *MarkItDown) {
		m.docx.StyleMap = styleMap
	}
}

// WithImageConverter sets how images embedded in DOCX files are emitted.
func WithImageConverter(fn ImageConverter) Option {
	return func(m *MarkItDown) {
		m.docx.ConvertImage = fn
	}
}

// WithDocxTransformer replaces the built-in DOCX to HTML transformer.
// Passing nil disables DOCX support: such files then fail with a
// MissingDependencyError.
func WithDocxTransformer(t DocxTransformer) Option {
	return func(m *MarkItDown) {
		m.transformer = t
		m.transformerSet = true
	}
}

// WithLogger sets the logger for converter diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *MarkItDown) {
		m.logger = logger
	}
}

// WithConverterWrapper decorates every registered converter, for example
// with logging.
func WithConverterWrapper(wrap func(name string, c DocumentConverter) DocumentConverter) Option {
	return func(m *MarkItDown) {
		m.wrap = wrap
	}
}

// WithHTTPClient sets the client used by ConvertURL.
func WithHTTPClient(client *http.Client) Option {
	return func(m *MarkItDown) {
		m.httpClient = client
	}
}

// ConvertOption adjusts the options of a single conversion.
type ConvertOption func(*ConvertOptions)

// WithConverterOptions stores converter-specific settings under name.
func WithConverterOptions(name string, v any) ConvertOption {
	return func(o *ConvertOptions) {
		if o.Extra == nil {
			o.Extra = map[string]any{}
		}
		o.Extra[name] = v
	}
}

// WithDocxOptions overrides the DOCX options for one conversion.
func WithDocxOptions(opts DocxOptions) ConvertOption {
	return WithConverterOptions(DocxOptionsKey, opts)
}

// WithKeepDataURIsFor overrides the instance data URI setting for one
// conversion.
func WithKeepDataURIsFor(keep bool) ConvertOption {
	return func(o *ConvertOptions) {
		o.KeepDataURIs = keep
	}
}
