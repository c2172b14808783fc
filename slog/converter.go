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

// Package slog provides log/slog decorators for markitdown components.
package slog

import (
	"io"
	"log/slog"
	"time"

	markitdown "github.com/nicholasgasior/markitdown-docx"
)

var _ markitdown.DocumentConverter = (*LoggingConverter)(nil)

// LoggingConverter wraps a DocumentConverter and logs each conversion.
type LoggingConverter struct {
	next   markitdown.DocumentConverter
	name   string
	logger *slog.Logger
}

// NewLoggingConverter creates a new LoggingConverter.
func NewLoggingConverter(next markitdown.DocumentConverter, name string, logger *slog.Logger) *LoggingConverter {
	return &LoggingConverter{next: next, name: name, logger: logger}
}

// Wrap adapts NewLoggingConverter to markitdown.WithConverterWrapper.
func Wrap(logger *slog.Logger) func(string, markitdown.DocumentConverter) markitdown.DocumentConverter {
	return func(name string, c markitdown.DocumentConverter) markitdown.DocumentConverter {
		return NewLoggingConverter(c, name, logger)
	}
}

// Accepts delegates to the wrapped converter.
func (c *LoggingConverter) Accepts(info markitdown.StreamInfo) bool {
	return c.next.Accepts(info)
}

// Convert delegates to the wrapped converter and logs the outcome.
func (c *LoggingConverter) Convert(reader io.ReadSeeker, info markitdown.StreamInfo, opts markitdown.ConvertOptions) (*markitdown.DocumentConverterResult, error) {
	begin := time.Now()
	result, err := c.next.Convert(reader, info, opts)
	if err != nil {
		c.logger.Warn("convert",
			"converter", c.name,
			"ext", info.Extension,
			"mime", info.MIMEType,
			"missing_dependency", markitdown.IsMissingDependency(err),
			"duration", time.Since(begin),
			"err", err,
		)
		return nil, err
	}
	c.logger.Info("convert",
		"converter", c.name,
		"ext", info.Extension,
		"mime", info.MIMEType,
		"bytes", len(result.Markdown),
		"duration", time.Since(begin),
	)
	return result, nil
}
