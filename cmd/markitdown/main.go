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
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/sync/errgroup"

	markitdown "github.com/nicholasgasior/markitdown-docx"
	"github.com/nicholasgasior/markitdown-docx/internal/config"
	"github.com/nicholasgasior/markitdown-docx/pandoc"
	mdslog "github.com/nicholasgasior/markitdown-docx/slog"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Transformer overrides the DOCX backend chosen by flags. Set before
	// calling Run(); used by tests.
	Transformer markitdown.DocxTransformer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// CLI holds the command-line flags.
type CLI struct {
	Sources      []string `arg:"" optional:"" help:"Files or URLs to convert (reads stdin if omitted)"`
	Output       string   `short:"o" help:"Output file for a single source (default: stdout)"`
	OutputDir    string   `name:"output-dir" help:"Write <name>.md files here when converting several sources"`
	Extension    string   `short:"x" help:"File extension hint (for stdin input)"`
	MIMEType     string   `short:"m" name:"mime-type" help:"MIME type hint (for stdin input)"`
	Charset      string   `short:"c" help:"Charset hint (for stdin input)"`
	KeepDataURIs bool     `name:"keep-data-uris" env:"MARKITDOWN_KEEP_DATA_URIS" help:"Keep full base64-encoded data URIs"`
	StyleMap     string   `name:"style-map" type:"existingfile" env:"MARKITDOWN_STYLE_MAP" help:"File with extra DOCX style map rules"`
	ImagesDir    string   `name:"images-dir" env:"MARKITDOWN_IMAGES_DIR" help:"Save DOCX images in this directory and link to them"`
	Backend      string   `env:"MARKITDOWN_BACKEND" help:"DOCX backend: native or pandoc"`
	Jobs         int      `short:"j" env:"MARKITDOWN_JOBS" help:"Concurrent conversions (default: number of CPUs)"`
	Config       string   `type:"existingfile" env:"MARKITDOWN_CONFIG" help:"YAML config file"`
	LogLevel     string   `name:"log-level" env:"MARKITDOWN_LOG_LEVEL" help:"Log level: debug, info, warn or error"`
	Version      bool     `short:"v" help:"Show version"`
}

// settings merges the config file with the flags. Flags win.
func (cli *CLI) settings() (*config.Config, error) {
	cfg := &config.Config{}
	if cli.Config != "" {
		loaded, err := config.Load(cli.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cli.StyleMap != "" {
		cfg.StyleMap = ""
		cfg.StyleMapFile = cli.StyleMap
	}
	if cli.ImagesDir != "" {
		cfg.ImagesDir = cli.ImagesDir
	}
	if cli.Backend != "" {
		cfg.Backend = cli.Backend
	}
	if cli.Jobs != 0 {
		cfg.Jobs = cli.Jobs
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	cfg.KeepDataURIs = cfg.KeepDataURIs || cli.KeepDataURIs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("markitdown"),
		kong.Description("Convert documents to Markdown."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	if cli.Version {
		fmt.Fprintf(stdout, "markitdown %s\n", version)
		return nil
	}

	if cli.Output != "" && len(cli.Sources) > 1 {
		return fmt.Errorf("--output takes a single source; use --output-dir for %d sources", len(cli.Sources))
	}

	cfg, err := cli.settings()
	if err != nil {
		return err
	}

	logger := newLogger(stderr, cfg.LogLevel)

	outBase := "."
	switch {
	case cli.OutputDir != "":
		outBase = cli.OutputDir
	case cli.Output != "":
		outBase = filepath.Dir(cli.Output)
	}

	md, err := m.newMarkItDown(cfg, logger, outBase)
	if err != nil {
		return err
	}

	if len(cli.Sources) == 0 {
		return m.convertStdin(md, cli, stdin, stdout)
	}
	if len(cli.Sources) == 1 && cli.OutputDir == "" {
		result, err := md.Convert(cli.Sources[0])
		if err != nil {
			return err
		}
		return writeResult(result, cli.Output, stdout)
	}
	return m.convertBatch(ctx, md, cli.Sources, cli.OutputDir, cfg.Jobs, stdout, logger)
}

func (m *Main) newMarkItDown(cfg *config.Config, logger *slog.Logger, outBase string) (*markitdown.MarkItDown, error) {
	opts := []markitdown.Option{
		markitdown.WithLogger(logger),
		markitdown.WithConverterWrapper(mdslog.Wrap(logger)),
		markitdown.WithKeepDataURIs(cfg.KeepDataURIs),
	}

	rules, err := cfg.StyleMapRules()
	if err != nil {
		return nil, err
	}
	if rules != "" {
		opts = append(opts, markitdown.WithStyleMap(rules))
	}

	if cfg.ImagesDir != "" {
		if err := os.MkdirAll(cfg.ImagesDir, 0o755); err != nil {
			return nil, fmt.Errorf("create images dir: %w", err)
		}
		w := &imageWriter{dir: cfg.ImagesDir, base: outBase}
		opts = append(opts, markitdown.WithImageConverter(w.Convert))
	}

	switch {
	case m.Transformer != nil:
		opts = append(opts, markitdown.WithDocxTransformer(m.Transformer))
	case cfg.Backend == config.BackendPandoc:
		var popts []pandoc.Option
		if cfg.PandocPath != "" {
			popts = append(popts, pandoc.WithBinary(cfg.PandocPath))
		}
		if cfg.PandocTimeout > 0 {
			popts = append(popts, pandoc.WithTimeout(cfg.PandocTimeout))
		}
		opts = append(opts, markitdown.WithDocxTransformer(pandoc.New(popts...)))
	}

	return markitdown.New(opts...), nil
}

func (m *Main) convertStdin(md *markitdown.MarkItDown, cli *CLI, stdin io.Reader, stdout io.Writer) error {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	ext := strings.ToLower(cli.Extension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	info := markitdown.StreamInfo{
		Extension: ext,
		MIMEType:  cli.MIMEType,
		Charset:   cli.Charset,
	}

	result, err := md.ConvertReader(bytes.NewReader(data), info)
	if err != nil {
		return err
	}
	return writeResult(result, cli.Output, stdout)
}

// convertBatch converts sources concurrently. With outDir set each result
// goes to its own file; otherwise results are printed in source order.
func (m *Main) convertBatch(ctx context.Context, md *markitdown.MarkItDown, sources []string, outDir string, jobs int, stdout io.Writer, logger *slog.Logger) error {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	names := outputNames(sources)
	results := make([]*markitdown.DocumentConverterResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := md.Convert(src)
			if err != nil {
				return fmt.Errorf("%s: %w", src, err)
			}
			if outDir == "" {
				results[i] = result
				return nil
			}
			dst := filepath.Join(outDir, names[i])
			if err := writeResult(result, dst, nil); err != nil {
				return err
			}
			logger.Info("wrote", "source", src, "output", dst)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if outDir == "" {
		for i, result := range results {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			fmt.Fprintln(stdout, result.Markdown)
		}
	}
	return nil
}

// outputNames derives a unique <name>.md for every source.
func outputNames(sources []string) []string {
	seen := map[string]bool{}
	names := make([]string, len(sources))
	for i, src := range sources {
		var base string
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			base = path.Base(strings.SplitN(strings.SplitN(src, "?", 2)[0], "#", 2)[0])
		} else {
			base = filepath.Base(src)
		}
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if stem == "" || stem == "." || stem == "/" {
			stem = "index"
		}
		name := stem
		for n := 2; seen[name]; n++ {
			name = fmt.Sprintf("%s-%d", stem, n)
		}
		seen[name] = true
		names[i] = name + ".md"
	}
	return names
}

func writeResult(result *markitdown.DocumentConverterResult, output string, stdout io.Writer) error {
	if output == "" {
		_, err := fmt.Fprintln(stdout, result.Markdown)
		return err
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(output, []byte(result.Markdown+"\n"), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	lvl := slog.LevelWarn
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
