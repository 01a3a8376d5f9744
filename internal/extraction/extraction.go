// Package extraction turns documents held in cloud file storage into plain
// text. PDFs, HTML, native documents and compressed archives of candidate
// materials are supported; everything else goes through a generic
// document converter.
package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/semaphore"
)

// Mime types with dedicated handling.
const (
	MimePDF            = "application/pdf"
	MimeHTML           = "text/html"
	MimeNativeDocument = "application/vnd.google-apps.document"
)

// FileMetadata is the declared name and type of a stored file.
type FileMetadata struct {
	Name     string
	MimeType string
}

// FileStore is the cloud storage the documents are read from.
type FileStore interface {
	GetMetadata(ctx context.Context, fileID string) (FileMetadata, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	ExportText(ctx context.Context, fileID string) (string, error)
}

// Options configures the converters and the worker pool.
type Options struct {
	PDFToText     string // pdftotext binary
	Pandoc        string // pandoc binary
	Unrtf         string // unrtf binary
	Catdoc        string // catdoc binary
	MaxConcurrent int64  // converter processes allowed at once
	WrapWidth     uint   // column width for HTML text
	TempDir       string // parent of scratch directories, "" for the OS default
	MaxDepth      int    // nested archive depth
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		PDFToText:     "pdftotext",
		Pandoc:        "pandoc",
		Unrtf:         "unrtf",
		Catdoc:        "catdoc",
		MaxConcurrent: 2,
		WrapWidth:     80,
		MaxDepth:      3,
	}
}

// Extractor converts stored documents to text.
type Extractor struct {
	store  FileStore
	runner Runner
	opts   Options
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// New creates an Extractor. A nil runner executes real processes.
func New(store FileStore, runner Runner, opts *Options, logger *slog.Logger) *Extractor {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	limit := opts.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	return &Extractor{
		store:  store,
		runner: runner,
		opts:   *opts,
		sem:    semaphore.NewWeighted(limit),
		logger: logger,
	}
}

// Extract returns the text of the referenced file. ref may be a bare file
// id or a sharing URL. Unsupported formats yield empty text.
func (e *Extractor) Extract(ctx context.Context, ref string) (string, error) {
	id := ParseFileID(ref)
	if id == "" {
		return "", nil
	}

	meta, err := e.store.GetMetadata(ctx, id)
	if err != nil {
		return "", &Error{Kind: KindFetch, File: id, Message: "failed to get metadata", Cause: err}
	}
	logger := e.logger.With("file_id", id, "name", meta.Name)

	format := Classify(meta.Name, meta.MimeType)
	switch format {
	case FormatNative:
		text, err := e.store.ExportText(ctx, id)
		if err != nil {
			return "", &Error{Kind: KindFetch, File: id, Message: "failed to export document", Cause: err}
		}
		return strings.TrimSpace(text), nil
	case FormatUnsupported:
		logger.Warn("skipping unsupported document format", "mime_type", meta.MimeType)
		return "", nil
	}

	data, err := e.store.Download(ctx, id)
	if err != nil {
		return "", &Error{Kind: KindFetch, File: id, Message: "failed to download", Cause: err}
	}

	if format == FormatHTML {
		text, err := HTMLToText(data, e.opts.WrapWidth)
		if err != nil {
			return "", &Error{Kind: KindConversion, File: meta.Name, Message: "failed to convert HTML", Cause: err}
		}
		return strings.TrimSpace(text), nil
	}

	scratch, err := os.MkdirTemp(e.opts.TempDir, "extract-*")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warn("failed to remove scratch directory", "path", scratch, "error", err)
		}
	}()

	path := filepath.Join(scratch, safeName(meta.Name, format))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	text, err := e.convert(ctx, path, format, 0)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// convert dispatches a file already on disk to its converter.
func (e *Extractor) convert(ctx context.Context, path string, format Format, depth int) (string, error) {
	switch format {
	case FormatPDF:
		return e.pdfToText(ctx, path)
	case FormatHTML:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return HTMLToText(data, e.opts.WrapWidth)
	case FormatArchive:
		return e.extractArchive(ctx, path, depth)
	case FormatRTF:
		out, err := e.run(ctx, path, e.opts.Unrtf, "--text", path)
		return string(out), err
	case FormatWordDoc:
		out, err := e.run(ctx, path, e.opts.Catdoc, path)
		return string(out), err
	case FormatUnsupported:
		e.logger.Warn("skipping unsupported document format", "path", filepath.Base(path))
		return "", nil
	default:
		return e.pandoc(ctx, path)
	}
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (string, error) {
	out, err := e.run(ctx, path, e.opts.PDFToText, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (e *Extractor) pandoc(ctx context.Context, path string) (string, error) {
	output := path + ".out.txt"
	if _, err := e.run(ctx, path, e.opts.Pandoc, "-o", output, path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(output)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read pandoc output: %w", err)
	}
	return string(data), nil
}

// run executes a converter on the bounded pool.
func (e *Extractor) run(ctx context.Context, path, name string, args ...string) ([]byte, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	stdout, stderr, err := e.runner.Run(ctx, name, args...)
	if err != nil {
		return nil, &Error{
			Kind:    KindConversion,
			File:    filepath.Base(path),
			Message: name + " failed",
			Stdout:  string(stdout),
			Stderr:  string(stderr),
			Cause:   err,
		}
	}
	return stdout, nil
}

// safeName keeps the extension the converters dispatch on while dropping
// any directory components from the declared name.
func safeName(name string, format Format) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "document"
	}
	if format == FormatPDF && !strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base += ".pdf"
	}
	return base
}

var fileIDPrefixes = []string{
	"https://drive.google.com/open?id=",
	"https://drive.google.com/file/d/",
	"https://docs.google.com/document/d/",
	"https://drive.google.com/uc?id=",
}

// ParseFileID extracts the storage file id from a sharing URL. A bare id is
// returned unchanged.
func ParseFileID(ref string) string {
	id := strings.TrimSpace(ref)
	for _, p := range fileIDPrefixes {
		id = strings.TrimPrefix(id, p)
	}
	if i := strings.IndexAny(id, "/?&#"); i >= 0 {
		id = id[:i]
	}
	return id
}
