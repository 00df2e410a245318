// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract produces raw text from source documents. PDFs are read
// through their text layer first; only when that yields nothing are pages
// rendered and run through OCR. Images always go through OCR.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/clause-risk/internal/worker"
	"github.com/pdiddy/clause-risk/pkg/types"
)

// pageSeparator joins page texts in page order.
const pageSeparator = "\n"

// ErrUnsupported is returned by Load for file types no extractor handles.
var ErrUnsupported = errors.New("unsupported document type")

var kindByExt = map[string]types.DocumentKind{
	".pdf":  types.KindPDF,
	".png":  types.KindImage,
	".jpg":  types.KindImage,
	".jpeg": types.KindImage,
	".gif":  types.KindImage,
	".tif":  types.KindImage,
	".tiff": types.KindImage,
	".bmp":  types.KindImage,
	".txt":  types.KindText,
	".html": types.KindHTML,
	".htm":  types.KindHTML,
}

// KindOf classifies path by extension. ok is false for unsupported types.
func KindOf(path string) (types.DocumentKind, bool) {
	k, ok := kindByExt[strings.ToLower(filepath.Ext(path))]
	return k, ok
}

// Fingerprint identifies a document by owner, folder and file name.
func Fingerprint(owner, folder, name string) string {
	folder = filepath.ToSlash(filepath.Clean(folder))
	sum := sha256.Sum256([]byte(fmt.Sprintf("user=%s::folder=%s::file=%s", owner, folder, name)))
	return hex.EncodeToString(sum[:])
}

// Load describes the file at path as a Document owned by owner.
func Load(path, owner string) (types.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("reading document %s: %w", path, err)
	}
	if info.IsDir() {
		return types.Document{}, fmt.Errorf("%s is a directory", path)
	}
	kind, ok := KindOf(path)
	if !ok {
		return types.Document{}, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	name := filepath.Base(abs)
	return types.Document{
		ID:   Fingerprint(owner, filepath.Dir(abs), name),
		Path: abs,
		Name: name,
		Kind: kind,
	}, nil
}

// TextLayer reads the embedded text of PDF pages.
type TextLayer interface {
	PageCount(ctx context.Context, path string) (int, error)
	PageText(ctx context.Context, path string, page int) (string, error)
}

// Rasterizer renders a PDF page to an image file inside dir.
type Rasterizer interface {
	RenderPage(ctx context.Context, path string, page int, dir string) (string, error)
}

// Extractor turns documents into RawText.
type Extractor struct {
	text       TextLayer
	raster     Rasterizer
	ocr        Recognizer
	workers    int
	ocrTimeout time.Duration
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithOCRWorkers bounds how many pages are recognized at once.
func WithOCRWorkers(n int) Option {
	return func(e *Extractor) { e.workers = n }
}

// WithOCRTimeout caps the wall-clock time of the whole OCR fallback.
func WithOCRTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.ocrTimeout = d }
}

// New returns an Extractor. ocr may be nil, in which case documents without
// a text layer come back empty.
func New(text TextLayer, raster Rasterizer, ocr Recognizer, opts ...Option) *Extractor {
	e := &Extractor{text: text, raster: raster, ocr: ocr, workers: 4}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the raw text of doc. It never fails: an unreadable
// document yields empty text with Method none and a diagnostic, and pages
// that fail are skipped and listed in FailedPages.
func (e *Extractor) Extract(ctx context.Context, doc types.Document) types.RawText {
	logger := log.With().Str("document", doc.Name).Str("stage", "extract").Logger()

	var raw types.RawText
	switch doc.Kind {
	case types.KindText:
		raw = readPlainText(doc.Path)
	case types.KindHTML:
		raw = readHTMLFile(doc.Path)
	case types.KindPDF:
		raw = e.extractPDF(ctx, doc.Path)
	case types.KindImage:
		raw = e.extractImage(ctx, doc.Path)
	default:
		raw = failed(fmt.Sprintf("unsupported document kind %q", doc.Kind))
	}

	for _, d := range raw.Diagnostics {
		logger.Warn().Msg(d)
	}
	logger.Debug().
		Str("method", string(raw.Method)).
		Int("pages", raw.Pages).
		Ints("failed_pages", raw.FailedPages).
		Int("chars", len(raw.Text)).
		Msg("extraction finished")
	return raw
}

func failed(diag string) types.RawText {
	return types.RawText{Method: types.MethodNone, Diagnostics: []string{diag}}
}

func readPlainText(path string) types.RawText {
	data, err := os.ReadFile(path)
	if err != nil {
		return failed(fmt.Sprintf("reading %s: %v", path, err))
	}
	raw := types.RawText{Text: string(data), Method: types.MethodDirect, Pages: 1}
	if raw.Empty() {
		raw.Method = types.MethodNone
		raw.Diagnostics = []string{"document contains no text"}
	}
	return raw
}

func readHTMLFile(path string) types.RawText {
	f, err := os.Open(path)
	if err != nil {
		return failed(fmt.Sprintf("opening %s: %v", path, err))
	}
	defer f.Close()

	text, err := HTMLText(f)
	if err != nil {
		return failed(fmt.Sprintf("parsing HTML %s: %v", path, err))
	}
	raw := types.RawText{Text: text, Method: types.MethodDirect, Pages: 1}
	if raw.Empty() {
		raw.Method = types.MethodNone
		raw.Diagnostics = []string{"HTML page contains no visible text"}
	}
	return raw
}

func (e *Extractor) extractPDF(ctx context.Context, path string) types.RawText {
	if e.text == nil {
		return failed("no PDF text reader configured")
	}
	pages, err := e.text.PageCount(ctx, path)
	if err != nil {
		return failed(fmt.Sprintf("unreadable PDF: %v", err))
	}

	raw := types.RawText{Pages: pages}
	var texts []string
	var directFailed []int
	for page := 1; page <= pages; page++ {
		text, err := e.text.PageText(ctx, path, page)
		if err != nil {
			directFailed = append(directFailed, page)
			raw.Diagnostics = append(raw.Diagnostics, fmt.Sprintf("page %d: %v", page, err))
			continue
		}
		if text = trimPage(text); text != "" {
			texts = append(texts, text)
		}
	}

	direct := strings.Join(texts, pageSeparator)
	if strings.TrimSpace(direct) != "" {
		raw.Text = direct
		raw.Method = types.MethodDirect
		raw.FailedPages = directFailed
		return raw
	}

	// No usable text layer: the whole document goes through OCR.
	return e.ocrPages(ctx, path, raw)
}

type pageResult struct {
	text string
	err  error
	done bool
}

func (e *Extractor) ocrPages(ctx context.Context, path string, raw types.RawText) types.RawText {
	if e.ocr == nil || e.raster == nil {
		raw.Method = types.MethodNone
		raw.Diagnostics = append(raw.Diagnostics, "no text layer and OCR is not configured")
		return raw
	}

	if e.ocrTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.ocrTimeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "clause-risk-ocr-*")
	if err != nil {
		raw.Method = types.MethodNone
		raw.Diagnostics = append(raw.Diagnostics, fmt.Sprintf("creating OCR work directory: %v", err))
		return raw
	}
	defer os.RemoveAll(dir)

	results := worker.Map(ctx, e.workers, raw.Pages, func(ctx context.Context, i int) pageResult {
		page := i + 1
		img, err := e.raster.RenderPage(ctx, path, page, dir)
		if err != nil {
			return pageResult{err: err, done: true}
		}
		defer os.Remove(img)
		text, err := e.ocr.Recognize(ctx, img)
		return pageResult{text: text, err: err, done: true}
	})

	var texts []string
	for i, r := range results {
		page := i + 1
		switch {
		case !r.done:
			raw.FailedPages = append(raw.FailedPages, page)
			raw.Diagnostics = append(raw.Diagnostics, fmt.Sprintf("page %d: OCR not run: %v", page, ctx.Err()))
		case r.err != nil:
			raw.FailedPages = append(raw.FailedPages, page)
			raw.Diagnostics = append(raw.Diagnostics, fmt.Sprintf("page %d: %v", page, r.err))
		default:
			if text := trimPage(r.text); text != "" {
				texts = append(texts, text)
			}
		}
	}

	raw.Text = strings.Join(texts, pageSeparator)
	raw.Method = types.MethodOCR
	if strings.TrimSpace(raw.Text) == "" {
		raw.Text = ""
		raw.Method = types.MethodNone
		raw.Diagnostics = append(raw.Diagnostics, "no text found by direct extraction or OCR")
	}
	return raw
}

func (e *Extractor) extractImage(ctx context.Context, path string) types.RawText {
	raw := types.RawText{Pages: 1}
	if e.ocr == nil {
		raw.Method = types.MethodNone
		raw.Diagnostics = []string{"image document but OCR is not configured"}
		return raw
	}
	if e.ocrTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.ocrTimeout)
		defer cancel()
	}

	text, err := e.ocr.Recognize(ctx, path)
	if err != nil {
		raw.Method = types.MethodNone
		raw.FailedPages = []int{1}
		raw.Diagnostics = []string{fmt.Sprintf("page 1: %v", err)}
		return raw
	}
	raw.Text = trimPage(text)
	raw.Method = types.MethodOCR
	if raw.Text == "" {
		raw.Method = types.MethodNone
		raw.Diagnostics = []string{"no text found by OCR"}
	}
	return raw
}

// trimPage drops the trailing form feed and blank lines tools append to
// each page.
func trimPage(s string) string {
	s = strings.TrimRight(s, " \t\r\n\f")
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}
