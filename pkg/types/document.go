// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DocumentKind classifies a source document by how its text can be reached.
type DocumentKind string

const (
	KindPDF   DocumentKind = "pdf"
	KindImage DocumentKind = "image"
	KindText  DocumentKind = "text"
	KindHTML  DocumentKind = "html"
)

// SourceType returns the storage label for the kind: "pdf", "ocr_image",
// or "unknown".
func (k DocumentKind) SourceType() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindImage:
		return "ocr_image"
	default:
		return "unknown"
	}
}

// Document identifies one source file. It is immutable once loaded.
type Document struct {
	// ID is the document fingerprint, used to address outputs and rows.
	ID string `json:"id" yaml:"id"`

	// Path is the local filesystem path of the source.
	Path string `json:"path" yaml:"path"`

	// Name is the base file name.
	Name string `json:"name" yaml:"name"`

	// Kind is derived from the file extension.
	Kind DocumentKind `json:"kind" yaml:"kind"`
}

// ExtractionMethod records which path produced a RawText.
type ExtractionMethod string

const (
	MethodDirect ExtractionMethod = "direct"
	MethodOCR    ExtractionMethod = "ocr"
	MethodNone   ExtractionMethod = "none"
)

// RawText is the concatenated page text of one document, produced by
// exactly one extraction method.
type RawText struct {
	Text   string           `json:"text" yaml:"text"`
	Method ExtractionMethod `json:"method" yaml:"method"`

	// Pages is the number of pages the source reported.
	Pages int `json:"pages" yaml:"pages"`

	// FailedPages lists 1-based page numbers that contributed nothing.
	FailedPages []int `json:"failed_pages,omitempty" yaml:"failed_pages,omitempty"`

	// Diagnostics holds non-fatal problems met during extraction.
	Diagnostics []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Empty reports whether the text has no non-whitespace content.
func (r RawText) Empty() bool {
	for _, c := range r.Text {
		switch c {
		case ' ', '\t', '\n', '\r', '\f', '\v':
		default:
			return false
		}
	}
	return true
}
