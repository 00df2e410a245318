// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Combinable reports whether an image at path can be placed into a PDF by
// CombineImages. PNG, JPEG and GIF are supported.
func Combinable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

// CombineImages writes the images in paths, in order, to a PDF at out with
// one page per image sized to the image. The result has no text layer, so
// extraction falls through to OCR for every page.
func CombineImages(paths []string, out string) error {
	if len(paths) == 0 {
		return errors.New("no images to combine")
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	opts := gofpdf.ImageOptions{ReadDpi: true}
	for _, p := range paths {
		if !Combinable(p) {
			return fmt.Errorf("%s: %w", p, ErrUnsupported)
		}
		info := pdf.RegisterImageOptions(p, opts)
		if pdf.Err() {
			return fmt.Errorf("registering image %s: %w", p, pdf.Error())
		}
		w, h := info.Extent()
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		pdf.ImageOptions(p, 0, 0, w, h, false, opts, 0, "")
	}
	if err := pdf.OutputFileAndClose(out); err != nil {
		return fmt.Errorf("writing combined PDF %s: %w", out, err)
	}
	return nil
}
