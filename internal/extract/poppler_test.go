// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

// mockRunner records invocations and replies from a table keyed by tool name.
type mockRunner struct {
	out     map[string]string
	err     map[string]error
	missing map[string]bool
	calls   []call
}

func (m *mockRunner) LookPath(file string) (string, error) {
	if m.missing[file] {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/usr/bin/" + file, nil
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, call{name: name, args: args})
	if err := m.err[name]; err != nil {
		return nil, err
	}
	return []byte(m.out[name]), nil
}

const pdfinfoOutput = `Title:          Terms of Service
Producer:       LibreOffice
Pages:          12
Encrypted:      no
`

func TestPopplerPageCount(t *testing.T) {
	r := &mockRunner{out: map[string]string{"pdfinfo": pdfinfoOutput}}
	n, err := NewPoppler(r, 0).PageCount(context.Background(), "terms.pdf")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestPopplerPageCountErrors(t *testing.T) {
	tests := []struct {
		name string
		r    *mockRunner
	}{
		{"tool fails", &mockRunner{err: map[string]error{"pdfinfo": errors.New("exit status 1")}}},
		{"no pages line", &mockRunner{out: map[string]string{"pdfinfo": "Title: x\n"}}},
		{"bad number", &mockRunner{out: map[string]string{"pdfinfo": "Pages: many\n"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPoppler(tt.r, 0).PageCount(context.Background(), "terms.pdf")
			assert.Error(t, err)
		})
	}
}

func TestPopplerPageTextArgs(t *testing.T) {
	r := &mockRunner{out: map[string]string{"pdftotext": "Clause text"}}
	text, err := NewPoppler(r, 0).PageText(context.Background(), "terms.pdf", 3)
	require.NoError(t, err)
	assert.Equal(t, "Clause text", text)
	require.Len(t, r.calls, 1)
	assert.Equal(t, "-f 3 -l 3 -layout -enc UTF-8 terms.pdf -", strings.Join(r.calls[0].args, " "))
}

func TestPopplerRenderPage(t *testing.T) {
	r := &mockRunner{}
	img, err := NewPoppler(r, 200).RenderPage(context.Background(), "terms.pdf", 2, "/tmp/work")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/work/page-2.png", img)
	assert.Equal(t, "pdftoppm", r.calls[0].name)
	assert.Contains(t, strings.Join(r.calls[0].args, " "), "-r 200 -png -singlefile terms.pdf /tmp/work/page-2")
}

func TestPopplerCheck(t *testing.T) {
	assert.NoError(t, NewPoppler(&mockRunner{}, 0).Check())
	err := NewPoppler(&mockRunner{missing: map[string]bool{"pdftoppm": true}}, 0).Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftoppm")
}

func TestTesseractRecognize(t *testing.T) {
	r := &mockRunner{out: map[string]string{"tesseract": "Recognized text\n"}}
	ocr := NewTesseract(r, "")
	text, err := ocr.Recognize(context.Background(), "page-1.png")
	require.NoError(t, err)
	assert.Equal(t, "Recognized text\n", text)
	assert.Equal(t, []string{"page-1.png", "stdout", "-l", "eng"}, r.calls[0].args)

	assert.Error(t, NewTesseract(&mockRunner{missing: map[string]bool{"tesseract": true}}, "deu").Check())
}
