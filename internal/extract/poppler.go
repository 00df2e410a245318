// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// CommandRunner runs an external tool and returns its standard output.
type CommandRunner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner is the production CommandRunner backed by os/exec.
type ExecRunner struct{}

func (ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Poppler reads PDF page counts and text layers with pdfinfo and pdftotext,
// and rasterizes pages with pdftoppm.
type Poppler struct {
	runner CommandRunner
	dpi    int
}

// NewPoppler returns a Poppler that renders pages at dpi.
func NewPoppler(runner CommandRunner, dpi int) *Poppler {
	if dpi <= 0 {
		dpi = 300
	}
	return &Poppler{runner: runner, dpi: dpi}
}

// Check reports a missing poppler binary.
func (p *Poppler) Check() error {
	for _, bin := range []string{"pdfinfo", "pdftotext", "pdftoppm"} {
		if _, err := p.runner.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found on PATH (install poppler-utils): %w", bin, err)
		}
	}
	return nil
}

// PageCount returns the number of pages pdfinfo reports for path.
func (p *Poppler) PageCount(ctx context.Context, path string) (int, error) {
	out, err := p.runner.Run(ctx, "pdfinfo", path)
	if err != nil {
		return 0, fmt.Errorf("reading PDF info for %s: %w", path, err)
	}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Pages" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("parsing page count %q: %w", value, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("no page count in pdfinfo output for %s", path)
}

// PageText returns the text layer of one 1-based page.
func (p *Poppler) PageText(ctx context.Context, path string, page int) (string, error) {
	n := strconv.Itoa(page)
	out, err := p.runner.Run(ctx, "pdftotext", "-f", n, "-l", n, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", fmt.Errorf("extracting text of page %d: %w", page, err)
	}
	return string(out), nil
}

// RenderPage rasterizes one 1-based page to a PNG in dir and returns its path.
func (p *Poppler) RenderPage(ctx context.Context, path string, page int, dir string) (string, error) {
	n := strconv.Itoa(page)
	prefix := filepath.Join(dir, "page-"+n)
	_, err := p.runner.Run(ctx, "pdftoppm",
		"-f", n, "-l", n, "-r", strconv.Itoa(p.dpi), "-png", "-singlefile", path, prefix)
	if err != nil {
		return "", fmt.Errorf("rendering page %d: %w", page, err)
	}
	return prefix + ".png", nil
}
