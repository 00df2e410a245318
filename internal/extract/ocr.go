// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/clause-risk/internal/container"
)

// Recognizer turns one page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Tesseract runs a host-installed tesseract binary.
type Tesseract struct {
	runner   CommandRunner
	language string
}

// NewTesseract returns a Recognizer for language (default "eng").
func NewTesseract(runner CommandRunner, language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{runner: runner, language: language}
}

// Check reports a missing tesseract binary.
func (t *Tesseract) Check() error {
	if _, err := t.runner.LookPath("tesseract"); err != nil {
		return fmt.Errorf("tesseract not found on PATH: %w", err)
	}
	return nil
}

func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	out, err := t.runner.Run(ctx, "tesseract", imagePath, "stdout", "-l", t.language)
	if err != nil {
		return "", fmt.Errorf("recognizing %s: %w", imagePath, err)
	}
	return string(out), nil
}

// ContainerTesseract pipes page images through tesseract inside a
// container image.
type ContainerTesseract struct {
	runtime  container.Runtime
	image    string
	language string
}

// NewContainerTesseract verifies that image exists in rt before returning.
func NewContainerTesseract(ctx context.Context, rt container.Runtime, image, language string) (*ContainerTesseract, error) {
	if language == "" {
		language = "eng"
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("tesseract image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerTesseract{runtime: rt, image: image, language: language}, nil
}

func (c *ContainerTesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("opening image %s: %w", imagePath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	args := []string{"tesseract", "stdin", "stdout", "-l", c.language}
	if err := c.runtime.Run(ctx, c.image, args, f, &out); err != nil {
		return "", fmt.Errorf("recognizing %s in container: %w", imagePath, err)
	}
	return out.String(), nil
}
