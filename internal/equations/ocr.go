// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package equations

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// LaTeXConverter turns an equation image into LaTeX source. Implemented
// by OCR engines; conversion quality is the engine's problem.
type LaTeXConverter interface {
	// ImageToLaTeX converts the image at imagePath to LaTeX.
	ImageToLaTeX(ctx context.Context, imagePath string) (string, error)
}

// Pix2TexConverter shells out to the pix2tex CLI.
type Pix2TexConverter struct {
	// Binary overrides the executable name, default "pix2tex".
	Binary string
}

func (p *Pix2TexConverter) binary() string {
	if p.Binary != "" {
		return p.Binary
	}
	return "pix2tex"
}

// Available reports whether the pix2tex binary is on PATH.
func (p *Pix2TexConverter) Available() bool {
	_, err := exec.LookPath(p.binary())
	return err == nil
}

// ImageToLaTeX runs pix2tex on the image and returns the recognized
// LaTeX. pix2tex echoes "path: latex", so the path prefix is stripped.
func (p *Pix2TexConverter) ImageToLaTeX(ctx context.Context, imagePath string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary(), imagePath)
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running pix2tex on %s: %w (%s)", imagePath, err, strings.TrimSpace(errOut.String()))
	}

	text := strings.TrimSpace(out.String())
	if i := strings.Index(text, ": "); i >= 0 && strings.HasPrefix(text, imagePath) {
		text = strings.TrimSpace(text[i+2:])
	}
	if text == "" {
		return "", fmt.Errorf("pix2tex produced no output for %s", imagePath)
	}
	return text, nil
}
