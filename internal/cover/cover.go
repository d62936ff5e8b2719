// Package cover prepares extracted cover art for embedding.
package cover

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Result describes the image to embed.
type Result struct {
	Path    string
	Format  string
	Width   int
	Height  int
	Resized bool
}

// Normalize shrinks the image at path to fit within maxDimension on both
// axes, writing a JPEG next to the original. Images already within bounds,
// or any image when maxDimension <= 0, are returned untouched. On error the
// Result still points at the original file.
func Normalize(path string, maxDimension int) (Result, error) {
	res := Result{Path: path}
	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("open cover: %w", err)
	}
	cfg, format, err := image.DecodeConfig(f)
	_ = f.Close()
	if err != nil {
		return res, fmt.Errorf("decode cover header: %w", err)
	}
	res.Format = format
	res.Width, res.Height = cfg.Width, cfg.Height
	if maxDimension <= 0 || (cfg.Width <= maxDimension && cfg.Height <= maxDimension) {
		return res, nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return res, fmt.Errorf("decode cover: %w", err)
	}
	img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	dest := strings.TrimSuffix(path, filepath.Ext(path)) + "_normalized.jpg"
	if err := imaging.Save(img, dest, imaging.JPEGQuality(90)); err != nil {
		return res, fmt.Errorf("encode cover: %w", err)
	}
	bounds := img.Bounds()
	return Result{
		Path:    dest,
		Format:  "jpeg",
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Resized: true,
	}, nil
}
