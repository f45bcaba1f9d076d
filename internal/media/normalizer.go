package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 512
	jpegQuality         = 85
)

type Upload struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

type Result struct {
	Bytes       []byte
	ContentType string
	Resized     bool
}

// Normalizer turns an uploaded avatar into a bounded JPEG: decode (JPEG, PNG,
// GIF or WebP), downscale to fit the configured dimension, re-encode.
type Normalizer struct {
	maxDimension int
}

func NewNormalizer(maxDimension int) *Normalizer {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Normalizer{maxDimension: maxDimension}
}

func (n *Normalizer) Normalize(upload Upload) (*Result, error) {
	if upload.Reader == nil {
		return nil, fmt.Errorf("media: empty reader")
	}
	src, _, err := image.Decode(upload.Reader)
	if err != nil {
		return nil, fmt.Errorf("media: decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("media: empty image")
	}

	resized := false
	if width > n.maxDimension || height > n.maxDimension {
		scale := float64(n.maxDimension) / float64(width)
		if height > width {
			scale = float64(n.maxDimension) / float64(height)
		}
		dstW := int(float64(width) * scale)
		dstH := int(float64(height) * scale)
		if dstW < 1 {
			dstW = 1
		}
		if dstH < 1 {
			dstH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
		resized = true
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("media: encode image: %w", err)
	}
	return &Result{Bytes: buf.Bytes(), ContentType: "image/jpeg", Resized: resized}, nil
}
