package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Processor shrinks uploaded pictures to fit a square box and re-encodes them as JPEG.
type Processor struct {
	maxSide int
	quality int
}

func NewProcessor(maxSide, quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 70
	}
	return &Processor{maxSide: maxSide, quality: quality}
}

// Process decodes jpeg, png or webp input and returns the JPEG bytes.
func (p *Processor) Process(r io.Reader) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := p.fit(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// fit keeps the aspect ratio and never upscales.
func (p *Processor) fit(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= p.maxSide && h <= p.maxSide {
		return img
	}

	nw, nh := p.maxSide, p.maxSide
	if w > h {
		nh = h * p.maxSide / w
	} else {
		nw = w * p.maxSide / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
