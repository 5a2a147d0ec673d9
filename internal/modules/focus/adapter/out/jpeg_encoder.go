package out

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	focusout "focusmate/internal/modules/focus/port/out"
)

const (
	dataURLPrefix  = "data:image/jpeg;base64,"
	minQuality     = 30
	qualityStep    = 10
	defaultQuality = 80
)

// JPEGEncoder downsizes frames to MaxWidth and lowers the quality until the
// encoded image fits in MaxBytes.
type JPEGEncoder struct {
	MaxWidth int
	Quality  int
	MaxBytes int
}

func NewJPEGEncoder(maxWidth, quality, maxBytes int) focusout.FrameEncoder {
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}
	return JPEGEncoder{MaxWidth: maxWidth, Quality: quality, MaxBytes: maxBytes}
}

func (e JPEGEncoder) Encode(img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", fmt.Errorf("encode frame: empty image")
	}
	src := e.scale(img)

	var buf bytes.Buffer
	for q := e.Quality; ; q -= qualityStep {
		if q < minQuality {
			q = minQuality
		}
		buf.Reset()
		if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: q}); err != nil {
			return "", fmt.Errorf("encode jpeg: %w", err)
		}
		if e.MaxBytes <= 0 || buf.Len() <= e.MaxBytes {
			break
		}
		if q == minQuality {
			return "", fmt.Errorf("encode jpeg: %d bytes exceeds limit %d", buf.Len(), e.MaxBytes)
		}
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (e JPEGEncoder) scale(img image.Image) image.Image {
	b := img.Bounds()
	if e.MaxWidth <= 0 || b.Dx() <= e.MaxWidth {
		return img
	}
	h := b.Dy() * e.MaxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, e.MaxWidth, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
