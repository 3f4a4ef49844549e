// Package imageproc normalizes submitted artwork photos: brightness,
// downscaling and JPEG re-encoding under a hard size limit.
package imageproc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	ErrPayloadTooLarge  = errors.New("encoded image exceeds size limit")
	ErrInvalidDataURL   = errors.New("invalid image data url")
	ErrUnsupportedImage = errors.New("unsupported image format")
)

// Options bound the output of the pipeline.
type Options struct {
	MaxDimension int
	Quality      int
	MaxBytes     int64
}

// Processor runs the submission image pipeline.
type Processor struct {
	opts Options
}

// New creates a Processor.
func New(opts Options) *Processor {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 80
	}
	return &Processor{opts: opts}
}

// DecodeDataURL extracts the bytes of a base64 "data:image/...;base64," url.
func DecodeDataURL(s string) ([]byte, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return data, nil
}

// Process decodes r, applies the brightness factor (1.0 is neutral), fits
// the image into MaxDimension and re-encodes it as JPEG. An encoded result
// larger than MaxBytes is rejected, never truncated.
func (p *Processor) Process(r io.Reader, brightness float64) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if pct := brightnessPercent(brightness); pct != 0 {
		img = imaging.AdjustBrightness(img, pct)
	}
	if p.opts.MaxDimension > 0 {
		img = imaging.Fit(img, p.opts.MaxDimension, p.opts.MaxDimension, imaging.Lanczos)
	}

	out, err := p.encode(img)
	if err != nil {
		return nil, err
	}
	if p.opts.MaxBytes > 0 && int64(len(out)) > p.opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrPayloadTooLarge, len(out), p.opts.MaxBytes)
	}
	return out, nil
}

// Thumbnail renders a size x size center-cropped JPEG of data.
func (p *Processor) Thumbnail(data []byte, size int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return p.encode(imaging.Thumbnail(img, size, size, imaging.Lanczos))
}

func (p *Processor) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.opts.Quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// brightnessPercent maps a brightness factor onto imaging's -100..100 range.
func brightnessPercent(factor float64) float64 {
	if factor <= 0 {
		return -100
	}
	pct := (factor - 1) * 100
	return min(max(pct, -100), 100)
}
