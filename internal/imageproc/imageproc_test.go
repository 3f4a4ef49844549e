package imageproc

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(w, h, c)))
	return buf.Bytes()
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestDecodeDataURL(t *testing.T) {
	raw := []byte("hello")
	got, err := DecodeDataURL("data:image/png;base64," + base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	for _, bad := range []string{"", "hello", "data:text/plain;base64,aGk=", "data:image/png,plain", "data:image/png;base64,%%%"} {
		_, err := DecodeDataURL(bad)
		assert.ErrorIs(t, err, ErrInvalidDataURL, bad)
	}
}

func TestProcessDownscalesAndEncodesJPEG(t *testing.T) {
	p := New(Options{MaxDimension: 100, Quality: 80})
	out, err := p.Process(bytes.NewReader(pngBytes(t, 400, 200, color.White)), 1.0)
	require.NoError(t, err)

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	bounds := decode(t, out).Bounds()
	assert.Equal(t, 100, bounds.Dx())
	assert.Equal(t, 50, bounds.Dy())
}

func TestProcessDoesNotUpscale(t *testing.T) {
	p := New(Options{MaxDimension: 1600})
	out, err := p.Process(bytes.NewReader(pngBytes(t, 40, 30, color.White)), 1.0)
	require.NoError(t, err)
	assert.Equal(t, 40, decode(t, out).Bounds().Dx())
}

func TestProcessAppliesBrightness(t *testing.T) {
	gray := color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	p := New(Options{Quality: 100})

	neutral, err := p.Process(bytes.NewReader(pngBytes(t, 8, 8, gray)), 1.0)
	require.NoError(t, err)
	bright, err := p.Process(bytes.NewReader(pngBytes(t, 8, 8, gray)), 1.5)
	require.NoError(t, err)

	rn, _, _, _ := decode(t, neutral).At(4, 4).RGBA()
	rb, _, _, _ := decode(t, bright).At(4, 4).RGBA()
	assert.Greater(t, rb, rn)
}

func TestProcessRejectsOversizedOutput(t *testing.T) {
	p := New(Options{MaxBytes: 64})
	_, err := p.Process(bytes.NewReader(pngBytes(t, 64, 64, color.White)), 1.0)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestProcessRejectsGarbage(t *testing.T) {
	p := New(Options{})
	_, err := p.Process(bytes.NewReader([]byte("not an image")), 1.0)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestThumbnailIsSquare(t *testing.T) {
	p := New(Options{})
	out, err := p.Thumbnail(pngBytes(t, 300, 120, color.Black), 32)
	require.NoError(t, err)
	b := decode(t, out).Bounds()
	assert.Equal(t, 32, b.Dx())
	assert.Equal(t, 32, b.Dy())
}

func TestBrightnessPercent(t *testing.T) {
	assert.Equal(t, 0.0, brightnessPercent(1.0))
	assert.InDelta(t, 50.0, brightnessPercent(1.5), 1e-9)
	assert.Equal(t, 100.0, brightnessPercent(3.0))
	assert.Equal(t, -100.0, brightnessPercent(0))
}
