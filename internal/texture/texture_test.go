package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	data := encodePNG(t, 8, 4)

	tx, err := Decode("http://example.org/0/0/0.png", data)
	require.NoError(t, err)
	require.Equal(t, 8, tx.Image.Bounds().Dx())
	require.Equal(t, 4, tx.Image.Bounds().Dy())
	require.Equal(t, "http://example.org/0/0/0.png", tx.URL)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode("http://example.org/bad", []byte("not an image"))
	require.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Decode("http://example.org/empty", nil)
	require.Error(t, err)
}
