// Package texture provides tile texture decoding, fetching over HTTP, and
// a bounded LRU cache of decoded textures.
package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// MaxDimension caps decoded texture size; larger images are downscaled.
const MaxDimension = 2048

// Texture is a decoded tile image plus the GPU-side disposal hook that a
// renderer installs on upload. All methods must be called from the
// cooperative (main) thread.
type Texture struct {
	URL   string
	Image *image.RGBA

	disposer func()
	released bool
}

// SetDisposer registers a callback invoked once on Release, typically to
// free the GPU copy of this texture.
func (t *Texture) SetDisposer(f func()) {
	t.disposer = f
}

// Release frees the texture's resources. Safe to call more than once.
func (t *Texture) Release() {
	if t.released {
		return
	}
	t.released = true
	if t.disposer != nil {
		t.disposer()
		t.disposer = nil
	}
	t.Image = nil
}

// Released reports whether Release has been called.
func (t *Texture) Released() bool { return t.released }

// Decode decodes JPEG or PNG tile data into an RGBA texture, downscaling
// anything above MaxDimension with a Catmull-Rom kernel.
func Decode(url string, data []byte) (*Texture, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("decoding %s: empty image", format)
	}

	if w > MaxDimension || h > MaxDimension {
		scale := float64(MaxDimension) / float64(max(w, h))
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, xdraw.Src, nil)
		return &Texture{URL: url, Image: scaled}, nil
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return &Texture{URL: url, Image: rgba}, nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return &Texture{URL: url, Image: rgba}, nil
}
