package tiles

import (
	"fmt"
	"strings"

	"github.com/helioforge/planetview/internal/geo"
)

// Source builds tile image URLs in the {base}/{level}/{row}/{col}.{ext}
// tile-matrix convention.
type Source struct {
	baseURL   string
	extension string
}

// NewSource creates a tile source. A trailing slash on baseURL and a
// leading dot on extension are accepted and stripped.
func NewSource(baseURL, extension string) Source {
	return Source{
		baseURL:   strings.TrimRight(baseURL, "/"),
		extension: strings.TrimPrefix(extension, "."),
	}
}

// TileURL returns the image URL for a tile.
func (s Source) TileURL(id geo.TileID) string {
	return fmt.Sprintf("%s/%d/%d/%d.%s", s.baseURL, id.Level, id.Row, id.Col, s.extension)
}
