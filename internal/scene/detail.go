package scene

// Detail is a texture quality tier derived from a tile's quadtree level.
// It replaces by-name quality selection with a typed variant.
type Detail int

const (
	DetailMinimal Detail = iota
	DetailLow
	DetailMedium
	DetailHigh
	DetailUltra
)

// DetailForLevel maps a quadtree level to a quality tier, scaled so that
// maxLevel always reaches DetailUltra.
func DetailForLevel(level, maxLevel int) Detail {
	if maxLevel <= 0 {
		return DetailUltra
	}
	if level < 0 {
		level = 0
	}
	if level > maxLevel {
		level = maxLevel
	}
	d := Detail(level * int(DetailUltra) / maxLevel)
	return d
}

// MaxAnisotropy returns the filtering cap for this tier.
func (d Detail) MaxAnisotropy() float64 {
	switch d {
	case DetailMinimal:
		return 1
	case DetailLow:
		return 2
	case DetailMedium:
		return 4
	case DetailHigh:
		return 8
	default:
		return 16
	}
}

// String returns a human-readable tier name.
func (d Detail) String() string {
	switch d {
	case DetailMinimal:
		return "minimal"
	case DetailLow:
		return "low"
	case DetailMedium:
		return "medium"
	case DetailHigh:
		return "high"
	case DetailUltra:
		return "ultra"
	default:
		return "unknown"
	}
}
