package ink

import "strings"

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1.0}
}

// ScaleAlpha returns the color with its alpha multiplied by f,
// clamped to [0, 1]. Used to apply stroke opacity on top of any
// alpha already present in the color token.
func (c RGBA) ScaleAlpha(f float64) RGBA {
	c.A = clamp01(c.A * f)
	return c
}

// ParseColor resolves a stroke color token to an RGBA value.
// It accepts hex tokens ("#RGB", "#RGBA", "#RRGGBB", "#RRGGBBAA",
// with or without the leading '#') and a set of common color names.
// Unparseable tokens resolve to opaque black so a bad color never
// fails a render.
func ParseColor(token string) RGBA {
	t := strings.TrimSpace(token)
	if c, ok := namedColors[strings.ToLower(t)]; ok {
		return c
	}
	if c, ok := parseHexColor(t); ok {
		return c
	}
	return Black
}

// parseHexColor parses hex color tokens in the four CSS lengths.
func parseHexColor(hex string) (RGBA, bool) {
	if hex != "" && hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint32
	a = 255
	ok := true

	switch len(hex) {
	case 3: // RGB
		ok = parseHex(hex[0:1], &r) && parseHex(hex[1:2], &g) && parseHex(hex[2:3], &b)
		r, g, b = r*17, g*17, b*17
	case 4: // RGBA
		ok = parseHex(hex[0:1], &r) && parseHex(hex[1:2], &g) &&
			parseHex(hex[2:3], &b) && parseHex(hex[3:4], &a)
		r, g, b, a = r*17, g*17, b*17, a*17
	case 6: // RRGGBB
		ok = parseHex(hex[0:2], &r) && parseHex(hex[2:4], &g) && parseHex(hex[4:6], &b)
	case 8: // RRGGBBAA
		ok = parseHex(hex[0:2], &r) && parseHex(hex[2:4], &g) &&
			parseHex(hex[4:6], &b) && parseHex(hex[6:8], &a)
	default:
		return RGBA{}, false
	}
	if !ok {
		return RGBA{}, false
	}

	return RGBA{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}, true
}

// parseHex is a helper for hex parsing
func parseHex(s string, val *uint32) bool {
	*val = 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		*val *= 16
		switch {
		case '0' <= c && c <= '9':
			*val += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			*val += uint32(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			*val += uint32(c - 'A' + 10)
		default:
			return false
		}
	}
	return true
}

// Common colors
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Red         = RGB(1, 0, 0)
	Green       = RGB(0, 0.5, 0)
	Blue        = RGB(0, 0, 1)
	Yellow      = RGB(1, 1, 0)
	Cyan        = RGB(0, 1, 1)
	Magenta     = RGB(1, 0, 1)
	Transparent = RGBA{}
)

// namedColors covers the color names stroke tokens commonly use.
// Values follow the CSS named-color definitions.
var namedColors = map[string]RGBA{
	"black":       Black,
	"white":       White,
	"red":         Red,
	"green":       Green,
	"blue":        Blue,
	"yellow":      Yellow,
	"cyan":        Cyan,
	"magenta":     Magenta,
	"orange":      RGB(1, 0.647, 0),
	"purple":      RGB(0.5, 0, 0.5),
	"pink":        RGB(1, 0.753, 0.796),
	"brown":       RGB(0.647, 0.165, 0.165),
	"gray":        RGB(0.5, 0.5, 0.5),
	"grey":        RGB(0.5, 0.5, 0.5),
	"lime":        RGB(0, 1, 0),
	"transparent": Transparent,
}
