package terminal

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// fallback cycles for entities that carry no usable color.
var fallback = []tcell.Color{
	tcell.ColorYellow,
	tcell.ColorSilver,
	tcell.ColorOrange,
	tcell.ColorRoyalBlue,
	tcell.ColorRed,
	tcell.ColorTan,
	tcell.ColorWheat,
	tcell.ColorLightCyan,
	tcell.ColorSlateBlue,
}

// Palette picks the drawing color for an entity.
// A "#rrggbb" or named color wins; otherwise the color is chosen by index.
func Palette(color string, index int) tcell.Color {
	if c := strings.TrimSpace(color); c != "" {
		if tc := tcell.GetColor(strings.ToLower(c)); tc != tcell.ColorDefault {
			return tc
		}
	}
	if index < 0 {
		index = -index
	}
	return fallback[index%len(fallback)]
}

// Glyph is the rune an entity is drawn with.
func Glyph(name string) rune {
	for _, r := range name {
		return r
	}
	return '*'
}
