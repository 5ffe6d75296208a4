package layout

import (
	"fmt"
	"maps"
	"slices"
)

// RGB is a 24-bit colour
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette is the colour set of one theme
type Palette struct {
	Name string

	DescriptionBg RGB
	DescriptionFg RGB

	// autocompletion line
	ActiveBg   RGB
	InactiveBg RGB

	// suggestion lines
	SuggestionBg       RGB
	SuggestionActiveBg RGB

	Text     RGB
	Kept     RGB
	Inserted RGB
	Altered  RGB
	Help     RGB
}

// Tag returns the foreground for a markup tag; unknown tags use Text
func (p Palette) Tag(tag string) RGB {
	switch tag {
	case "kept":
		return p.Kept
	case "ins":
		return p.Inserted
	case "alt":
		return p.Altered
	case "help":
		return p.Help
	default:
		return p.Text
	}
}

func theme(name string, dark, mid, light, accent RGB) Palette {
	return Palette{
		Name:               name,
		DescriptionBg:      mid,
		DescriptionFg:      RGB{255, 255, 255},
		ActiveBg:           dark,
		InactiveBg:         RGB{40, 40, 40},
		SuggestionBg:       RGB{28, 28, 28},
		SuggestionActiveBg: dark,
		Text:               RGB{220, 220, 220},
		Kept:               RGB{255, 255, 255},
		Inserted:           light,
		Altered:            accent,
		Help:               RGB{150, 150, 150},
	}
}

var palettes = map[string]Palette{
	"green":   theme("green", RGB{20, 90, 20}, RGB{60, 140, 60}, RGB{150, 230, 120}, RGB{255, 200, 80}),
	"orange":  theme("orange", RGB{120, 60, 0}, RGB{190, 110, 30}, RGB{255, 190, 110}, RGB{120, 200, 255}),
	"magenta": theme("magenta", RGB{100, 20, 90}, RGB{160, 60, 150}, RGB{240, 150, 230}, RGB{160, 240, 120}),
	"cyan":    theme("cyan", RGB{0, 90, 100}, RGB{30, 150, 160}, RGB{140, 230, 240}, RGB{255, 170, 120}),
	"red":     theme("red", RGB{110, 20, 20}, RGB{170, 50, 50}, RGB{255, 150, 150}, RGB{130, 220, 255}),
	"blue":    theme("blue", RGB{20, 40, 120}, RGB{60, 90, 190}, RGB{150, 180, 255}, RGB{255, 230, 120}),
	"desert":  theme("desert", RGB{110, 90, 50}, RGB{170, 140, 90}, RGB{240, 215, 160}, RGB{120, 200, 200}),
}

// DefaultTheme is the COLOR_THEME default
const DefaultTheme = "green"

// PaletteByName resolves a COLOR_THEME value
func PaletteByName(name string) (Palette, error) {
	p, ok := palettes[name]
	if !ok {
		return palettes[DefaultTheme], fmt.Errorf("unknown color theme %q (known: %v)", name, Themes())
	}
	return p, nil
}

// Themes returns the known theme names, sorted
func Themes() []string {
	return slices.Sorted(maps.Keys(palettes))
}
