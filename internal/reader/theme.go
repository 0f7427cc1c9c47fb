package reader

import "html/template"

// Theme names a reading palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeSepia Theme = "sepia"
)

// Palette holds the colors of a theme.
type Palette struct {
	Background template.CSS
	Text       template.CSS
}

var palettes = map[Theme]Palette{
	ThemeLight: {Background: "#FFFFFF", Text: "#000000"},
	ThemeDark:  {Background: "#1E1E1E", Text: "#DEDEDE"},
	ThemeSepia: {Background: "#F4ECD8", Text: "#5F4B32"},
}

// PaletteOf returns the palette of t, falling back to light.
func PaletteOf(t Theme) Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[ThemeLight]
}
