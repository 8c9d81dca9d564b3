package domain

import "strings"

// Style identifies a portrait rendering style.
type Style string

const (
	StyleBW       Style = "BW"
	StyleSepia    Style = "Sepia"
	StyleColor    Style = "Color"
	StylePainting Style = "Painting"
)

// AllStyles lists every supported style in canonical order.
func AllStyles() []Style {
	return []Style{StyleBW, StyleSepia, StyleColor, StylePainting}
}

// ParseStyle resolves a case-insensitive style name. The second return
// value reports whether the name was recognized.
func ParseStyle(name string) (Style, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bw", "b&w", "blackandwhite":
		return StyleBW, true
	case "sepia":
		return StyleSepia, true
	case "color", "colour":
		return StyleColor, true
	case "painting":
		return StylePainting, true
	}
	return "", false
}

// Valid reports whether s is one of the supported styles.
func (s Style) Valid() bool {
	switch s {
	case StyleBW, StyleSepia, StyleColor, StylePainting:
		return true
	}
	return false
}

func (s Style) String() string {
	return string(s)
}
