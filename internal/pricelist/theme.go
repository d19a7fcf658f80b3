package pricelist

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type HeaderStyle string

const (
	HeaderBanded     HeaderStyle = "banded"
	HeaderUnderlined HeaderStyle = "underlined"
)

type TableStyle string

const (
	TableStriped TableStyle = "striped"
	TableGrid    TableStyle = "grid"
	TablePlain   TableStyle = "plain"
)

// Color is an sRGB triple.
type Color struct {
	R, G, B int
}

// Hex renders c as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Tint mixes c towards white; f=0 is c, f=1 is white.
func (c Color) Tint(f float64) Color {
	mix := func(v int) int { return v + int(float64(255-v)*f) }
	return Color{mix(c.R), mix(c.G), mix(c.B)}
}

// ParseColor accepts #rgb and #rrggbb, with or without the leading #.
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("pricelist: invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("pricelist: invalid color %q", s)
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

// Theme is a named visual bundle.
type Theme struct {
	Name         string
	PrimaryColor Color
	HeaderStyle  HeaderStyle
	TableStyle   TableStyle
	Font         string
}

var themes = map[string]Theme{
	"modern":  {Name: "modern", PrimaryColor: Color{37, 99, 235}, HeaderStyle: HeaderBanded, TableStyle: TableStriped, Font: "sans"},
	"minimal": {Name: "minimal", PrimaryColor: Color{17, 24, 39}, HeaderStyle: HeaderUnderlined, TableStyle: TablePlain, Font: "sans"},
	"grid":    {Name: "grid", PrimaryColor: Color{21, 128, 61}, HeaderStyle: HeaderBanded, TableStyle: TableGrid, Font: "sans"},
}

func DefaultTheme() Theme { return themes["modern"] }

// ThemeByName returns a copy of a canned theme.
func ThemeByName(name string) (Theme, bool) {
	t, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// ThemeNames lists the canned themes, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for n := range themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// WithAccent overrides only the primary color.
func (t Theme) WithAccent(hex string) (Theme, error) {
	c, err := ParseColor(hex)
	if err != nil {
		return t, err
	}
	t.PrimaryColor = c
	return t, nil
}
