package render

// Theme is a closed set of visual identities for the public document. Unknown
// ids fall back to the default so an old stored value never breaks rendering.
type Theme struct {
	ID         string
	Name       string
	Background string
	Surface    string
	Text       string
	Muted      string
	Accent     string
	Border     string
	FontStack  string
}

var defaultTheme = Theme{
	ID:         "default",
	Name:       "Studio Light",
	Background: "#faf8f5",
	Surface:    "#ffffff",
	Text:       "#1f2328",
	Muted:      "#6b7280",
	Accent:     "#b45309",
	Border:     "#e5e1da",
	FontStack:  `"Georgia", "Times New Roman", serif`,
}

var themes = map[string]Theme{
	"default": defaultTheme,
	"black-gold": {
		ID:         "black-gold",
		Name:       "Black & Gold",
		Background: "#0d0d0f",
		Surface:    "#17171b",
		Text:       "#f5f0e6",
		Muted:      "#9d9786",
		Accent:     "#d4af37",
		Border:     "#2c2c33",
		FontStack:  `"Georgia", "Times New Roman", serif`,
	},
	"ocean": {
		ID:         "ocean",
		Name:       "Ocean",
		Background: "#f4f8fa",
		Surface:    "#ffffff",
		Text:       "#102a36",
		Muted:      "#5b7683",
		Accent:     "#0e7490",
		Border:     "#d8e4ea",
		FontStack:  `"Helvetica Neue", Arial, sans-serif`,
	},
}

// LookupTheme resolves a theme id, falling back to the default.
func LookupTheme(id string) Theme {
	if t, ok := themes[id]; ok {
		return t
	}
	return defaultTheme
}

// Themes lists the available themes for the builder's picker.
func Themes() []Theme {
	return []Theme{themes["default"], themes["black-gold"], themes["ocean"]}
}
