package themes

import "strings"

type Shape string

const (
	ShapeHexagon Shape = "hexagon"
	ShapeCube    Shape = "cube"
	ShapeDragon  Shape = "dragon"
	ShapeMask    Shape = "mask"
	ShapeCircle  Shape = "circle"
)

// Theme is a fixed bundle of presentation constants for one game. The
// colour values are designer-chosen and never computed.
type Theme struct {
	Name           string   `json:"name"`
	GradientStops  []string `json:"background_gradient_stops"`
	PrimaryColor   string   `json:"primary_color"`
	SecondaryColor string   `json:"secondary_color"`
	Tagline        string   `json:"tagline"`
	Shape          Shape    `json:"decorative_shape"`
}

// Default is what every unmatched game gets. An unknown name is not an
// error, it's the common case.
var Default = Theme{
	Name:           "default",
	GradientStops:  []string{"#0f2027", "#203a43", "#2c5364"},
	PrimaryColor:   "#00d8ff",
	SecondaryColor: "#ffd700",
	Tagline:        "Ready for the next adventure",
	Shape:          ShapeCircle,
}

type entry struct {
	patterns []string
	theme    Theme
}

// table is evaluated top to bottom and the first match wins. New themes
// are added by appending entries, not by editing control flow.
var table = []entry{
	{
		patterns: []string{"warframe"},
		theme: Theme{
			Name:           "warframe",
			GradientStops:  []string{"#0a1a2a", "#103a4a", "#00d8ff"},
			PrimaryColor:   "#00d8ff",
			SecondaryColor: "#ffd700",
			Tagline:        "Your journey through the Origin System continues",
			Shape:          ShapeHexagon,
		},
	},
	{
		patterns: []string{"trove"},
		theme: Theme{
			Name:           "trove",
			GradientStops:  []string{"#2b1055", "#7597de", "#ff9a3c"},
			PrimaryColor:   "#ff9a3c",
			SecondaryColor: "#7597de",
			Tagline:        "There's always another cube to mine",
			Shape:          ShapeCube,
		},
	},
	{
		patterns: []string{"skyrim", "elder scrolls"},
		theme: Theme{
			Name:           "skyrim",
			GradientStops:  []string{"#1c1c1c", "#3a4750", "#a8b2bd"},
			PrimaryColor:   "#a8b2bd",
			SecondaryColor: "#d9c087",
			Tagline:        "The roads of Skyrim still call your name",
			Shape:          ShapeDragon,
		},
	},
	{
		patterns: []string{"hollow knight"},
		theme: Theme{
			Name:           "hollow-knight",
			GradientStops:  []string{"#0d1321", "#1d2d44", "#c5d8e8"},
			PrimaryColor:   "#c5d8e8",
			SecondaryColor: "#e84855",
			Tagline:        "Hallownest waits in the dark below",
			Shape:          ShapeMask,
		},
	},
}

// Resolve maps a game's display name to its theme via case-insensitive
// substring matching. Pure and total; unmatched names get Default.
func Resolve(gameName string) Theme {
	needle := strings.ToLower(gameName)
	for _, e := range table {
		for _, p := range e.patterns {
			if strings.Contains(needle, p) {
				return e.theme
			}
		}
	}
	return Default
}
