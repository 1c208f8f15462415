package themes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_CaseInsensitiveSubstring(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"Warframe", "WARFRAME X", "warframe: 1999"} {
		theme := Resolve(name)
		assert.Equal(t, "warframe", theme.Name, name)
		assert.Equal(t, ShapeHexagon, theme.Shape)
		assert.Equal(t, "#00d8ff", theme.PrimaryColor)
		assert.Equal(t, "#ffd700", theme.SecondaryColor)
		assert.Equal(t, "Your journey through the Origin System continues", theme.Tagline)
	}
}

func TestResolve_AlternatePatterns(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "skyrim", Resolve("The Elder Scrolls V: Skyrim").Name)
	assert.Equal(t, "skyrim", Resolve("Skyrim Special Edition").Name)
	assert.Equal(t, "trove", Resolve("Trove").Name)
	assert.Equal(t, "hollow-knight", Resolve("Hollow Knight: Silksong").Name)
}

func TestResolve_Default(t *testing.T) {
	t.Parallel()
	theme := Resolve("Minecraft")
	assert.Equal(t, Default, theme)
	assert.Equal(t, ShapeCircle, theme.Shape)

	assert.Equal(t, Default, Resolve(""))
}
