package layout

import (
	"sort"

	"fermentum/models"
)

// ThemeDefinition describes a visual theme that can be applied to the workspace layout.
type ThemeDefinition struct {
	ID          string
	Label       string
	Description string
}

var themeRegistry = map[string]ThemeDefinition{
	models.ThemeCellar: {
		ID:          models.ThemeCellar,
		Label:       "Cellar",
		Description: "Dark stone walls with warm amber highlights.",
	},
	models.ThemeCopperKettle: {
		ID:          models.ThemeCopperKettle,
		Label:       "Copper Kettle",
		Description: "Bright brewhouse canvas with burnished copper accents.",
	},
	models.ThemeParchment: {
		ID:          models.ThemeParchment,
		Label:       "Parchment",
		Description: "Aged-paper workspace for long cellar notes.",
	},
}

// ThemeByID returns a definition for the provided identifier, falling back to the default theme.
func ThemeByID(id string) ThemeDefinition {
	if def, ok := themeRegistry[id]; ok {
		return def
	}
	return themeRegistry[models.DefaultTheme]
}

// ThemeOptions exposes all theme definitions sorted by label for form rendering.
func ThemeOptions() []ThemeDefinition {
	options := make([]ThemeDefinition, 0, len(themeRegistry))
	for _, def := range themeRegistry {
		options = append(options, def)
	}
	sort.Slice(options, func(i, j int) bool {
		return options[i].Label < options[j].Label
	})
	return options
}
