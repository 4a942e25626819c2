package theme

import "strings"

// Option represents a selectable theme exposed to the UI.
type Option struct {
	Value string
	Label string
}

// WorkspaceTheme contains resolved styling primitives for the application shell.
type WorkspaceTheme struct {
	Key                   string
	BodyClass             string
	ShellClass            string
	PanelSurfaceClass     string
	PanelSoftSurfaceClass string
	BorderStrongClass     string
	BorderSoftClass       string
	AccentTextClass       string
	MutedTextClass        string
	SubtleTextClass       string
}

var registry = map[string]WorkspaceTheme{
	"cellar": {
		Key:                   "cellar",
		BodyClass:             "bg-stone-950 text-stone-100",
		ShellClass:            "bg-stone-900",
		PanelSurfaceClass:     "bg-stone-900/80",
		PanelSoftSurfaceClass: "bg-stone-800/60",
		BorderStrongClass:     "border-amber-700",
		BorderSoftClass:       "border-stone-800",
		AccentTextClass:       "text-amber-400",
		MutedTextClass:        "text-stone-400",
		SubtleTextClass:       "text-stone-500",
	},
	"copper_kettle": {
		Key:                   "copper_kettle",
		BodyClass:             "bg-orange-50 text-stone-900",
		ShellClass:            "bg-orange-100",
		PanelSurfaceClass:     "bg-white/90",
		PanelSoftSurfaceClass: "bg-orange-100/70",
		BorderStrongClass:     "border-orange-600",
		BorderSoftClass:       "border-orange-200",
		AccentTextClass:       "text-orange-700",
		MutedTextClass:        "text-stone-600",
		SubtleTextClass:       "text-stone-500",
	},
	"parchment": {
		Key:                   "parchment",
		BodyClass:             "bg-yellow-50 text-stone-800",
		ShellClass:            "bg-yellow-100",
		PanelSurfaceClass:     "bg-white/80",
		PanelSoftSurfaceClass: "bg-yellow-100/60",
		BorderStrongClass:     "border-yellow-700",
		BorderSoftClass:       "border-yellow-200",
		AccentTextClass:       "text-yellow-800",
		MutedTextClass:        "text-stone-600",
		SubtleTextClass:       "text-stone-500",
	},
}

// Resolve maps a stored theme key to its workspace styling. Unknown keys
// return a zero value so callers can detect and reject them.
func Resolve(key string) WorkspaceTheme {
	return registry[strings.TrimSpace(key)]
}

// Default returns the styling applied when an account has no stored theme.
func Default() WorkspaceTheme {
	return registry["cellar"]
}

// Options lists the selectable themes in a stable order for form rendering.
func Options() []Option {
	return []Option{
		{Value: "cellar", Label: "Cellar"},
		{Value: "copper_kettle", Label: "Copper Kettle"},
		{Value: "parchment", Label: "Parchment"},
	}
}
