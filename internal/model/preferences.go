package model

// DefaultDisplayName is used until the user picks a name.
const DefaultDisplayName = "User"

// Well-known flag keys.
const (
	FlagColors = "colors_enabled"
)

// Preferences holds user-controlled settings that survive across runs.
type Preferences struct {
	DisplayName   string          `json:"display_name"`
	Flags         map[string]bool `json:"flags"`
	ModuleToggles map[string]bool `json:"module_toggles"`
}

// DefaultPreferences returns the preferences of a first run.
func DefaultPreferences() Preferences {
	return Preferences{
		DisplayName:   DefaultDisplayName,
		Flags:         map[string]bool{},
		ModuleToggles: map[string]bool{},
	}
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	out := Preferences{
		DisplayName:   p.DisplayName,
		Flags:         make(map[string]bool, len(p.Flags)),
		ModuleToggles: make(map[string]bool, len(p.ModuleToggles)),
	}
	for k, v := range p.Flags {
		out.Flags[k] = v
	}
	for k, v := range p.ModuleToggles {
		out.ModuleToggles[k] = v
	}
	return out
}

// Normalized fills nil maps and an empty name with defaults.
func (p Preferences) Normalized() Preferences {
	if p.DisplayName == "" {
		p.DisplayName = DefaultDisplayName
	}
	if p.Flags == nil {
		p.Flags = map[string]bool{}
	}
	if p.ModuleToggles == nil {
		p.ModuleToggles = map[string]bool{}
	}
	return p
}

// ModuleEnabled reports whether a module is switched on. Modules are on
// unless explicitly toggled off.
func (p Preferences) ModuleEnabled(name string) bool {
	on, ok := p.ModuleToggles[name]
	return !ok || on
}
