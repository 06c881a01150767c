package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Preference values.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"

	FontScaleSmall  = "sm"
	FontScaleMedium = "md"
	FontScaleLarge  = "lg"

	AccentIndigo  = "indigo"
	AccentEmerald = "emerald"
	AccentRose    = "rose"

	ViewModeGrid     = "grid"
	ViewModeTimeline = "timeline"
)

// Allowed preference values, in the order UIs cycle through them.
var (
	Themes       = []string{ThemeLight, ThemeDark, ThemeSystem}
	FontScales   = []string{FontScaleSmall, FontScaleMedium, FontScaleLarge}
	AccentColors = []string{AccentIndigo, AccentEmerald, AccentRose}
	ViewModes    = []string{ViewModeGrid, ViewModeTimeline}
)

// Preferences is the display configuration of the tracker.
type Preferences struct {
	Theme       string `json:"theme"`
	FontScale   string `json:"fontScale"`
	AccentColor string `json:"accentColor"`
	CompactMode bool   `json:"compactMode"`
	ViewMode    string `json:"viewMode"`
}

// DefaultPreferences returns the preferences a fresh store starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:       ThemeDark,
		FontScale:   FontScaleMedium,
		AccentColor: AccentIndigo,
		CompactMode: false,
		ViewMode:    ViewModeGrid,
	}
}

// Validate checks that every enumerated field holds a known value.
func (p Preferences) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Theme, validation.Required, validation.In(toAny(Themes)...)),
		validation.Field(&p.FontScale, validation.Required, validation.In(toAny(FontScales)...)),
		validation.Field(&p.AccentColor, validation.Required, validation.In(toAny(AccentColors)...)),
		validation.Field(&p.ViewMode, validation.Required, validation.In(toAny(ViewModes)...)),
	)
}

// EffectiveTheme resolves the system theme against the host's preference.
func (p Preferences) EffectiveTheme(systemDark bool) string {
	if p.Theme != ThemeSystem {
		return p.Theme
	}
	if systemDark {
		return ThemeDark
	}
	return ThemeLight
}

// PreferencesPatch holds a partial preferences update.
type PreferencesPatch struct {
	Theme       *string `json:"theme,omitempty"`
	FontScale   *string `json:"fontScale,omitempty"`
	AccentColor *string `json:"accentColor,omitempty"`
	CompactMode *bool   `json:"compactMode,omitempty"`
	ViewMode    *string `json:"viewMode,omitempty"`
}

// Apply returns p merged over base.
func (p PreferencesPatch) Apply(base Preferences) Preferences {
	if p.Theme != nil {
		base.Theme = *p.Theme
	}
	if p.FontScale != nil {
		base.FontScale = *p.FontScale
	}
	if p.AccentColor != nil {
		base.AccentColor = *p.AccentColor
	}
	if p.CompactMode != nil {
		base.CompactMode = *p.CompactMode
	}
	if p.ViewMode != nil {
		base.ViewMode = *p.ViewMode
	}
	return base
}

// Validate checks the fields present in the patch.
func (p PreferencesPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Theme, validation.NilOrNotEmpty, validation.In(toAny(Themes)...)),
		validation.Field(&p.FontScale, validation.NilOrNotEmpty, validation.In(toAny(FontScales)...)),
		validation.Field(&p.AccentColor, validation.NilOrNotEmpty, validation.In(toAny(AccentColors)...)),
		validation.Field(&p.ViewMode, validation.NilOrNotEmpty, validation.In(toAny(ViewModes)...)),
	)
}

// Cycle returns the value after current in values, wrapping around.
func Cycle(values []string, current string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
