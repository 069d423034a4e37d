package dsl

import "encoding/json"

// ThemeTokens is a project's set of design variables.
type ThemeTokens struct {
	Colors     map[string]string `json:"colors"`
	Typography map[string]string `json:"typography"`
	Spacing    map[string]string `json:"spacing"`
	Radius     map[string]string `json:"radius"`
	Shadow     map[string]string `json:"shadow"`
	Motion     map[string]string `json:"motion"`
}

// Groups returns the token groups keyed by their JSON name.
func (t ThemeTokens) Groups() map[string]map[string]string {
	return map[string]map[string]string{
		"colors":     t.Colors,
		"typography": t.Typography,
		"spacing":    t.Spacing,
		"radius":     t.Radius,
		"shadow":     t.Shadow,
		"motion":     t.Motion,
	}
}

// DefaultThemeTokens returns the built-in dark palette.
func DefaultThemeTokens() ThemeTokens {
	return ThemeTokens{
		Colors: map[string]string{
			"background": "#070b14",
			"surface":    "#0f172a",
			"card":       "#111827",
			"text":       "#e5e7eb",
			"textMuted":  "#94a3b8",
			"primary":    "#22d3ee",
			"secondary":  "#38bdf8",
			"accent":     "#f59e0b",
			"border":     "rgba(148, 163, 184, 0.24)",
		},
		Typography: map[string]string{
			"headingFont":     "'DM Serif Display', Georgia, serif",
			"bodyFont":        "'Manrope', 'Segoe UI', sans-serif",
			"headingWeight":   "700",
			"bodyWeight":      "500",
			"headingTracking": "-0.02em",
			"bodyLineHeight":  "1.7",
		},
		Spacing: map[string]string{
			"sectionY":   "5.5rem",
			"sectionX":   "1.25rem",
			"contentMax": "74rem",
			"gap":        "1.25rem",
		},
		Radius: map[string]string{
			"card":   "1.25rem",
			"button": "0.9rem",
			"pill":   "999px",
		},
		Shadow: map[string]string{
			"card": "0 20px 50px rgba(2, 6, 23, 0.45)",
			"glow": "0 0 0 1px rgba(34, 211, 238, 0.35), 0 18px 40px rgba(34, 211, 238, 0.16)",
		},
		Motion: map[string]string{
			"fast":   "160ms",
			"normal": "240ms",
			"slow":   "420ms",
			"easing": "cubic-bezier(0.2, 0.8, 0.2, 1)",
		},
	}
}

// SanitizeTheme reads any JSON-shaped value as ThemeTokens. Every group is
// present in the result and every value is a string.
func SanitizeTheme(raw any) ThemeTokens {
	rec := asRecord(raw)
	return ThemeTokens{
		Colors:     stringMap(rec["colors"]),
		Typography: stringMap(rec["typography"]),
		Spacing:    stringMap(rec["spacing"]),
		Radius:     stringMap(rec["radius"]),
		Shadow:     stringMap(rec["shadow"]),
		Motion:     stringMap(rec["motion"]),
	}
}

// PatchTheme deep-merges patch into tokens and returns the sanitized result.
func PatchTheme(tokens ThemeTokens, patch map[string]any) ThemeTokens {
	return SanitizeTheme(DeepMerge(asRecord(tokens), patch))
}

// MarshalTheme encodes tokens for storage.
func MarshalTheme(t ThemeTokens) []byte {
	b, _ := json.Marshal(t)
	return b
}
