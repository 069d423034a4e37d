package dsl

import "strings"

// EditorName is the product name shown in generated starter content.
const EditorName = "Site Studio"

// StarterDocument returns the first document of a new page. A prompt that
// mentions a press release selects the press layout.
func StarterDocument(title, slug, initialPrompt string) Document {
	hint := strings.ToLower(initialPrompt)
	press := strings.Contains(hint, "press") || strings.Contains(hint, "presse")

	intro := "This page was created in " + EditorName + " and can be edited block by block, visually or through chat."
	bodyType, heading := defaultBlockType, "Content"
	if press {
		intro = "Press release: this page can be refined precisely through chat and visual editing."
		bodyType, heading = "PressReleaseBody", "Official statement"
	}

	return Document{
		Version: 1,
		PageMeta: PageMeta{
			Title:       title,
			Slug:        slug,
			Description: &intro,
		},
		Blocks: []Block{
			{
				ID:   NewID("hero"),
				Type: "Hero",
				Props: map[string]any{
					"kicker":   "New in " + EditorName,
					"title":    title,
					"subtitle": intro,
				},
				StyleTokens: map[string]string{
					"align":      "left",
					"background": "gradient-primary",
				},
				Children:        []Block{},
				ContentBindings: map[string]string{},
			},
			{
				ID:   NewID("section"),
				Type: bodyType,
				Props: map[string]any{
					"heading": heading,
					"content": "Replace this text from the " + EditorName + " chat or select the block in visual edit mode.",
				},
				StyleTokens:     map[string]string{},
				Children:        []Block{},
				ContentBindings: map[string]string{},
			},
			{
				ID:   NewID("cta"),
				Type: "CTA",
				Props: map[string]any{
					"label": "Learn more",
					"href":  "/contact",
					"note":  "The call to action can be edited visually as well.",
				},
				StyleTokens:     map[string]string{},
				Children:        []Block{},
				ContentBindings: map[string]string{},
			},
		},
		GlobalBindings: map[string]any{},
		Assets:         []string{},
	}
}
