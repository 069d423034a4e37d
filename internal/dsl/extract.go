package dsl

import (
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

// ExtractJSON pulls a JSON object out of free-form model output: the body
// of the first fenced code block, else the text from the first "{" to the
// last "}". It returns false when neither is present.
func ExtractJSON(text string) (string, bool) {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if body := strings.TrimSpace(m[1]); body != "" {
			return body, true
		}
	}
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first >= 0 && last > first {
		return text[first : last+1], true
	}
	return "", false
}
