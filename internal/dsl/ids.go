package dsl

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a fresh block id such as "section_1a2b3c4d".
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + raw[:8]
}
