package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a time-ordered identifier with a short type prefix, e.g.
// "step_0190f5c2e4b87c3a9d1e2f3a4b5c6d7e"
func NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	if prefix == "" {
		return hex
	}
	return prefix + "_" + hex
}
