// utils/names.go
package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// NormalizeDisplayName trims and title-cases a participant display name so
// bracket sheets and scoreboards render consistently regardless of how the
// registration form was filled in.
func NormalizeDisplayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return name
	}
	return titleCaser.String(name)
}
