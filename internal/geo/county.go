package geo

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CountyKey turns a boundary name such as "Kings County" into the claim
// vocabulary ("KINGS").
func CountyKey(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, " County")
	return cases.Upper(language.English).String(strings.TrimSpace(name))
}

// IdentityKey trims surrounding whitespace and leaves the key otherwise intact.
func IdentityKey(s string) string {
	return strings.TrimSpace(s)
}
