package models

import (
	"strings"
	"unicode"
)

// Slugify trims s, lowercases it and collapses each run of whitespace into
// a single underscore.
func Slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

// stripNonAlphanumeric drops every rune that is not a letter or digit.
func stripNonAlphanumeric(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// DeriveID returns the stable identity string for a name and optional email.
//
//	DeriveID("Bob Smith", "")        == "bob_smith"
//	DeriveID("Bob", "b@x.com")       == "bxcom_bob"
func DeriveID(name, email string) string {
	if strings.TrimSpace(email) == "" {
		return Slugify(name)
	}
	return Slugify(stripNonAlphanumeric(strings.ToLower(email))) + "_" + Slugify(name)
}
