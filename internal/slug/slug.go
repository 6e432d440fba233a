// Package slug derives stable identifiers from display names.
package slug

import (
	"regexp"
	"strings"
)

var (
	// Matches runs of characters that are not lowercase alphanumerics.
	nonAlphanumericRunRe = regexp.MustCompile(`[^a-z0-9]+`)

	// Title slugs delete punctuation instead of hyphenating it.
	nonWordRe      = regexp.MustCompile(`[^a-z0-9_\s-]`)
	separatorRunRe = regexp.MustCompile(`[\s-]+`)
)

// Make converts a display name to its canonical slug. The slug is the
// source of truth for company identity: the same name always yields the
// same slug, so "does this company exist" is a key lookup, not a search.
//
// Rules:
//  1. Lowercase
//  2. Collapse every run of non-alphanumeric characters to a single hyphen
//  3. Trim leading/trailing hyphens
//
// Examples:
//
//	"Spotify"            → "spotify"
//	"Trade Me"           → "trade-me"
//	"O'Reilly Media"     → "o-reilly-media"
//	"  GOV.UK  "         → "gov-uk"
func Make(name string) string {
	s := strings.ToLower(name)
	s = nonAlphanumericRunRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Title derives the slug embedded in resource identifiers. Unlike Make it
// deletes punctuation rather than hyphenating it, so "Don't Repeat Yourself"
// yields "dont-repeat-yourself", matching the ids of the published dataset.
//
// Rules:
//  1. Lowercase
//  2. Delete characters that are not word characters, whitespace, or hyphens
//  3. Collapse runs of whitespace and hyphens to a single hyphen
//  4. Trim leading/trailing hyphens
func Title(title string) string {
	s := strings.ToLower(title)
	s = nonWordRe.ReplaceAllString(s, "")
	s = separatorRunRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
