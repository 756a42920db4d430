// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides slug generation and validation for registry ids.
package util

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	// slugRegex matches runs of characters that are not lowercase ASCII letters or digits.
	slugRegex = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify converts a display name to an id such as "footer-widgets".
// Non-Latin scripts are transliterated to ASCII first.
func Slugify(s string) string {
	result := strings.ToLower(unidecode.Unidecode(s))
	result = slugRegex.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// IsValidSlug checks if a string is a valid slug format.
func IsValidSlug(s string) bool {
	if s == "" {
		return false
	}

	// Check if it only contains lowercase letters, numbers, and hyphens
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	// Check that it doesn't start or end with a hyphen
	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	// Check for consecutive hyphens
	return !strings.Contains(s, "--")
}
