// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package email canonicalizes email addresses before they are compared or stored.
//
// # Usage
//
// Account emails are unique regardless of case, so every lookup and insert goes
// through [Normalize]. The database keeps a unique index on the normalized value.
package email

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize converts an address into its canonical stored form.
//
// # Transformation Pipeline
//
// 1. Trims surrounding whitespace.
// 2. Normalizes to NFC so visually identical addresses compare equal.
// 3. Lowercases with language-neutral rules.
func Normalize(address string) string {
	result := strings.TrimSpace(address)
	if result == "" {
		return ""
	}

	result = norm.NFC.String(result)

	// A Caser keeps internal state, so one is built per call.
	return cases.Lower(language.Und).String(result)
}

// Domain returns the part after the last '@', or "" when there is none.
func Domain(address string) string {
	at := strings.LastIndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return address[at+1:]
}
