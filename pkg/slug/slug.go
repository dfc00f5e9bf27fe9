// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug builds the ASCII URL slugs of series titles.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen caps the title part of a slug.
const MaxLen = 80

// stripMarks decomposes accented letters and drops the combining marks.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// From lowercases s, strips accents and joins the remaining ASCII letters and
// digits with single hyphens. The result is cut to [MaxLen] on a word boundary.
func From(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var builder strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			builder.WriteRune(r)
			pendingHyphen = false
			continue
		}
		pendingHyphen = true
	}

	result := builder.String()
	if len(result) > MaxLen {
		result = result[:MaxLen]
		if cut := strings.LastIndexByte(result, '-'); cut > 0 {
			result = result[:cut]
		}
	}
	return result
}

// WithSuffix appends the last eight characters of id so equal titles still get distinct slugs.
func WithSuffix(title, id string) string {
	suffix := id
	if len(id) > 8 {
		suffix = id[len(id)-8:]
	}

	base := From(title)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
