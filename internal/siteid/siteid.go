// Package siteid normalizes site identifiers and derives stable document keys.
package siteid

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const (
	docPrefix = "doc:"
	dsnDigits = 6
)

var docSeqNoRe = regexp.MustCompile(`docSeqNo=(\d+)`)

// NormalizeDSN strips every non-digit from raw and keeps the trailing six digits.
// Inputs with fewer than six digits keep all of them; inputs without digits yield "".
//
//	NormalizeDSN("BRRTS#02-69-123456") == "123456"
func NormalizeDSN(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > dsnDigits {
		return digits[len(digits)-dsnDigits:]
	}
	return digits
}

// DocumentKey returns a stable identity for a document download URL.
// Same URL always yields the same key; the URL is compared byte-for-byte.
func DocumentKey(downloadURL string) string {
	hash := sha256.Sum256([]byte(downloadURL))
	return docPrefix + hex.EncodeToString(hash[:])
}

// DocSeqNo returns the docSeqNo query value embedded in href, or "".
func DocSeqNo(href string) string {
	if m := docSeqNoRe.FindStringSubmatch(href); len(m) > 1 {
		return m[1]
	}
	return ""
}

// Resolve makes href absolute against base. Unparseable hrefs are returned unchanged.
func Resolve(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// SafeFilename replaces path separators and control characters so name can be used
// as a single path component. Empty results fall back to def.
func SafeFilename(name, def string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, ". ")
	if name == "" {
		return def
	}
	return name
}
