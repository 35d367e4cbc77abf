// Package codes canonicalizes HCPCS/CPT billing code strings.
//
// Codes are values, not numbers. A code like "00100" keeps its leading
// zeros and "E0114" is never coerced through numeric conversion, so every
// entry point converts its input to a string before doing anything else.
package codes

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Leading prefix tokens sometimes typed in front of a code, each
	// optionally followed by a separator: "CPT 99213", "HCPCS: E0114",
	// "code-99213", "Procedure. 99284".
	prefixPattern = regexp.MustCompile(`(?i)^(?:CPT|HCPCS|CODE|PROCEDURE)[:.\-\s]*`)

	nonWord      = regexp.MustCompile(`\W`)
	validPattern = regexp.MustCompile(`^[A-Z0-9]{5}$`)

	// Inline modifier shapes: "9997626" → 99976 + 26, "A4570TC" → A4570 + TC.
	inlineNumeric = regexp.MustCompile(`^(\d{5})([A-Z0-9]{2})$`)
	inlineAlpha   = regexp.MustCompile(`^([A-Z]\d{4})([A-Z0-9]{2})$`)

	alnum2 = regexp.MustCompile(`^[A-Za-z0-9]{2}$`)
)

// Normalize converts an arbitrary raw value into canonical code form:
// trimmed, uppercased, with any known prefix token, leading '#', and
// remaining non-word characters stripped. Nil input yields "".
func Normalize(raw any) string {
	s := stringify(raw)
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToUpper(s)
	s = prefixPattern.ReplaceAllString(s, "")
	s = strings.TrimPrefix(s, "#")
	return nonWord.ReplaceAllString(s, "")
}

// IsValidFormat reports whether the input normalizes to exactly five
// alphanumeric characters.
func IsValidFormat(code string) bool {
	return validPattern.MatchString(Normalize(code))
}

// ExtractCodeAndModifier splits a raw value into a normalized code and an
// optional two-character modifier. It recognizes a hyphen-delimited
// modifier ("99284-25") and the two inline shapes ("9997626", "A4570TC").
// Anything else falls back to plain normalization with a nil modifier.
func ExtractCodeAndModifier(raw any) (code string, modifier *string) {
	s := strings.TrimSpace(stringify(raw))

	if i := strings.Index(s, "-"); i > 0 {
		tail := strings.TrimSpace(s[i+1:])
		if alnum2.MatchString(tail) {
			m := strings.ToUpper(tail)
			return Normalize(s[:i]), &m
		}
	}

	n := Normalize(s)
	for _, re := range []*regexp.Regexp{inlineNumeric, inlineAlpha} {
		if m := re.FindStringSubmatch(n); m != nil {
			mod := m[2]
			return m[1], &mod
		}
	}

	return n, nil
}

// stringify renders raw as text without ever routing it through a numeric
// parse. Only fmt-style formatting is used, so string inputs pass through
// byte for byte.
func stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
