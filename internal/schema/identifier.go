// Package schema turns messy source columns into a stable relational shape:
// header names become safe identifiers, sampled values become an inferred
// kind, and raw cells are coerced into the matching Go/SQL type.
//
// The naming functions here are the single source of truth for column
// identifiers. Table creation and row insertion MUST both go through
// NormalizeMany with the same input order, otherwise inserts silently target
// columns that were never created. Tests pin this invariant.
package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxIdentifierLen leaves room for a _N dedup suffix under Postgres's
// 63-character identifier limit.
const maxIdentifierLen = 60

// placeholderName substitutes headers that normalize to nothing.
const placeholderName = "unnamed_column"

// reservedWords are SQL keywords and type names that may not be used verbatim
// as column identifiers. A normalized name that lands here gets a "_col"
// suffix.
var reservedWords = map[string]struct{}{
	"user": {}, "order": {}, "group": {}, "select": {}, "from": {}, "where": {},
	"insert": {}, "update": {}, "delete": {}, "create": {}, "drop": {},
	"alter": {}, "table": {}, "index": {}, "view": {}, "database": {},
	"schema": {}, "primary": {}, "foreign": {}, "key": {}, "constraint": {},
	"references": {}, "check": {}, "unique": {}, "not": {}, "null": {},
	"default": {}, "serial": {}, "boolean": {}, "integer": {}, "varchar": {},
	"text": {}, "date": {}, "time": {}, "timestamp": {}, "numeric": {},
	"real": {}, "double": {}, "precision": {}, "decimal": {}, "char": {},
	"binary": {}, "blob": {},
}

// unitSuffixes maps parenthesized unit markers (already lowercased) onto the
// textual token that replaces them. Order does not matter; markers never
// overlap.
var unitSuffixes = map[string]string{
	"(mw)":    "_mw",
	"(gj)":    "_gj",
	"(mwh)":   "_mwh",
	"(tco2e)": "_tco2e",
	"(s)":     "s",
	"(%)":     "_percent",
}

// Normalize converts an arbitrary header string into a safe, lowercase SQL
// identifier using the default reserved-word set. The result always matches
// ^[a-z][a-z0-9_]{0,59}$ and is never a reserved keyword.
func Normalize(raw string) string {
	return NormalizeWithReserved(raw, reservedWords)
}

// NormalizeWithReserved is Normalize with a caller-supplied reserved-word set.
func NormalizeWithReserved(raw string, reserved map[string]struct{}) string {
	name := strings.ToLower(strings.TrimSpace(raw))

	// Currency markers become a leading token: "Cost ($)" -> "dollar_cost".
	currency := strings.Contains(name, "$")
	if currency {
		name = strings.ReplaceAll(name, "$", "")
	}

	for marker, repl := range unitSuffixes {
		name = strings.ReplaceAll(name, marker, repl)
	}

	name = foldASCII(name)

	var b strings.Builder
	b.Grow(len(name))
	prevSep := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevSep = false
		case r == '_' || unicode.IsSpace(r):
			if !prevSep {
				b.WriteByte('_')
				prevSep = true
			}
		default:
			// Everything else is dropped.
		}
	}

	name = strings.Trim(b.String(), "_")
	name = collapseUnderscores(name)

	if currency && name != "" {
		name = "dollar_" + name
	} else if currency {
		name = "dollar"
	}

	if name == "" {
		name = placeholderName
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "col_" + name
	}
	if _, ok := reserved[name]; ok {
		name += "_col"
	}
	if len(name) > maxIdentifierLen {
		name = strings.TrimRight(name[:maxIdentifierLen], "_")
	}
	return name
}

// NormalizeMany normalizes every header and deduplicates collisions by
// appending _1, _2, ... in first-seen order. The output is position-aligned
// with the input and deterministic for a given input order; callers that
// normalize at create time and again at insert time get byte-identical
// column lists as long as they pass the same headers in the same order.
func NormalizeMany(raws []string) []string {
	out := make([]string, 0, len(raws))
	used := make(map[string]struct{}, len(raws))

	for _, raw := range raws {
		name := Normalize(raw)
		if _, taken := used[name]; taken {
			base := name
			for i := 1; ; i++ {
				candidate := suffixed(base, i)
				if _, taken := used[candidate]; !taken {
					name = candidate
					break
				}
			}
		}
		used[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// IsReserved reports whether name is in the default reserved-word set.
func IsReserved(name string) bool {
	_, ok := reservedWords[strings.ToLower(name)]
	return ok
}

// suffixed appends _i, shortening the base as needed so the result stays
// within the identifier length limit.
func suffixed(base string, i int) string {
	suffix := "_" + itoa(i)
	if len(base)+len(suffix) > maxIdentifierLen {
		base = strings.TrimRight(base[:maxIdentifierLen-len(suffix)], "_")
	}
	return base + suffix
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// foldASCII strips accents so diacritic headers survive the a-z filter:
// decompose, remove nonspacing marks, recompose.
func foldASCII(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
