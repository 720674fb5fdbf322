package schema

import (
	"strings"
	"unicode"
)

// missingSentinels are the case-insensitive tokens treated as absent values.
var missingSentinels = map[string]struct{}{
	"-": {}, "": {}, "nan": {}, "none": {}, "null": {}, "n/a": {},
}

// IsMissing reports whether v carries no usable value: nil, or a string that
// trims to one of the missing sentinels.
func IsMissing(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, missing := missingSentinels[strings.ToLower(strings.TrimSpace(s))]
	return missing
}

// Coerce converts a raw cell into the typed value for its column kind.
// Missing values and unparseable cells both come back nil; Coerce never
// returns an error, a bad cell is simply a NULL in the loaded row.
//
// Percentages come back as fractions ("12.5%" -> 0.125). Currency cells are
// stripped of symbols, ISO codes and thousands separators. Capacity cells
// additionally shed trailing alpha unit tokens ("150 MW" -> 150). Integer
// cells parse through float so "42.0" still lands as 42.
func Coerce(v any, kind Kind) any {
	if IsMissing(v) {
		return nil
	}

	switch kind {
	case KindText:
		return strings.TrimSpace(asString(v))

	case KindPercentage:
		s := strings.ToLower(strings.TrimSpace(asString(v)))
		s = strings.TrimSuffix(s, "%")
		s = strings.TrimSuffix(strings.TrimSpace(s), "percent")
		f, ok := parseNumber(s)
		if !ok {
			return nil
		}
		return f / 100

	case KindCurrency:
		s := strings.ToLower(strings.TrimSpace(asString(v)))
		for _, sym := range []string{"$", "€", "£", "¥"} {
			s = strings.ReplaceAll(s, sym, "")
		}
		for _, code := range currencyCodes {
			s = strings.ReplaceAll(s, code, "")
		}
		f, ok := parseNumber(s)
		if !ok {
			return nil
		}
		return f

	case KindCapacity:
		s := strings.TrimSpace(asString(v))
		s = stripAlpha(strings.ReplaceAll(s, ",", ""))
		f, ok := parseNumber(s)
		if !ok {
			return nil
		}
		return f

	case KindInteger:
		f, ok := parseNumber(asString(v))
		if !ok {
			return nil
		}
		return int64(f)

	case KindFloat:
		f, ok := parseNumber(asString(v))
		if !ok {
			return nil
		}
		return f

	default:
		return strings.TrimSpace(asString(v))
	}
}

// CoerceRow coerces every cell of a position-aligned row.
func CoerceRow(row []any, kinds []Kind) []any {
	out := make([]any, len(row))
	for i, v := range row {
		k := KindText
		if i < len(kinds) {
			k = kinds[i]
		}
		out[i] = Coerce(v, k)
	}
	return out
}

// CleanText trims a free-text cell and bounds its length. maxLen <= 0 means
// unbounded. Missing cells come back nil.
func CleanText(v any, maxLen int) any {
	if IsMissing(v) {
		return nil
	}
	s := strings.TrimSpace(asString(v))
	if maxLen > 0 && len(s) > maxLen {
		s = strings.TrimSpace(s[:maxLen])
	}
	return s
}

// stripAlpha drops letters and any whitespace around them, keeping digits,
// signs and decimal points.
func stripAlpha(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
