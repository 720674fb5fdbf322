package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies the values observed in a column. It drives both the SQL
// column type and the coercion applied to each cell before insert.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindFloat
	KindPercentage
	KindCurrency
	// KindCapacity is never inferred; dataset policies assign it to columns
	// whose cells carry trailing unit tokens ("150 MW").
	KindCapacity
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindPercentage:
		return "percentage"
	case KindCurrency:
		return "currency"
	case KindCapacity:
		return "capacity"
	default:
		return "text"
	}
}

// SQLType maps a kind to its Postgres column type.
func (k Kind) SQLType() string {
	switch k {
	case KindInteger:
		return "INTEGER"
	case KindFloat, KindPercentage, KindCurrency, KindCapacity:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}

// Numeric reports whether coerced values of this kind are numbers.
func (k Kind) Numeric() bool { return k != KindText }

// Inference holds the sampling and voting heuristics used to classify a
// column from its values. The zero value is not usable; start from
// DefaultInference and override fields as needed.
type Inference struct {
	// SampleSize is how many non-missing values to examine per column.
	SampleSize int
	// PatternSample caps how many of the sampled values get the
	// percentage/currency pattern check.
	PatternSample int
	// DecimalSample caps how many numeric samples are checked for a decimal
	// point when deciding integer vs float.
	DecimalSample int
	// PercentThreshold is the fraction of pattern-checked values that must
	// look like percentages.
	PercentThreshold float64
	// CurrencyThreshold is the fraction of pattern-checked values that must
	// look like currency amounts.
	CurrencyThreshold float64
	// NumericThreshold is the fraction of sampled values that must parse as
	// numbers for a numeric kind.
	NumericThreshold float64
}

// DefaultInference returns the standard heuristics: sample 100 values,
// pattern-check 50, decimal-check 20, 30% pattern votes, 70% numeric ratio.
func DefaultInference() Inference {
	return Inference{
		SampleSize:        100,
		PatternSample:     50,
		DecimalSample:     20,
		PercentThreshold:  0.30,
		CurrencyThreshold: 0.30,
		NumericThreshold:  0.70,
	}
}

// Infer classifies a column from its values. Missing sentinels are skipped
// before sampling; a column with no usable values is text. Malformed values
// among the sample count against the numeric ratio, so a mostly-text column
// with a few stray numbers stays text.
func (inf Inference) Infer(values []any) Kind {
	sample := make([]string, 0, inf.SampleSize)
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		sample = append(sample, strings.TrimSpace(asString(v)))
		if len(sample) >= inf.SampleSize {
			break
		}
	}
	if len(sample) == 0 {
		return KindText
	}

	patternN := len(sample)
	if patternN > inf.PatternSample {
		patternN = inf.PatternSample
	}
	var percentVotes, currencyVotes int
	for _, s := range sample[:patternN] {
		if looksPercentage(s) {
			percentVotes++
		}
		if looksCurrency(s) {
			currencyVotes++
		}
	}
	if float64(percentVotes) > inf.PercentThreshold*float64(patternN) {
		return KindPercentage
	}
	if float64(currencyVotes) > inf.CurrencyThreshold*float64(patternN) {
		return KindCurrency
	}

	var numeric int
	for _, s := range sample {
		if _, ok := parseNumber(s); ok {
			numeric++
		}
	}
	if float64(numeric) <= inf.NumericThreshold*float64(len(sample)) {
		return KindText
	}

	decimalN := len(sample)
	if decimalN > inf.DecimalSample {
		decimalN = inf.DecimalSample
	}
	for _, s := range sample[:decimalN] {
		if strings.Contains(s, ".") {
			return KindFloat
		}
	}
	return KindInteger
}

// InferColumns classifies every column of a row-major fragment. rows must be
// position-aligned with columns; the result maps column name to kind.
func (inf Inference) InferColumns(columns []string, rows [][]any) map[string]Kind {
	kinds := make(map[string]Kind, len(columns))
	values := make([]any, len(rows))
	for i, col := range columns {
		for j, row := range rows {
			if i < len(row) {
				values[j] = row[i]
			} else {
				values[j] = nil
			}
		}
		kinds[col] = inf.Infer(values)
	}
	return kinds
}

// currencyCodes are ISO codes accepted alongside symbols in money cells.
var currencyCodes = []string{"aud", "usd", "eur", "gbp"}

func looksPercentage(s string) bool {
	lower := strings.ToLower(s)
	if !strings.HasSuffix(strings.TrimSpace(lower), "%") &&
		!strings.Contains(lower, "percent") {
		return false
	}
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(lower), "%"))
	trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "percent"))
	_, ok := parseNumber(trimmed)
	return ok
}

func looksCurrency(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	found := false
	for _, sym := range []string{"$", "€", "£", "¥"} {
		if strings.Contains(lower, sym) {
			lower = strings.ReplaceAll(lower, sym, "")
			found = true
		}
	}
	for _, code := range currencyCodes {
		if strings.Contains(lower, code) {
			lower = strings.ReplaceAll(lower, code, "")
			found = true
		}
	}
	if !found {
		return false
	}
	_, ok := parseNumber(strings.TrimSpace(lower))
	return ok
}

// parseNumber parses s as a float after dropping thousands separators.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}
