package dataset

import (
	"strconv"
	"strings"
)

var monthNums = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// SplitYearLabel parses an NGER reporting-year label like "2023-24" into its
// start and stop calendar years. Two-digit stop years inherit the start
// year's century. ok is false for anything unparseable.
func SplitYearLabel(label string) (start, stop int, ok bool) {
	s := strings.TrimSpace(label)
	i := strings.IndexByte(s, '-')
	if i <= 0 {
		return 0, 0, false
	}

	start, err := strconv.Atoi(strings.TrimSpace(s[:i]))
	if err != nil {
		return 0, 0, false
	}
	stopStr := strings.TrimSpace(s[i+1:])
	stop, err = strconv.Atoi(stopStr)
	if err != nil {
		return 0, 0, false
	}
	if len(stopStr) == 2 {
		stop += (start / 100) * 100
	}
	return start, stop, true
}

// SplitMonthYear parses a CER committed date like "Mar-2024" into its year
// and month numbers. ok is false for anything unparseable.
func SplitMonthYear(value string) (year, month int, ok bool) {
	s := strings.ToLower(strings.TrimSpace(value))
	i := strings.IndexByte(s, '-')
	if i <= 0 {
		return 0, 0, false
	}

	month, found := monthNums[strings.TrimSpace(s[:i])]
	if !found {
		return 0, 0, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
	if err != nil {
		return 0, 0, false
	}
	return year, month, true
}
