package dataset

import "testing"

func TestSplitYearLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		start int
		stop  int
		ok    bool
	}{
		{"2023-24", 2023, 2024, true},
		{"2023-2024", 2023, 2024, true},
		{"1999-00", 1999, 1900, true}, // century inherited from the start year
		{"2023 - 24", 2023, 2024, true},
		{" 2023-24 ", 2023, 2024, true},
		{"2023", 0, 0, false},
		{"-24", 0, 0, false},
		{"abcd-ef", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		start, stop, ok := SplitYearLabel(tt.in)
		if start != tt.start || stop != tt.stop || ok != tt.ok {
			t.Errorf("SplitYearLabel(%q) = (%d, %d, %v), want (%d, %d, %v)",
				tt.in, start, stop, ok, tt.start, tt.stop, tt.ok)
		}
	}
}

func TestSplitMonthYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		year  int
		month int
		ok    bool
	}{
		{"Mar-2024", 2024, 3, true},
		{"mar-2024", 2024, 3, true},
		{"DEC-2019", 2019, 12, true},
		{" Jan - 2021 ", 2021, 1, true},
		{"March-2024", 0, 0, false},
		{"2024-Mar", 0, 0, false},
		{"Mar", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		year, month, ok := SplitMonthYear(tt.in)
		if year != tt.year || month != tt.month || ok != tt.ok {
			t.Errorf("SplitMonthYear(%q) = (%d, %d, %v), want (%d, %d, %v)",
				tt.in, year, month, ok, tt.year, tt.month, tt.ok)
		}
	}
}
