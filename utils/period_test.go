package utils

import (
	"testing"
	"time"
)

func TestFormatPeriodZeroPadsMonth(t *testing.T) {
	cases := []struct {
		month time.Month
		year  int
		want  string
	}{
		{time.January, 2025, "01-2025"},
		{time.September, 2024, "09-2024"},
		{time.December, 2024, "12-2024"},
	}
	for _, tc := range cases {
		if got := FormatPeriod(tc.month, tc.year); got != tc.want {
			t.Errorf("FormatPeriod(%v, %d) = %q, want %q", tc.month, tc.year, got, tc.want)
		}
	}
}

func TestPreviousPeriodRollsOverYear(t *testing.T) {
	if got := PreviousPeriod(time.January, 2025); got != "12-2024" {
		t.Errorf("PreviousPeriod(January, 2025) = %q, want %q", got, "12-2024")
	}
	if got := PreviousPeriod(time.March, 2025); got != "02-2025" {
		t.Errorf("PreviousPeriod(March, 2025) = %q, want %q", got, "02-2025")
	}
}

func TestParsePeriod(t *testing.T) {
	month, year, err := ParsePeriod("07-2025")
	if err != nil {
		t.Fatalf("ParsePeriod returned error: %v", err)
	}
	if month != time.July || year != 2025 {
		t.Errorf("ParsePeriod(\"07-2025\") = (%v, %d)", month, year)
	}

	// Unpadded months exist in old records.
	month, year, err = ParsePeriod("7-2025")
	if err != nil {
		t.Fatalf("ParsePeriod returned error for unpadded month: %v", err)
	}
	if month != time.July || year != 2025 {
		t.Errorf("ParsePeriod(\"7-2025\") = (%v, %d)", month, year)
	}

	for _, bad := range []string{"", "2025", "13-2025", "00-2025", "ab-2025", "01-xyz"} {
		if _, _, err := ParsePeriod(bad); err == nil {
			t.Errorf("ParsePeriod(%q) should fail", bad)
		}
	}
}

func TestPeriodStart(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatal(err)
	}
	got := PeriodStart(time.August, 2025, loc)
	want := time.Date(2025, time.August, 1, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("PeriodStart = %v, want %v", got, want)
	}
}
