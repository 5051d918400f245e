package models

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNextInvoiceNumberFormat(t *testing.T) {
	number := NextInvoiceNumber(42)
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != "INV" {
		t.Fatalf("invoice number = %q", number)
	}
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		t.Fatalf("timestamp segment %q is not numeric", parts[1])
	}
	now := time.Now().UnixMilli()
	if millis > now || millis < now-time.Minute.Milliseconds() {
		t.Errorf("timestamp segment %d is not recent (now=%d)", millis, now)
	}
	if parts[2] != "42" {
		t.Errorf("customer segment = %q, want 42", parts[2])
	}
}

func TestCalculateDueDate(t *testing.T) {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		t.Fatal(err)
	}

	// 30 days after the first of the month, not a fixed day-of-month.
	cases := []struct {
		month time.Month
		year  int
		want  time.Time
	}{
		{time.August, 2025, time.Date(2025, time.August, 31, 0, 0, 0, 0, loc)},
		{time.February, 2025, time.Date(2025, time.March, 3, 0, 0, 0, 0, loc)},
		{time.December, 2024, time.Date(2024, time.December, 31, 0, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		got := CalculateDueDate(tc.month, tc.year, loc)
		if !got.Equal(tc.want) {
			t.Errorf("CalculateDueDate(%v, %d) = %v, want %v", tc.month, tc.year, got, tc.want)
		}
	}
}
