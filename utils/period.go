package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Billing periods are calendar months keyed as "MM-YYYY" (zero-padded month).

func FormatPeriod(month time.Month, year int) string {
	return fmt.Sprintf("%02d-%d", int(month), year)
}

// PreviousPeriod returns the period immediately before (month, year),
// rolling over to December of the previous year for January.
func PreviousPeriod(month time.Month, year int) string {
	prevMonth := int(month) - 1
	prevYear := year
	if prevMonth < 1 {
		prevMonth = 12
		prevYear = year - 1
	}
	return FormatPeriod(time.Month(prevMonth), prevYear)
}

// ParsePeriod parses "MM-YYYY". The month may be unpadded for records
// written before period formatting was normalized.
func ParsePeriod(period string) (time.Month, int, error) {
	parts := strings.Split(period, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid period %q", period)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid period month %q", period)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || year < 1 {
		return 0, 0, fmt.Errorf("invalid period year %q", period)
	}
	return time.Month(month), year, nil
}

// PeriodStart returns midnight on the first day of the period in loc.
func PeriodStart(month time.Month, year int, loc *time.Location) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, loc)
}
