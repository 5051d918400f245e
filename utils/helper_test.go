package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		amount string
		want   string
	}{
		{"0", "0"},
		{"500", "500"},
		{"1500", "1.500"},
		{"250000", "250.000"},
		{"1250000", "1.250.000"},
		{"-75000", "-75.000"},
		{"300000.49", "300.000"},
	}
	for _, tc := range cases {
		amount, err := decimal.NewFromString(tc.amount)
		if err != nil {
			t.Fatal(err)
		}
		if got := FormatRupiah(amount); got != tc.want {
			t.Errorf("FormatRupiah(%s) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestNilIfEmpty(t *testing.T) {
	if NilIfEmpty("") != nil {
		t.Error("NilIfEmpty(\"\") should be nil")
	}
	if got := NilIfEmpty("user01"); got == nil || *got != "user01" {
		t.Errorf("NilIfEmpty(\"user01\") = %v", got)
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("budi@example.com") {
		t.Error("expected valid email")
	}
	if IsValidEmail("not-an-email") {
		t.Error("expected invalid email")
	}
}
