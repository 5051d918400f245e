package models

import "testing"

func TestDefaultSetting(t *testing.T) {
	setting := DefaultSetting()
	if setting.DefaultInvoiceDay != 5 {
		t.Errorf("DefaultInvoiceDay = %d, want 5", setting.DefaultInvoiceDay)
	}
	if setting.PppoeDisableGraceDays != 7 {
		t.Errorf("PppoeDisableGraceDays = %d, want 7", setting.PppoeDisableGraceDays)
	}
	if setting.WaTemplate == "" || setting.PaymentConfirmationTemplate == "" || setting.InvoiceGenerationTemplate == "" {
		t.Error("default templates must not be empty")
	}
}

func TestGraceDaysFallsBackOnInvalidValues(t *testing.T) {
	var nilSetting *Setting
	if nilSetting.GraceDays() != DefaultPppoeGraceDays {
		t.Error("nil setting should use default grace days")
	}
	if (&Setting{PppoeDisableGraceDays: -1}).GraceDays() != DefaultPppoeGraceDays {
		t.Error("negative grace days should fall back to default")
	}
	if (&Setting{PppoeDisableGraceDays: 0}).GraceDays() != 0 {
		t.Error("zero grace days is valid (disable the day after due date)")
	}
	if (&Setting{PppoeDisableGraceDays: 14}).GraceDays() != 14 {
		t.Error("configured grace days should be honored")
	}
}

func TestInvoiceDayFallsBackOnInvalidValues(t *testing.T) {
	if (&Setting{DefaultInvoiceDay: 0}).InvoiceDay() != DefaultInvoiceDay {
		t.Error("zero invoice day should fall back to default")
	}
	if (&Setting{DefaultInvoiceDay: 32}).InvoiceDay() != DefaultInvoiceDay {
		t.Error("out-of-range invoice day should fall back to default")
	}
	if (&Setting{DefaultInvoiceDay: 1}).InvoiceDay() != 1 {
		t.Error("configured invoice day should be honored")
	}
}

func TestMikrotikConfigured(t *testing.T) {
	complete := &Setting{MikrotikHost: "10.0.0.1", MikrotikUser: "api", MikrotikPass: "secret"}
	if !complete.MikrotikConfigured() {
		t.Error("complete config should report configured")
	}
	for _, s := range []*Setting{
		nil,
		{},
		{MikrotikHost: "10.0.0.1"},
		{MikrotikHost: "10.0.0.1", MikrotikUser: "api"},
	} {
		if s.MikrotikConfigured() {
			t.Errorf("incomplete config %+v should not report configured", s)
		}
	}
}
