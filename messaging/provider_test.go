package messaging

import (
	"errors"
	"testing"

	"bitbucket.org/nusalink/ispbilling_backend/models"
)

func TestNewProviderFromSettingUnconfigured(t *testing.T) {
	if _, err := NewProviderFromSetting(nil); !errors.Is(err, ErrProviderNotConfigured) {
		t.Errorf("nil setting: got %v, want ErrProviderNotConfigured", err)
	}
	if _, err := NewProviderFromSetting(&models.Setting{}); !errors.Is(err, ErrProviderNotConfigured) {
		t.Errorf("empty provider: got %v, want ErrProviderNotConfigured", err)
	}
}

func TestNewProviderFromSettingUnknown(t *testing.T) {
	setting := &models.Setting{WhatsappProvider: "telegram"}
	if _, err := NewProviderFromSetting(setting); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("got %v, want ErrUnknownProvider", err)
	}
}

func TestNewProviderFromSettingWablas(t *testing.T) {
	setting := &models.Setting{
		WhatsappProvider: models.WhatsappProviderWablas,
		WablasApiUrl:     models.DefaultWablasApiUrl,
	}
	if _, err := NewProviderFromSetting(setting); err == nil {
		t.Error("missing wablas credentials should fail")
	}

	setting.WablasApiKey = "key"
	setting.WablasSecretKey = "secret"
	provider, err := NewProviderFromSetting(setting)
	if err != nil {
		t.Fatalf("NewProviderFromSetting: %v", err)
	}
	if provider.Name() != "wablas" {
		t.Errorf("provider name = %q", provider.Name())
	}
}

func TestNewProviderFromSettingKirimi(t *testing.T) {
	setting := &models.Setting{
		WhatsappProvider: models.WhatsappProviderKirimi,
		KirimiUserCode:   "UC01",
		KirimiDeviceId:   "DEV01",
	}
	if _, err := NewProviderFromSetting(setting); err == nil {
		t.Error("missing kirimi secret should fail")
	}

	setting.KirimiSecretKey = "secret"
	provider, err := NewProviderFromSetting(setting)
	if err != nil {
		t.Fatalf("NewProviderFromSetting: %v", err)
	}
	if provider.Name() != "kirimi" {
		t.Errorf("provider name = %q", provider.Name())
	}
}
