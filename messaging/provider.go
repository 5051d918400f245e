// Package messaging sends WhatsApp notifications through interchangeable
// gateway providers selected from the Setting record.
package messaging

import (
	"context"
	"errors"

	"bitbucket.org/nusalink/ispbilling_backend/models"
)

// Payload is one rendered message for one recipient. Phone must already be
// in international format (62812...).
type Payload struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type Provider interface {
	Name() string
	Send(ctx context.Context, payload Payload) error
}

var (
	ErrProviderNotConfigured = errors.New("whatsapp provider is not configured")
	ErrUnknownProvider       = errors.New("unknown whatsapp provider")
)

// NewProviderFromSetting branches on the configured provider and fails fast
// on missing credentials, before any message is attempted.
func NewProviderFromSetting(setting *models.Setting) (Provider, error) {
	if setting == nil || setting.WhatsappProvider == "" {
		return nil, ErrProviderNotConfigured
	}
	switch setting.WhatsappProvider {
	case models.WhatsappProviderWablas:
		if setting.WablasApiKey == "" || setting.WablasSecretKey == "" {
			return nil, errors.New("wablas api key is not configured")
		}
		return NewWablasProvider(setting.WablasApiUrl, setting.WablasApiKey, setting.WablasSecretKey), nil
	case models.WhatsappProviderKirimi:
		if setting.KirimiUserCode == "" || setting.KirimiSecretKey == "" || setting.KirimiDeviceId == "" {
			return nil, errors.New("kirimi user code, secret key or device id is not configured")
		}
		return NewKirimiProvider(setting.KirimiUserCode, setting.KirimiSecretKey, setting.KirimiDeviceId), nil
	default:
		return nil, ErrUnknownProvider
	}
}
