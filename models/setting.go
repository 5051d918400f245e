package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"gorm.io/gorm"
)

const (
	DefaultInvoiceDay       = 5
	DefaultPppoeGraceDays   = 7
	DefaultMikrotikRestPort = "443"
	DefaultWablasApiUrl     = "https://console.wablas.com"
	// All scheduled jobs and date comparisons are pinned to this civil timezone.
	DefaultTimezone = "Asia/Jakarta"
)

const (
	DefaultWaTemplate                  = "Halo {customer_name}, tagihan Anda {invoice_number} sebesar Rp {amount} jatuh tempo pada {due_date}. Mohon segera melakukan pembayaran."
	DefaultPaymentConfirmationTemplate = "Hormat {customer_name},\nPembayaran Anda untuk tagihan {invoice_number} sebesar Rp {amount} telah kami terima pada {payment_date}.\nTerima kasih atas kepercayaan Anda."
	DefaultInvoiceGenerationTemplate   = "Halo {customer_name}, tagihan baru {invoice_number} sebesar Rp {amount} telah diterbitkan. Jatuh tempo {due_date}."
)

const settingRedisKey = "setting:singleton"

// Setting is a singleton record; exactly one row is expected. Readers fall
// back to defaults when the row is missing.
type Setting struct {
	ID                    int    `gorm:"primary_key" json:"id"`
	ProviderName          string `gorm:"size:100;default:'Internet Provider'" json:"provider_name"`
	DefaultInvoiceDay     int    `gorm:"default:5" json:"default_invoice_day"`
	PppoeDisableGraceDays int    `gorm:"default:7" json:"pppoe_disable_grace_days"`

	MikrotikHost string `gorm:"size:100" json:"mikrotik_host"`
	MikrotikPort string `gorm:"size:10;default:'443'" json:"mikrotik_port"`
	MikrotikUser string `gorm:"size:100" json:"mikrotik_user"`
	MikrotikPass string `gorm:"size:100" json:"-"`

	WhatsappProvider WhatsappProvider `gorm:"size:20" json:"whatsapp_provider"`
	WablasApiKey     string           `gorm:"size:255" json:"-"`
	WablasSecretKey  string           `gorm:"size:255" json:"-"`
	WablasApiUrl     string           `gorm:"size:255;default:'https://console.wablas.com'" json:"wablas_api_url"`
	KirimiUserCode   string           `gorm:"size:100" json:"kirimi_user_code"`
	KirimiSecretKey  string           `gorm:"size:255" json:"-"`
	KirimiDeviceId   string           `gorm:"size:100" json:"kirimi_device_id"`

	WaTemplate                  string `gorm:"type:text" json:"wa_template"`
	PaymentConfirmationTemplate string `gorm:"type:text" json:"payment_confirmation_template"`
	InvoiceGenerationTemplate   string `gorm:"type:text" json:"invoice_generation_template"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func DefaultSetting() *Setting {
	return &Setting{
		ProviderName:                "Internet Provider",
		DefaultInvoiceDay:           DefaultInvoiceDay,
		PppoeDisableGraceDays:       DefaultPppoeGraceDays,
		MikrotikPort:                DefaultMikrotikRestPort,
		WablasApiUrl:                DefaultWablasApiUrl,
		WaTemplate:                  DefaultWaTemplate,
		PaymentConfirmationTemplate: DefaultPaymentConfirmationTemplate,
		InvoiceGenerationTemplate:   DefaultInvoiceGenerationTemplate,
	}
}

// GetSetting returns the singleton record, redis-cached. A missing row is not
// an error: defaults are returned so the engines keep working before the
// admin ever saves settings.
func GetSetting(ctx context.Context) (*Setting, error) {
	var setting Setting
	exists, err := config.GetRedisObject(settingRedisKey, &setting)
	if err == nil && exists {
		return &setting, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DefaultSetting(), nil
		}
		return nil, err
	}
	if err := config.SetRedisObject(settingRedisKey, &setting, 0); err != nil {
		config.LogError(config.GetLogger(), "setting.go", "GetSetting", "SetRedisObject", nil, err)
	}
	return &setting, nil
}

// GraceDays returns the PPPoE disable grace period, never negative.
func (s *Setting) GraceDays() int {
	if s == nil || s.PppoeDisableGraceDays < 0 {
		return DefaultPppoeGraceDays
	}
	return s.PppoeDisableGraceDays
}

// InvoiceDay returns the day-of-month the monthly generation job fires on.
func (s *Setting) InvoiceDay() int {
	if s == nil || s.DefaultInvoiceDay < 1 || s.DefaultInvoiceDay > 31 {
		return DefaultInvoiceDay
	}
	return s.DefaultInvoiceDay
}

func (s *Setting) MikrotikConfigured() bool {
	return s != nil && s.MikrotikHost != "" && s.MikrotikUser != "" && s.MikrotikPass != ""
}

type SystemSettingsInput struct {
	ProviderName          string `json:"provider_name" binding:"required"`
	DefaultInvoiceDay     int    `json:"default_invoice_day" binding:"required,min=1,max=31"`
	PppoeDisableGraceDays *int   `json:"pppoe_disable_grace_days" binding:"required,min=0"`
}

type TemplateSettingsInput struct {
	WaTemplate                  string `json:"wa_template"`
	PaymentConfirmationTemplate string `json:"payment_confirmation_template"`
	InvoiceGenerationTemplate   string `json:"invoice_generation_template"`
}

type IntegrationSettingsInput struct {
	MikrotikHost     string           `json:"mikrotik_host"`
	MikrotikPort     string           `json:"mikrotik_port"`
	MikrotikUser     string           `json:"mikrotik_user"`
	MikrotikPass     string           `json:"mikrotik_pass"`
	WhatsappProvider WhatsappProvider `json:"whatsapp_provider"`
	WablasApiKey     string           `json:"wablas_api_key"`
	WablasSecretKey  string           `json:"wablas_secret_key"`
	WablasApiUrl     string           `json:"wablas_api_url"`
	KirimiUserCode   string           `json:"kirimi_user_code"`
	KirimiSecretKey  string           `json:"kirimi_secret_key"`
	KirimiDeviceId   string           `json:"kirimi_device_id"`
}

// loadOrInitSetting fetches the singleton row for update, creating it with
// defaults on first save.
func loadOrInitSetting(ctx context.Context, db *gorm.DB) (*Setting, error) {
	var setting Setting
	err := db.WithContext(ctx).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = *DefaultSetting()
		if err := db.WithContext(ctx).Create(&setting).Error; err != nil {
			return nil, err
		}
		return &setting, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func UpdateSystemSettings(ctx context.Context, input *SystemSettingsInput) (*Setting, error) {
	db := config.GetDB()
	setting, err := loadOrInitSetting(ctx, db)
	if err != nil {
		return nil, err
	}

	setting.ProviderName = input.ProviderName
	setting.DefaultInvoiceDay = input.DefaultInvoiceDay
	if input.PppoeDisableGraceDays != nil {
		setting.PppoeDisableGraceDays = *input.PppoeDisableGraceDays
	}

	if err := db.WithContext(ctx).Save(setting).Error; err != nil {
		return nil, err
	}
	invalidateSettingCache()
	return setting, nil
}

func UpdateTemplateSettings(ctx context.Context, input *TemplateSettingsInput) (*Setting, error) {
	db := config.GetDB()
	setting, err := loadOrInitSetting(ctx, db)
	if err != nil {
		return nil, err
	}

	setting.WaTemplate = input.WaTemplate
	setting.PaymentConfirmationTemplate = input.PaymentConfirmationTemplate
	setting.InvoiceGenerationTemplate = input.InvoiceGenerationTemplate

	if err := db.WithContext(ctx).Save(setting).Error; err != nil {
		return nil, err
	}
	invalidateSettingCache()
	return setting, nil
}

func UpdateIntegrationSettings(ctx context.Context, input *IntegrationSettingsInput) (*Setting, error) {
	db := config.GetDB()
	setting, err := loadOrInitSetting(ctx, db)
	if err != nil {
		return nil, err
	}

	setting.MikrotikHost = input.MikrotikHost
	if input.MikrotikPort != "" {
		setting.MikrotikPort = input.MikrotikPort
	}
	setting.MikrotikUser = input.MikrotikUser
	// Blank password means "keep the stored one" so admins can resave the
	// form without retyping credentials.
	if input.MikrotikPass != "" {
		setting.MikrotikPass = input.MikrotikPass
	}

	setting.WhatsappProvider = input.WhatsappProvider
	setting.WablasApiKey = input.WablasApiKey
	if input.WablasSecretKey != "" {
		setting.WablasSecretKey = input.WablasSecretKey
	}
	if input.WablasApiUrl != "" {
		setting.WablasApiUrl = input.WablasApiUrl
	}
	setting.KirimiUserCode = input.KirimiUserCode
	if input.KirimiSecretKey != "" {
		setting.KirimiSecretKey = input.KirimiSecretKey
	}
	setting.KirimiDeviceId = input.KirimiDeviceId

	if err := db.WithContext(ctx).Save(setting).Error; err != nil {
		return nil, err
	}
	invalidateSettingCache()
	return setting, nil
}

func invalidateSettingCache() {
	if err := config.RemoveRedisKey(settingRedisKey); err != nil {
		config.LogError(config.GetLogger(), "setting.go", "invalidateSettingCache", "RemoveRedisKey", nil, err)
	}
}
