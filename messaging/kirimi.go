package messaging

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

const kirimiApiUrl = "https://api.kirimi.id"

type kirimiProvider struct {
	client   *resty.Client
	userCode string
	secret   string
	deviceId string
}

func NewKirimiProvider(userCode string, secretKey string, deviceId string) Provider {
	return &kirimiProvider{
		client:   resty.New().SetBaseURL(kirimiApiUrl),
		userCode: userCode,
		secret:   secretKey,
		deviceId: deviceId,
	}
}

func (p *kirimiProvider) Name() string {
	return "kirimi"
}

func (p *kirimiProvider) Send(ctx context.Context, payload Payload) error {
	body := map[string]string{
		"user_code": p.userCode,
		"device_id": p.deviceId,
		"receiver":  payload.Phone,
		"message":   payload.Message,
		"secret":    p.secret,
	}
	resp, err := p.client.R().SetContext(ctx).SetBody(body).Post("/v1/send-message")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("kirimi send failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
