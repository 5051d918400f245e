package messaging

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

type wablasProvider struct {
	client *resty.Client
}

// NewWablasProvider authenticates with the "apiKey.secretKey" composite token
// Wablas expects in the Authorization header.
func NewWablasProvider(apiUrl string, apiKey string, secretKey string) Provider {
	client := resty.New().
		SetBaseURL(apiUrl).
		SetHeader("Authorization", fmt.Sprintf("%s.%s", apiKey, secretKey)).
		SetHeader("Content-Type", "application/json")
	return &wablasProvider{client: client}
}

func (p *wablasProvider) Name() string {
	return "wablas"
}

func (p *wablasProvider) Send(ctx context.Context, payload Payload) error {
	body := map[string]interface{}{
		"data": []Payload{payload},
	}
	resp, err := p.client.R().SetContext(ctx).SetBody(body).Post("/api/v2/send-message")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("wablas send failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
