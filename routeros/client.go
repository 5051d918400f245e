// Package routeros talks to a MikroTik router over the RouterOS v7 REST API.
// Sessions are scoped per operation: connect, use, close — never pooled.
package routeros

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every router call so one unreachable device cannot
// stall a batch run.
const DefaultTimeout = 5 * time.Second

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Timeout  time.Duration
}

// Secret is a PPP credential object on the router. Disabled is the wire
// string "true"/"false" as RouterOS reports it.
type Secret struct {
	ID       string `json:".id"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Profile  string `json:"profile"`
	Service  string `json:"service"`
	Disabled string `json:"disabled"`
}

func (s Secret) IsDisabled() bool {
	return s.Disabled == "true" || s.Disabled == "yes"
}

// ActiveSession is a currently connected subscriber, distinct from its secret.
type ActiveSession struct {
	ID       string `json:".id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	CallerID string `json:"caller-id"`
	Uptime   string `json:"uptime"`
}

type Session interface {
	ListSecrets(ctx context.Context) ([]Secret, error)
	// FindSecretByName returns (nil, nil) when no secret matches.
	FindSecretByName(ctx context.Context, name string) (*Secret, error)
	CreateSecret(ctx context.Context, name string, password string, service string) error
	RenameSecret(ctx context.Context, id string, name string, password string) error
	SetSecretDisabled(ctx context.Context, id string, disabled bool) error
	DeleteSecret(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]ActiveSession, error)
	// FindActiveByName returns (nil, nil) when the subscriber is offline.
	FindActiveByName(ctx context.Context, name string) (*ActiveSession, error)
	RemoveActiveSession(ctx context.Context, id string) error
	Close()
}

type Connector interface {
	Connect(ctx context.Context, cfg Config) (Session, error)
}

type restConnector struct{}

func NewRestConnector() Connector {
	return restConnector{}
}

type restSession struct {
	client *resty.Client
}

// Connect builds the REST client and verifies reachability and credentials
// with a probe request, mirroring a login handshake.
func (restConnector) Connect(ctx context.Context, cfg Config) (Session, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" {
		return nil, fmt.Errorf("router configuration is incomplete")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	port := cfg.Port
	if port == "" {
		port = "443"
	}

	client := resty.New().
		SetBaseURL(fmt.Sprintf("https://%s:%s/rest", cfg.Host, port)).
		SetBasicAuth(cfg.User, cfg.Password).
		SetTimeout(timeout).
		// Routers ship self-signed certificates.
		SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})

	session := &restSession{client: client}

	resp, err := client.R().SetContext(ctx).Get("/system/resource")
	if err != nil {
		return nil, fmt.Errorf("router unreachable: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("router login failed: status %d", resp.StatusCode())
	}
	return session, nil
}

func (s *restSession) ListSecrets(ctx context.Context) ([]Secret, error) {
	var secrets []Secret
	resp, err := s.client.R().SetContext(ctx).SetResult(&secrets).Get("/ppp/secret")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("list secrets: status %d", resp.StatusCode())
	}
	return secrets, nil
}

func (s *restSession) FindSecretByName(ctx context.Context, name string) (*Secret, error) {
	var secrets []Secret
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("name", name).
		SetResult(&secrets).
		Get("/ppp/secret")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("find secret: status %d", resp.StatusCode())
	}
	if len(secrets) == 0 {
		return nil, nil
	}
	return &secrets[0], nil
}

func (s *restSession) CreateSecret(ctx context.Context, name string, password string, service string) error {
	if service == "" {
		service = "pppoe"
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"name":     name,
			"password": password,
			"service":  service,
		}).
		Put("/ppp/secret")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return fmt.Errorf("create secret: status %d", resp.StatusCode())
	}
	return nil
}

func (s *restSession) RenameSecret(ctx context.Context, id string, name string, password string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"name":     name,
			"password": password,
		}).
		Patch("/ppp/secret/" + id)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("rename secret: status %d", resp.StatusCode())
	}
	return nil
}

// SetSecretDisabled is a set, not a toggle; disabling an already-disabled
// secret is a no-op on the router.
func (s *restSession) SetSecretDisabled(ctx context.Context, id string, disabled bool) error {
	value := "false"
	if disabled {
		value = "true"
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"disabled": value}).
		Patch("/ppp/secret/" + id)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("set secret disabled: status %d", resp.StatusCode())
	}
	return nil
}

func (s *restSession) DeleteSecret(ctx context.Context, id string) error {
	resp, err := s.client.R().SetContext(ctx).Delete("/ppp/secret/" + id)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("delete secret: status %d", resp.StatusCode())
	}
	return nil
}

func (s *restSession) ListActive(ctx context.Context) ([]ActiveSession, error) {
	var active []ActiveSession
	resp, err := s.client.R().SetContext(ctx).SetResult(&active).Get("/ppp/active")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("list active: status %d", resp.StatusCode())
	}
	return active, nil
}

func (s *restSession) FindActiveByName(ctx context.Context, name string) (*ActiveSession, error) {
	var active []ActiveSession
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("name", name).
		SetResult(&active).
		Get("/ppp/active")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("find active: status %d", resp.StatusCode())
	}
	if len(active) == 0 {
		return nil, nil
	}
	return &active[0], nil
}

func (s *restSession) RemoveActiveSession(ctx context.Context, id string) error {
	resp, err := s.client.R().SetContext(ctx).Delete("/ppp/active/" + id)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("remove active session: status %d", resp.StatusCode())
	}
	return nil
}

func (s *restSession) Close() {
	// The REST transport is stateless; nothing to tear down beyond idle
	// connections.
	if s.client != nil {
		s.client.GetClient().CloseIdleConnections()
	}
}
