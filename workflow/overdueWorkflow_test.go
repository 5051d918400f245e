package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/routeros"
)

type fakeSession struct {
	secrets      map[string]*routeros.Secret
	active       map[string]*routeros.ActiveSession
	disabled     []string
	kicked       []string
	disableError error
	closed       bool
}

func (f *fakeSession) ListSecrets(ctx context.Context) ([]routeros.Secret, error) {
	out := make([]routeros.Secret, 0, len(f.secrets))
	for _, s := range f.secrets {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSession) FindSecretByName(ctx context.Context, name string) (*routeros.Secret, error) {
	return f.secrets[name], nil
}

func (f *fakeSession) CreateSecret(ctx context.Context, name, password, service string) error {
	f.secrets[name] = &routeros.Secret{ID: "*" + name, Name: name, Password: password, Service: service}
	return nil
}

func (f *fakeSession) RenameSecret(ctx context.Context, id, name, password string) error {
	return nil
}

func (f *fakeSession) SetSecretDisabled(ctx context.Context, id string, disabled bool) error {
	if f.disableError != nil {
		return f.disableError
	}
	if disabled {
		f.disabled = append(f.disabled, id)
	}
	return nil
}

func (f *fakeSession) DeleteSecret(ctx context.Context, id string) error { return nil }

func (f *fakeSession) ListActive(ctx context.Context) ([]routeros.ActiveSession, error) {
	out := make([]routeros.ActiveSession, 0, len(f.active))
	for _, a := range f.active {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeSession) FindActiveByName(ctx context.Context, name string) (*routeros.ActiveSession, error) {
	return f.active[name], nil
}

func (f *fakeSession) RemoveActiveSession(ctx context.Context, id string) error {
	f.kicked = append(f.kicked, id)
	return nil
}

func (f *fakeSession) Close() { f.closed = true }

type fakeConnector struct {
	session      *fakeSession
	connectError error
	// failOnce fails the first Connect call only.
	failOnce bool
	calls    int
}

func (f *fakeConnector) Connect(ctx context.Context, cfg routeros.Config) (routeros.Session, error) {
	f.calls++
	if f.connectError != nil {
		if !f.failOnce || f.calls == 1 {
			return nil, f.connectError
		}
	}
	return f.session, nil
}

func strPtr(s string) *string { return &s }

func overdueInvoice(id int, customerId int, username *string) *models.Invoice {
	return &models.Invoice{
		ID:            id,
		InvoiceNumber: "INV-1722400000000-" + string(rune('0'+id)),
		CustomerId:    customerId,
		Customer: &models.Customer{
			ID:            customerId,
			Name:          "Customer",
			PppoeUsername: username,
		},
	}
}

func TestOverdueCutoffBoundary(t *testing.T) {
	loc := jakartaLocation(t)
	now := time.Date(2025, time.August, 15, 10, 30, 0, 0, loc)

	cutoff := OverdueCutoff(now, 7, loc)
	want := time.Date(2025, time.August, 8, 0, 0, 0, 0, loc)
	if !cutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", cutoff, want)
	}

	// An invoice due exactly graceDays ago sits on the boundary and is NOT
	// overdue under the strict dueDate < cutoff comparison.
	dueExactly := time.Date(2025, time.August, 8, 0, 0, 0, 0, loc)
	if dueExactly.Before(cutoff) {
		t.Error("invoice due exactly 7 days ago must not be selected")
	}
	dueEight := time.Date(2025, time.August, 7, 0, 0, 0, 0, loc)
	if !dueEight.Before(cutoff) {
		t.Error("invoice due 8 days ago must be selected")
	}
	dueSix := time.Date(2025, time.August, 9, 0, 0, 0, 0, loc)
	if dueSix.Before(cutoff) {
		t.Error("invoice due 6 days ago must not be selected")
	}
}

func TestOverdueCutoffIgnoresTimeOfDay(t *testing.T) {
	loc := jakartaLocation(t)
	morning := time.Date(2025, time.August, 15, 0, 5, 0, 0, loc)
	evening := time.Date(2025, time.August, 15, 23, 55, 0, 0, loc)
	if !OverdueCutoff(morning, 7, loc).Equal(OverdueCutoff(evening, 7, loc)) {
		t.Error("cutoff must depend only on the calendar day")
	}
}

func TestDisableOverdueSubscribersDisablesAndKicks(t *testing.T) {
	session := &fakeSession{
		secrets: map[string]*routeros.Secret{
			"budi01": {ID: "*1", Name: "budi01"},
		},
		active: map[string]*routeros.ActiveSession{
			"budi01": {ID: "*A1", Name: "budi01"},
		},
	}
	connector := &fakeConnector{session: session}
	report := &OverdueRunReport{}

	invoices := []*models.Invoice{overdueInvoice(1, 7, strPtr("budi01"))}
	disableOverdueSubscribers(context.Background(), connector, routeros.Config{}, invoices, report)

	if report.Disabled != 1 || report.Failed != 0 || report.Skipped != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(session.disabled) != 1 || session.disabled[0] != "*1" {
		t.Errorf("disabled secrets = %v", session.disabled)
	}
	if len(session.kicked) != 1 || session.kicked[0] != "*A1" {
		t.Errorf("kicked sessions = %v", session.kicked)
	}
	if !report.Items[0].SessionKicked {
		t.Error("item should record the kicked session")
	}
	if !session.closed {
		t.Error("session must be closed")
	}
}

func TestDisableOverdueSubscribersSkipsWithoutUsername(t *testing.T) {
	session := &fakeSession{secrets: map[string]*routeros.Secret{}}
	connector := &fakeConnector{session: session}
	report := &OverdueRunReport{}

	invoices := []*models.Invoice{
		overdueInvoice(1, 7, nil),
		overdueInvoice(2, 8, strPtr("")),
	}
	disableOverdueSubscribers(context.Background(), connector, routeros.Config{}, invoices, report)

	if report.Skipped != 2 || report.Disabled != 0 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
	// No username means the router is never contacted.
	if connector.calls != 0 {
		t.Errorf("connector called %d times, want 0", connector.calls)
	}
	for _, item := range report.Items {
		if item.Outcome != OverdueOutcomeSkippedNoUser {
			t.Errorf("outcome = %q, want %q", item.Outcome, OverdueOutcomeSkippedNoUser)
		}
	}
}

func TestDisableOverdueSubscribersSkipsMissingSecret(t *testing.T) {
	session := &fakeSession{secrets: map[string]*routeros.Secret{}}
	connector := &fakeConnector{session: session}
	report := &OverdueRunReport{}

	invoices := []*models.Invoice{overdueInvoice(1, 7, strPtr("ghost"))}
	disableOverdueSubscribers(context.Background(), connector, routeros.Config{}, invoices, report)

	if report.Skipped != 1 || report.Disabled != 0 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if report.Items[0].Outcome != OverdueOutcomeSkippedNoAuth {
		t.Errorf("outcome = %q", report.Items[0].Outcome)
	}
}

func TestDisableOverdueSubscribersIsolatesFailures(t *testing.T) {
	session := &fakeSession{
		secrets: map[string]*routeros.Secret{
			"siti02": {ID: "*2", Name: "siti02"},
		},
		active: map[string]*routeros.ActiveSession{},
	}
	// First connect (customer A) fails; second (customer B) succeeds.
	connector := &fakeConnector{
		session:      session,
		connectError: errors.New("connection timed out"),
		failOnce:     true,
	}
	report := &OverdueRunReport{}

	invoices := []*models.Invoice{
		overdueInvoice(1, 7, strPtr("budi01")),
		overdueInvoice(2, 8, strPtr("siti02")),
	}
	disableOverdueSubscribers(context.Background(), connector, routeros.Config{}, invoices, report)

	if report.Failed != 1 || report.Disabled != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Items[0].Outcome != OverdueOutcomeFailed || report.Items[0].Error == "" {
		t.Errorf("first item = %+v", report.Items[0])
	}
	if report.Items[1].Outcome != OverdueOutcomeDisabled {
		t.Errorf("second item = %+v", report.Items[1])
	}
	if len(session.disabled) != 1 || session.disabled[0] != "*2" {
		t.Errorf("disabled secrets = %v", session.disabled)
	}
}

func TestRouterConfigFromSetting(t *testing.T) {
	setting := &models.Setting{
		MikrotikHost: "10.0.0.1",
		MikrotikPort: "8443",
		MikrotikUser: "api",
		MikrotikPass: "secret",
	}
	cfg := RouterConfigFromSetting(setting)
	if cfg.Host != "10.0.0.1" || cfg.Port != "8443" || cfg.User != "api" || cfg.Password != "secret" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Timeout != routeros.DefaultTimeout {
		t.Errorf("timeout = %v, want %v", cfg.Timeout, routeros.DefaultTimeout)
	}
}
