package workflow

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/routeros"
)

var ErrSecretNotFound = errors.New("pppoe user not found on router")

// PppoeUser is one row of the monitoring view: a secret merged with its
// active session, if any.
type PppoeUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Profile  string `json:"profile"`
	CallerId string `json:"caller_id"`
	Address  string `json:"address"`
	Uptime   string `json:"uptime"`
	Disabled bool   `json:"disabled"`
	Active   bool   `json:"active"`
}

func connectRouter(ctx context.Context, connector routeros.Connector) (routeros.Session, error) {
	setting, err := models.GetSetting(ctx)
	if err != nil {
		return nil, err
	}
	if !setting.MikrotikConfigured() {
		return nil, errors.New("mikrotik configuration is incomplete; set it up under settings")
	}
	return connector.Connect(ctx, RouterConfigFromSetting(setting))
}

// FetchPppoeUsers merges all secrets with the active session list.
func FetchPppoeUsers(ctx context.Context, connector routeros.Connector) ([]PppoeUser, error) {
	session, err := connectRouter(ctx, connector)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	secrets, err := session.ListSecrets(ctx)
	if err != nil {
		return nil, err
	}
	active, err := session.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	return mergePppoeUsers(secrets, active), nil
}

func mergePppoeUsers(secrets []routeros.Secret, active []routeros.ActiveSession) []PppoeUser {
	activeByName := make(map[string]routeros.ActiveSession, len(active))
	for _, a := range active {
		activeByName[a.Name] = a
	}

	users := make([]PppoeUser, 0, len(secrets))
	for _, secret := range secrets {
		user := PppoeUser{
			ID:       secret.ID,
			Name:     secret.Name,
			Profile:  secret.Profile,
			CallerId: "-",
			Address:  "-",
			Uptime:   "0s",
			Disabled: secret.IsDisabled(),
		}
		if a, ok := activeByName[secret.Name]; ok {
			user.CallerId = a.CallerID
			user.Address = a.Address
			user.Uptime = a.Uptime
			user.Active = true
		}
		users = append(users, user)
	}
	return users
}

// EnablePppoeUser re-enables a secret, the restore half of the overdue
// engine's state model (called from the payment flow and the monitor page).
func EnablePppoeUser(ctx context.Context, connector routeros.Connector, name string) error {
	session, err := connectRouter(ctx, connector)
	if err != nil {
		return err
	}
	defer session.Close()

	secret, err := session.FindSecretByName(ctx, name)
	if err != nil {
		return err
	}
	if secret == nil {
		return ErrSecretNotFound
	}
	return session.SetSecretDisabled(ctx, secret.ID, false)
}

// DisablePppoeUser disables a secret and kicks the live session, if any.
func DisablePppoeUser(ctx context.Context, connector routeros.Connector, name string) error {
	session, err := connectRouter(ctx, connector)
	if err != nil {
		return err
	}
	defer session.Close()

	secret, err := session.FindSecretByName(ctx, name)
	if err != nil {
		return err
	}
	if secret == nil {
		return ErrSecretNotFound
	}
	if err := session.SetSecretDisabled(ctx, secret.ID, true); err != nil {
		return err
	}

	active, err := session.FindActiveByName(ctx, name)
	if err != nil {
		return err
	}
	if active != nil {
		return session.RemoveActiveSession(ctx, active.ID)
	}
	return nil
}

// ProvisionPppoeSecret creates the router secret for a newly provisioned
// customer. Password defaults to the username, matching how installations
// are handed over to technicians.
func ProvisionPppoeSecret(ctx context.Context, connector routeros.Connector, username string) error {
	session, err := connectRouter(ctx, connector)
	if err != nil {
		return err
	}
	defer session.Close()

	existing, err := session.FindSecretByName(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("pppoe secret %q already exists on router", username)
	}
	return session.CreateSecret(ctx, username, username, "pppoe")
}

// RenamePppoeSecret follows a pppoeUsername change on the customer record.
// Creates the secret when the old one is gone.
func RenamePppoeSecret(ctx context.Context, connector routeros.Connector, oldName string, newName string) error {
	session, err := connectRouter(ctx, connector)
	if err != nil {
		return err
	}
	defer session.Close()

	secret, err := session.FindSecretByName(ctx, oldName)
	if err != nil {
		return err
	}
	if secret == nil {
		return session.CreateSecret(ctx, newName, newName, "pppoe")
	}
	return session.RenameSecret(ctx, secret.ID, newName, newName)
}

// RemovePppoeSecret deletes the secret when the customer is removed.
func RemovePppoeSecret(ctx context.Context, connector routeros.Connector, username string) error {
	session, err := connectRouter(ctx, connector)
	if err != nil {
		return err
	}
	defer session.Close()

	secret, err := session.FindSecretByName(ctx, username)
	if err != nil {
		return err
	}
	if secret == nil {
		return nil
	}
	return session.DeleteSecret(ctx, secret.ID)
}

// BestEffortProvision wraps ProvisionPppoeSecret for flows where router
// failure must not fail the database write; the error is logged only.
func BestEffortProvision(ctx context.Context, connector routeros.Connector, username string) {
	if username == "" {
		return
	}
	if err := ProvisionPppoeSecret(ctx, connector, username); err != nil {
		config.LogError(config.GetLogger(), "pppoeWorkflow.go", "BestEffortProvision", "ProvisionPppoeSecret", username, err)
	}
}
