package routeros

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// fakeRouter emulates the REST endpoints the client touches.
func fakeRouter(t *testing.T) (*httptest.Server, Config) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/rest/system/resource", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "api" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"version": "7.14"})
	})
	mux.HandleFunc("/rest/ppp/secret", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			secrets := []Secret{
				{ID: "*1", Name: "budi01", Profile: "default", Disabled: "false"},
				{ID: "*2", Name: "siti02", Profile: "default", Disabled: "true"},
			}
			if name := r.URL.Query().Get("name"); name != "" {
				filtered := secrets[:0:0]
				for _, s := range secrets {
					if s.Name == name {
						filtered = append(filtered, s)
					}
				}
				secrets = filtered
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(secrets)
		case http.MethodPut:
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/rest/ppp/secret/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch, http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/rest/ppp/active/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/rest/ppp/active", func(w http.ResponseWriter, r *http.Request) {
		active := []ActiveSession{
			{ID: "*A1", Name: "budi01", Address: "10.10.0.5", CallerID: "aa:bb:cc:dd:ee:ff", Uptime: "3h2m"},
		}
		if name := r.URL.Query().Get("name"); name != "" && name != "budi01" {
			active = nil
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(active)
	})

	server := httptest.NewTLSServer(mux)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatal(err)
	}
	return server, Config{Host: host, Port: port, User: "api", Password: "secret"}
}

func TestConnectProbesCredentials(t *testing.T) {
	_, cfg := fakeRouter(t)

	session, err := NewRestConnector().Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer session.Close()

	cfg.Password = "wrong"
	if _, err := NewRestConnector().Connect(context.Background(), cfg); err == nil {
		t.Error("Connect with bad credentials should fail")
	}
}

func TestConnectRejectsIncompleteConfig(t *testing.T) {
	if _, err := NewRestConnector().Connect(context.Background(), Config{Host: "10.0.0.1"}); err == nil {
		t.Error("Connect without credentials should fail")
	}
}

func TestFindSecretByName(t *testing.T) {
	_, cfg := fakeRouter(t)
	session, err := NewRestConnector().Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer session.Close()

	secret, err := session.FindSecretByName(context.Background(), "siti02")
	if err != nil {
		t.Fatalf("FindSecretByName: %v", err)
	}
	if secret == nil || secret.ID != "*2" {
		t.Fatalf("secret = %+v", secret)
	}
	if !secret.IsDisabled() {
		t.Error("siti02 should report disabled")
	}

	missing, err := session.FindSecretByName(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("FindSecretByName(ghost): %v", err)
	}
	if missing != nil {
		t.Errorf("missing secret should be nil, got %+v", missing)
	}
}

func TestActiveSessionLookup(t *testing.T) {
	_, cfg := fakeRouter(t)
	session, err := NewRestConnector().Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer session.Close()

	active, err := session.FindActiveByName(context.Background(), "budi01")
	if err != nil {
		t.Fatalf("FindActiveByName: %v", err)
	}
	if active == nil || active.ID != "*A1" {
		t.Fatalf("active = %+v", active)
	}

	offline, err := session.FindActiveByName(context.Background(), "siti02")
	if err != nil {
		t.Fatalf("FindActiveByName(siti02): %v", err)
	}
	if offline != nil {
		t.Errorf("offline subscriber should be nil, got %+v", offline)
	}

	if err := session.RemoveActiveSession(context.Background(), active.ID); err != nil {
		t.Errorf("RemoveActiveSession: %v", err)
	}
}

func TestSecretLifecycle(t *testing.T) {
	_, cfg := fakeRouter(t)
	session, err := NewRestConnector().Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer session.Close()

	if err := session.CreateSecret(context.Background(), "agus03", "agus03", "pppoe"); err != nil {
		t.Errorf("CreateSecret: %v", err)
	}
	if err := session.SetSecretDisabled(context.Background(), "*1", true); err != nil {
		t.Errorf("SetSecretDisabled: %v", err)
	}
	if err := session.RenameSecret(context.Background(), "*1", "budi01b", "budi01b"); err != nil {
		t.Errorf("RenameSecret: %v", err)
	}
	if err := session.DeleteSecret(context.Background(), "*1"); err != nil {
		t.Errorf("DeleteSecret: %v", err)
	}
}
