// ABOUTME: Tests for the account commands
// ABOUTME: Covers login, register, logout and whoami against a test API

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/forms"
	"github.com/markalston/quickpoll/internal/store"
)

func authHandler(token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"user":`+meJSON+`,"access_token":"`+token+`","token_type":"bearer"}`)
	}
}

func TestLoginCommand_Success(t *testing.T) {
	var got client.LoginRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		authHandler("tok")(w, r)
	})
	backend(t, mux)

	var buf bytes.Buffer
	exitCode := runLogin(context.Background(), &buf, "  alice ", "secret")

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if got.UsernameOrEmail != "alice" || got.Password != "secret" {
		t.Errorf("unexpected login request %+v", got)
	}
	if buf.String() != "Logged in as alice\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
	if tok, _ := store.New(configDir).Get(store.KeyToken); tok != "tok" {
		t.Errorf("expected token to be persisted, got %q", tok)
	}
}

func TestLoginCommand_Rejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Incorrect username or password"}`)
	})
	backend(t, mux)

	var buf bytes.Buffer
	exitCode := runLogin(context.Background(), &buf, "alice", "wrong")

	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Error: Incorrect username or password") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if tok, _ := store.New(configDir).Get(store.KeyToken); tok != "" {
		t.Errorf("expected no token after a failed login, got %q", tok)
	}
}

func TestLoginCommand_ValidatesBeforeNetwork(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		t.Error("login should not reach the server")
	})
	backend(t, mux)

	var buf bytes.Buffer
	exitCode := runLogin(context.Background(), &buf, "   ", "secret")

	if exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), forms.MsgIdentifierRequired) {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestRegisterCommand(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		exitCode int
		want     string
	}{
		{"success", "alice", "alice@example.com", "longenough", 0, "Registered and logged in as alice"},
		{"missing username", "", "alice@example.com", "longenough", 2, forms.MsgUsernameRequired},
		{"bad email", "alice", "not-an-email", "longenough", 2, forms.MsgEmailInvalid},
		{"short password", "alice", "alice@example.com", "short", 2, forms.MsgPasswordTooShort},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/users/register", authHandler("tok"))
			backend(t, mux)

			var buf bytes.Buffer
			exitCode := runRegister(context.Background(), &buf, tc.username, tc.email, tc.password)

			if exitCode != tc.exitCode {
				t.Errorf("expected exit code %d, got %d: %s", tc.exitCode, exitCode, buf.String())
			}
			if !strings.Contains(buf.String(), tc.want) {
				t.Errorf("expected output to contain %q, got %q", tc.want, buf.String())
			}
		})
	}
}

func TestRegisterCommand_Taken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"message":"Username already registered"}`)
	})
	backend(t, mux)

	var buf bytes.Buffer
	exitCode := runRegister(context.Background(), &buf, "alice", "alice@example.com", "longenough")

	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Username already registered") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestLogoutCommand_ClearsTokenAndAnonID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/me", meHandler("tok", meJSON))
	backend(t, mux)
	loginAs(t, "tok")
	st := store.New(configDir)
	if err := st.Set(store.KeyAnonymousID, "anon_123"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	exitCode := runLogout(context.Background(), &buf)

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if buf.String() != "Logged out\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
	if tok, _ := st.Get(store.KeyToken); tok != "" {
		t.Errorf("expected token cleared, got %q", tok)
	}
	if id, _ := st.Get(store.KeyAnonymousID); id != "" {
		t.Errorf("expected anonymous id cleared, got %q", id)
	}
}

func TestWhoamiCommand_SignedIn(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/me", meHandler("tok", meJSON))
	backend(t, mux)
	loginAs(t, "tok")

	var buf bytes.Buffer
	exitCode := runWhoami(context.Background(), &buf)

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	for _, want := range []string{"Username: alice", "Email:    alice@example.com", "User ID:  u1"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, buf.String())
		}
	}
}

func TestWhoamiCommand_RejectedTokenIsCleared(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/me", meHandler("other", meJSON))
	backend(t, mux)
	loginAs(t, "stale")

	var buf bytes.Buffer
	exitCode := runWhoami(context.Background(), &buf)

	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Not logged in (anonymous)") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if tok, _ := store.New(configDir).Get(store.KeyToken); tok != "" {
		t.Errorf("expected rejected token to be cleared, got %q", tok)
	}
}

func TestWhoamiCommand_JSON(t *testing.T) {
	backend(t, http.NewServeMux())
	jsonOutput = true

	var buf bytes.Buffer
	exitCode := runWhoami(context.Background(), &buf)

	if exitCode != 1 {
		t.Errorf("expected exit code 1 when anonymous, got %d", exitCode)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got["state"] != "anonymous" {
		t.Errorf("expected anonymous state, got %v", got["state"])
	}
	if _, ok := got["user"]; ok {
		t.Error("expected no user when anonymous")
	}
}
