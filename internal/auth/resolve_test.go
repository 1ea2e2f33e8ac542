package auth

import (
	"errors"
	"testing"

	"github.com/n8n-tools/n8nctl/internal/config"
)

func TestResolvePrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := config.SetCredentials(config.DefaultProfile, "http://cfg:5678/api/v1", "cfg-key"); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	tests := []struct {
		name    string
		flags   Flags
		env     Env
		wantURL string
		wantKey string
		wantSrc string
	}{
		{
			name:    "flags win over everything",
			flags:   Flags{URL: "http://flag:5678", Key: "flag-key"},
			env:     Env{URL: "http://env:5678", Key: "env-key"},
			wantURL: "http://flag:5678",
			wantKey: "flag-key",
			wantSrc: SourceFlags,
		},
		{
			name:    "env wins over config",
			env:     Env{URL: "http://env:5678", Key: "env-key"},
			wantURL: "http://env:5678",
			wantKey: "env-key",
			wantSrc: SourceEnv,
		},
		{
			name:    "config as fallback",
			wantURL: "http://cfg:5678/api/v1",
			wantKey: "cfg-key",
			wantSrc: SourceConfig,
		},
		{
			name:    "fields resolve independently",
			flags:   Flags{URL: "http://flag:5678"},
			env:     Env{Key: "env-key"},
			wantURL: "http://flag:5678",
			wantKey: "env-key",
			wantSrc: SourceFlags,
		},
		{
			name:    "whitespace counts as empty",
			flags:   Flags{URL: "   "},
			env:     Env{URL: "http://env:5678"},
			wantURL: "http://env:5678",
			wantKey: "cfg-key",
			wantSrc: SourceEnv,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := Resolve(tt.flags, tt.env)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if creds.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", creds.URL, tt.wantURL)
			}
			if creds.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", creds.Key, tt.wantKey)
			}
			if creds.Source != tt.wantSrc {
				t.Errorf("Source = %q, want %q", creds.Source, tt.wantSrc)
			}
		})
	}
}

func TestResolveSourceNone(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	creds, err := Resolve(Flags{}, Env{})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if creds.Source != SourceNone {
		t.Errorf("Source = %q, want %q", creds.Source, SourceNone)
	}
}

func TestResolveEnsuresProfile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	creds, err := Resolve(Flags{Profile: "staging"}, Env{})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if creds.Profile != "staging" {
		t.Errorf("Profile = %q, want %q", creds.Profile, "staging")
	}

	cfg := config.Load()
	if _, ok := cfg.Profiles["staging"]; !ok {
		t.Error("Resolve did not persist the requested profile")
	}
}

func TestAssert(t *testing.T) {
	var missing *MissingCredentialError

	err := Assert(Credentials{Key: "k"})
	if !errors.As(err, &missing) || missing.Field != "url" {
		t.Errorf("Assert without URL: got %v", err)
	}

	err = Assert(Credentials{URL: "http://x"})
	if !errors.As(err, &missing) || missing.Field != "api key" {
		t.Errorf("Assert without key: got %v", err)
	}

	if err := Assert(Credentials{URL: "http://x", Key: "k"}); err != nil {
		t.Errorf("Assert with both fields: got %v", err)
	}
}

func TestDeriveUIBaseURL(t *testing.T) {
	tests := []struct {
		creds Credentials
		want  string
	}{
		{Credentials{URL: "http://localhost:5678/api/v1"}, "http://localhost:5678"},
		{Credentials{URL: "http://localhost:5678/api/v1/"}, "http://localhost:5678"},
		{Credentials{URL: "http://localhost:5678/API"}, "http://localhost:5678"},
		{Credentials{URL: "http://localhost:5678/"}, "http://localhost:5678"},
		{Credentials{URL: "http://localhost:5678/api/v1", UIBaseURL: "https://ui.example.com/"}, "https://ui.example.com"},
	}

	for _, tt := range tests {
		if got := tt.creds.DeriveUIBaseURL(); got != tt.want {
			t.Errorf("DeriveUIBaseURL(%q, ui=%q) = %q, want %q", tt.creds.URL, tt.creds.UIBaseURL, got, tt.want)
		}
	}
}
