package secrets

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func newMockStore(t *testing.T) *Store {
	t.Helper()
	keyring.MockInit()
	return NewStore("mcpconf-test-" + t.Name())
}

func TestNewStore(t *testing.T) {
	if got := NewStore("").Service(); got != DefaultService {
		t.Errorf("NewStore(\"\").Service() = %q, want %q", got, DefaultService)
	}
	if got := NewStore("custom").Service(); got != "custom" {
		t.Errorf("NewStore(custom).Service() = %q", got)
	}
}

func TestSetGetDelete(t *testing.T) {
	s := newMockStore(t)

	if _, ok, err := s.Get("GITHUB_TOKEN"); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v", ok, err)
	}

	if err := s.Set("GITHUB_TOKEN", "ghp_secret"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, ok, err := s.Get("GITHUB_TOKEN")
	if err != nil || !ok || value != "ghp_secret" {
		t.Fatalf("Get = %q, %v, %v", value, ok, err)
	}
	if !s.Has("GITHUB_TOKEN") {
		t.Error("Has should report stored value")
	}

	if err := s.Delete("GITHUB_TOKEN"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s.Has("GITHUB_TOKEN") {
		t.Error("value still present after Delete")
	}
	if err := s.Delete("GITHUB_TOKEN"); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
}

func TestSetValidation(t *testing.T) {
	s := newMockStore(t)

	tests := []struct {
		name     string
		variable string
		value    string
		wantErr  bool
	}{
		{"valid", "API_KEY", "v", false},
		{"leading underscore", "_KEY", "v", false},
		{"empty value", "API_KEY", "", true},
		{"empty name", "", "v", true},
		{"leading digit", "1KEY", "v", true},
		{"dash", "API-KEY", "v", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Set(tt.variable, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set(%q) error = %v, wantErr %v", tt.variable, err, tt.wantErr)
			}
		})
	}

	if err := s.Set("bad name", "v"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestLookupSwallowsErrors(t *testing.T) {
	keyring.MockInitWithError(errors.New("keyring locked"))
	t.Cleanup(keyring.MockInit)
	s := NewStore("mcpconf-test-locked")

	if _, ok := s.Lookup("TOKEN"); ok {
		t.Error("Lookup should report absence when the keyring fails")
	}
	if _, _, err := s.Get("TOKEN"); err == nil {
		t.Error("Get should surface the keyring error")
	}
	status := s.Status()
	if status["available"] != false {
		t.Errorf("Status = %v, want unavailable", status)
	}
}

func TestStatusWithMock(t *testing.T) {
	s := newMockStore(t)
	status := s.Status()
	if status["available"] != true {
		t.Errorf("Status = %v, want available", status)
	}
	if s.Has("MCPCONF_PROBE") {
		t.Error("probe entry was not cleaned up")
	}
}
