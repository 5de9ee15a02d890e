package config

import (
	"reflect"
	"testing"
)

// mapBackend is an in-memory ConfigBackend for tests.
type mapBackend map[string]any

func (m mapBackend) GetString(key string) (string, bool, error) {
	v, ok := m[key]
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (m mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := m[key]
	if !ok {
		return 0, false, nil
	}
	return v.(int), true, nil
}

func (m mapBackend) SetString(key, val string) error { m[key] = val; return nil }
func (m mapBackend) SetInt(key string, val int) error { m[key] = val; return nil }
func (m mapBackend) Delete(key string) error          { delete(m, key); return nil }

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadWith(mapBackend{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 4780 {
		t.Errorf("default port = %d, want 4780", cfg.Server.Port)
	}
	if len(cfg.Parser.Denylist) == 0 {
		t.Error("default denylist is empty")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Log.Level)
	}
}

func TestBackendOverridesDefaults(t *testing.T) {
	b := mapBackend{
		"server.port":     9000,
		"parser.denylist": "empresa exemplo, rua tal ,",
	}
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	want := []string{"empresa exemplo", "rua tal"}
	if !reflect.DeepEqual(cfg.Parser.Denylist, want) {
		t.Errorf("denylist = %v, want %v", cfg.Parser.Denylist, want)
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	t.Setenv("GESTAO_SERVER_PORT", "7111")
	t.Setenv("GESTAO_API_TOKEN", "secret-token")

	cfg, err := loadWith(mapBackend{"server.port": 9000})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 7111 {
		t.Errorf("port = %d, want env override 7111", cfg.Server.Port)
	}
	if cfg.Auth.APIToken != "secret-token" {
		t.Errorf("token not read from env")
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Auth.APIToken = "secret"
	for _, ki := range ShowAll(cfg) {
		if ki.Key == "auth.api_token" {
			t.Error("secret key exposed by ShowAll")
		}
	}
}
