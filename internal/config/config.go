// Package config loads tool configuration from a JSON file backend with
// environment-variable overrides, so tests and scripts can run without
// touching the user's config file.
package config

import (
	"strings"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Parser  ParserConfig
	Auth    AuthConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

type StorageConfig struct {
	DataDir string
}

// ParserConfig tunes quote extraction. Denylist entries are substrings of
// boilerplate lines (company name, address, contact info) that recur in
// every document from this source and must never leak into a job
// description.
type ParserConfig struct {
	Denylist []string
}

type AuthConfig struct {
	// APIToken protects the local HTTP API. Empty disables the server
	// commands until one is provided via GESTAO_API_TOKEN or the config
	// file.
	APIToken string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:    4780,
			MCPPort: 4781,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Parser: ParserConfig{
			Denylist: []string{
				"malta soluções",
				"malta solucoes",
				"soluções em reforma",
				"contato@",
				"whatsapp",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/gestao/config.json and applies GESTAO_* environment
// overrides on top.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

// splitList parses a comma-separated config value into trimmed entries.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
