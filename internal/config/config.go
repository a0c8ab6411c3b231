// Package config provides configuration loading and structs for the COBALT server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MemoryCachePath selects an in-memory extraction cache.
const MemoryCachePath = ":memory:"

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Remote   RemoteConfig   `yaml:"remote"`
	Renderer RendererConfig `yaml:"renderer"`
	Extract  ExtractConfig  `yaml:"extract"`
	Sessions SessionsConfig `yaml:"sessions"`
	Cache    CacheConfig    `yaml:"cache"`
	Risk     RiskConfig     `yaml:"risk"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RemoteConfig describes the record system. URL formats carry one %s for the DSN.
type RemoteConfig struct {
	DetailURL         string        `yaml:"detail_url"`
	SiteEndpoint      string        `yaml:"site_endpoint"`
	DocumentsEndpoint string        `yaml:"documents_endpoint"`
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
}

// RendererConfig holds the rendered strategy settings. Command defaults to the running
// binary with "render {dsn}".
type RendererConfig struct {
	Enabled  *bool         `yaml:"enabled"`
	Command  string        `yaml:"command"`
	Args     []string      `yaml:"args"`
	Timeout  time.Duration `yaml:"timeout"`
	Endpoint string        `yaml:"endpoint"`
	Token    string        `yaml:"token"`
	Settle   time.Duration `yaml:"settle"`
}

// EnabledOrDefault returns whether the rendered strategy runs; defaults to true when unset.
func (r *RendererConfig) EnabledOrDefault() bool {
	if r.Enabled != nil {
		return *r.Enabled
	}
	return true
}

// ExtractConfig holds download and text extraction settings.
type ExtractConfig struct {
	DefaultLimit     int           `yaml:"default_limit"`
	DownloadTimeout  time.Duration `yaml:"download_timeout"`
	MinDocumentBytes int           `yaml:"min_document_bytes"`
	MaxBytes         int64         `yaml:"max_bytes"`
	// Pdftotext is the poppler binary used as the last PDF backend; empty disables it.
	Pdftotext string `yaml:"pdftotext"`
}

// SessionsConfig holds the document session scratch root.
type SessionsConfig struct {
	Root string `yaml:"root"`
}

// CacheConfig holds the extraction cache database path. ":memory:" keeps it in process.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// RiskConfig overrides keyword lists per flag. The keys "closure" and "open" replace the
// case status vocabularies. Watch reloads them when the config file changes.
type RiskConfig struct {
	Keywords map[string][]string `yaml:"keywords"`
	Watch    bool                `yaml:"watch"`
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Sessions.Root = expandPath(cfg.Sessions.Root, configDir)
	if cfg.Cache.Path != MemoryCachePath {
		cfg.Cache.Path = expandPath(cfg.Cache.Path, configDir)
	}
	if strings.ContainsRune(cfg.Extract.Pdftotext, filepath.Separator) {
		cfg.Extract.Pdftotext = expandPath(cfg.Extract.Pdftotext, configDir)
	}

	return &cfg, nil
}

// LoadOrDefault loads path when set; otherwise returns the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		cfg := &Config{}
		ApplyDefaults(cfg)
		return cfg, nil
	}
	return Load(path)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
