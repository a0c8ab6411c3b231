package config

import (
	"os"
	"path/filepath"
	"time"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Remote.DetailURL == "" {
		cfg.Remote.DetailURL = "https://apps.dnr.wi.gov/rrbotw/botw-activity-detail?dsn=%s"
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = 30 * time.Second
	}
	if cfg.Renderer.Timeout == 0 {
		cfg.Renderer.Timeout = 2 * time.Minute
	}
	if cfg.Renderer.Settle == 0 {
		cfg.Renderer.Settle = 4 * time.Second
	}
	if cfg.Renderer.Endpoint == "" {
		cfg.Renderer.Endpoint = os.Getenv("BROWSERLESS_URL")
	}
	if cfg.Renderer.Token == "" {
		cfg.Renderer.Token = os.Getenv("BROWSERLESS_TOKEN")
	}
	if cfg.Extract.DefaultLimit == 0 {
		cfg.Extract.DefaultLimit = 50
	}
	if cfg.Extract.DownloadTimeout == 0 {
		cfg.Extract.DownloadTimeout = 60 * time.Second
	}
	if cfg.Extract.MinDocumentBytes == 0 {
		cfg.Extract.MinDocumentBytes = 1000
	}
	if cfg.Extract.MaxBytes == 0 {
		cfg.Extract.MaxBytes = 64 << 20
	}
	if cfg.Sessions.Root == "" {
		cfg.Sessions.Root = filepath.Join(os.TempDir(), "brrts_documents")
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = MemoryCachePath
	}
}
