package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
remote:
  timeout: 45s
renderer:
  enabled: false
  timeout: 90s
  settle: 2500ms
extract:
  default_limit: 20
risk:
  watch: true
  keywords:
    pfas: ["afff"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Remote.Timeout != 45*time.Second {
		t.Errorf("remote timeout = %s", cfg.Remote.Timeout)
	}
	if cfg.Renderer.EnabledOrDefault() {
		t.Error("renderer should be disabled")
	}
	if cfg.Renderer.Timeout != 90*time.Second || cfg.Renderer.Settle != 2500*time.Millisecond {
		t.Errorf("renderer durations = %s / %s", cfg.Renderer.Timeout, cfg.Renderer.Settle)
	}
	if cfg.Extract.DefaultLimit != 20 {
		t.Errorf("default_limit = %d", cfg.Extract.DefaultLimit)
	}
	if !cfg.Risk.Watch || len(cfg.Risk.Keywords["pfas"]) != 1 {
		t.Errorf("risk config = %+v", cfg.Risk)
	}
	if cfg.Cache.Path != MemoryCachePath {
		t.Errorf("cache path = %q, want in-memory", cfg.Cache.Path)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
sessions:
  root: "./scratch"
cache:
  path: "./data/extractions.db"
extract:
  pdftotext: "./bin/pdftotext"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "scratch"); cfg.Sessions.Root != want {
		t.Errorf("sessions root = %s, want %s", cfg.Sessions.Root, want)
	}
	if want := filepath.Join(dir, "data", "extractions.db"); cfg.Cache.Path != want {
		t.Errorf("cache path = %s, want %s", cfg.Cache.Path, want)
	}
	if want := filepath.Join(dir, "bin", "pdftotext"); cfg.Extract.Pdftotext != want {
		t.Errorf("pdftotext = %s, want %s", cfg.Extract.Pdftotext, want)
	}
}

func TestLoad_bareBinaryNameKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "extract:\n  pdftotext: pdftotext\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Extract.Pdftotext != "pdftotext" {
		t.Errorf("pdftotext = %q, want PATH lookup name", cfg.Extract.Pdftotext)
	}
}

func TestLoad_errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "server: [not, a, map]")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Remote.DetailURL == "" || cfg.Remote.Timeout != 30*time.Second {
		t.Errorf("remote defaults: %+v", cfg.Remote)
	}
	if cfg.Renderer.Timeout != 2*time.Minute || cfg.Renderer.Settle != 4*time.Second {
		t.Errorf("renderer defaults: %+v", cfg.Renderer)
	}
	if !cfg.Renderer.EnabledOrDefault() {
		t.Error("renderer should default to enabled")
	}
	if cfg.Extract.DefaultLimit != 50 || cfg.Extract.DownloadTimeout != time.Minute || cfg.Extract.MinDocumentBytes != 1000 {
		t.Errorf("extract defaults: %+v", cfg.Extract)
	}
	if filepath.Base(cfg.Sessions.Root) != "brrts_documents" {
		t.Errorf("sessions root: got %s", cfg.Sessions.Root)
	}
}
