package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Winder2006/COBALT/internal/discovery"
	"github.com/Winder2006/COBALT/internal/models"
	"go.uber.org/zap"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after id are moved first",
			args:     []string{"588459", "-json"},
			expected: []string{"-json", "588459"},
		},
		{
			name:     "value flag keeps its value",
			args:     []string{"588459", "-limit", "5"},
			expected: []string{"-limit", "5", "588459"},
		},
		{
			name:     "equals form",
			args:     []string{"588459", "-config=/tmp/c.yaml"},
			expected: []string{"-config=/tmp/c.yaml", "588459"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-config", "c.yaml", "-debug", "588459"},
			expected: []string{"-config", "c.yaml", "-debug", "588459"},
		},
		{
			name:     "empty args",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_explicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cobalt.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path || cfg.Server.Port != 7070 {
		t.Errorf("resolved=%s port=%d", resolved, cfg.Server.Port)
	}
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for explicit missing path")
	}
}

func TestLoadConfig_defaultFallsBackToCwd(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 6060\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 6060 || filepath.Base(resolved) != "config.yaml" {
		t.Errorf("resolved=%s port=%d", resolved, cfg.Server.Port)
	}
}

type countingRunner struct{ calls int }

func (r *countingRunner) Run(context.Context, string, ...string) ([]byte, []byte, error) {
	r.calls++
	return nil, nil, errors.New("renderer unavailable")
}

func TestDiscoveryOptions_rendererModes(t *testing.T) {
	records := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer records.Close()
	t.Setenv("BROWSERLESS_URL", "")
	remote := "remote:\n  detail_url: \"" + records.URL + "/detail?dsn=%s\"\n"

	tests := []struct {
		name      string
		renderer  string
		wantCalls int
	}{
		{"disabled", "renderer:\n  enabled: false\n  endpoint: \"http://browserless:3000\"\n", 0},
		{"no endpoint", "renderer:\n  endpoint: \"\"\n", 0},
		{"endpoint", "renderer:\n  endpoint: \"http://browserless:3000\"\n", 1},
		{"custom command", "renderer:\n  command: /bin/renderer\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRenderConfig(t, tt.renderer+remote)
			cfg, _, err := loadConfig(path)
			if err != nil {
				t.Fatal(err)
			}
			runner := &countingRunner{}
			opts := append(discoveryOptions(cfg, path, zap.NewNop()), discovery.WithRunner(runner))
			res, err := discovery.New(opts...).Discover(context.Background(), "588459")
			if err != nil {
				t.Fatal(err)
			}
			if runner.calls != tt.wantCalls {
				t.Errorf("renderer calls = %d, want %d", runner.calls, tt.wantCalls)
			}
			if res.Source != models.SourceNone {
				t.Errorf("source = %s", res.Source)
			}
		})
	}
}

func writeRenderConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodePayload(t *testing.T, out *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var p map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &p); err != nil {
		t.Fatalf("payload is not JSON: %v (%q)", err, out.String())
	}
	return p
}

func TestRunRender_success(t *testing.T) {
	browserless := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/content" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body><h3>02-41-588459 J CAMP VAN DYKE</h3><label>Activity Type</label>` +
			`<input class="form-control" value="LUST"><input class="form-control" value="CLOSED">` +
			`<a href="/rrbotw/download-document?docSeqNo=99&sender=activity">Closure Letter</a></body></html>`))
	}))
	defer browserless.Close()

	path := writeRenderConfig(t, "renderer:\n  endpoint: \""+browserless.URL+"\"\n  settle: 1ms\n")
	var out bytes.Buffer
	if code := runRender([]string{"588459", "-config", path}, &out); code != 0 {
		t.Fatalf("exit code = %d (%s)", code, out.String())
	}
	p := decodePayload(t, &out)
	if p["error"] != nil {
		t.Fatalf("error = %v", p["error"])
	}
	site, _ := p["site_info"].(map[string]interface{})
	if site["dsn"] != "588459" {
		t.Errorf("site_info = %v", site)
	}
	docs, _ := p["documents"].([]interface{})
	if len(docs) != 1 {
		t.Errorf("documents = %v", p["documents"])
	}
}

func TestRunRender_failures(t *testing.T) {
	var out bytes.Buffer
	if code := runRender(nil, &out); code != 1 {
		t.Errorf("missing dsn exit code = %d", code)
	}
	if p := decodePayload(t, &out); p["error"] == nil {
		t.Error("expected usage error in payload")
	}

	out.Reset()
	path := writeRenderConfig(t, "renderer:\n  endpoint: \"\"\n")
	t.Setenv("BROWSERLESS_URL", "")
	if code := runRender([]string{"-config", path, "588459"}, &out); code != 1 {
		t.Errorf("no endpoint exit code = %d", code)
	}
	if p := decodePayload(t, &out); p["error"] == nil {
		t.Error("expected error in payload without an endpoint")
	}
}
