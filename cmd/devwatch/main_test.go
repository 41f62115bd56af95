package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/devsync/internal/hotplug"
	"github.com/banshee-data/devsync/internal/matcher"
)

func TestFlagDefaults(t *testing.T) {
	if *listen != ":8090" {
		t.Errorf("expected listen default ':8090', got %q", *listen)
	}
	if *configPath != "" {
		t.Errorf("expected empty config default, got %q", *configPath)
	}
	if *showVersion {
		t.Error("expected version default false")
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig(\"\"): %v", err)
	}
	if got := cfg.GetHotplugPollInterval(); got != time.Second {
		t.Errorf("default poll interval = %v, want 1s", got)
	}

	path := filepath.Join(t.TempDir(), "sync.json")
	if err := os.WriteFile(path, []byte(`{"hotplug_poll_interval": "250ms", "topology": "DLR"}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig(%q): %v", path, err)
	}
	if got := cfg.GetHotplugPollInterval(); got != 250*time.Millisecond {
		t.Errorf("poll interval = %v, want 250ms", got)
	}
	if got := cfg.GetTopology(); got != matcher.DLR {
		t.Errorf("topology = %v, want DLR", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	hub := hotplug.NewHub()
	hub.Publish(nil, []hotplug.DeviceInfo{{Key: "a"}, {Key: "b"}})

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(newRegistry(hub), promhttp.HandlerOpts{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "devsync_hotplug_devices 2") {
		t.Errorf("device gauge missing from metrics output:\n%s", body)
	}
}
