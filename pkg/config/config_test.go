package config

import "testing"

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Simulator.LatencyMS != 400 {
		t.Fatalf("simulator.latencyMs = %d, want 400", cfg.Simulator.LatencyMS)
	}
	if cfg.Store.Backend != "file" {
		t.Fatalf("store.backend = %q, want file", cfg.Store.Backend)
	}
	if cfg.Auth.AdminEmail == "" {
		t.Fatal("auth.adminEmail default missing")
	}
	if cfg.Auth.SessionKey != "kb_pro_session" {
		t.Fatalf("auth.sessionKey = %q", cfg.Auth.SessionKey)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.Metrics.Enabled {
		t.Fatal("metrics exporter should be opt-in")
	}
}
