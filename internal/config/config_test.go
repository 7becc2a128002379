package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":5000" {
		t.Errorf("default addr = %q, want :5000", cfg.Server.Addr)
	}
	if cfg.Server.MaxUploadBytes != 16<<20 {
		t.Errorf("default upload cap = %d, want %d", cfg.Server.MaxUploadBytes, 16<<20)
	}
	if cfg.Data.File != "" || cfg.Data.Watch {
		t.Errorf("data defaults = %+v, want empty", cfg.Data)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "server:\n  addr: \":8080\"\ndata:\n  file: rides.csv\n  watch: true\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Data.File != "rides.csv" || !cfg.Data.Watch {
		t.Errorf("data = %+v, want rides.csv watched", cfg.Data)
	}
	// File left the untouched default alone.
	if cfg.Server.MaxUploadBytes != 16<<20 {
		t.Errorf("upload cap = %d, want default", cfg.Server.MaxUploadBytes)
	}
}

func TestLoadMissingNamedFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a named but missing config file")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CYCLO_SERVER__ADDR", ":9999")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr = %q, want env override :9999", cfg.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, true},
		{"zero upload cap", func(c *Config) { c.Server.MaxUploadBytes = 0 }, true},
		{"watch without file", func(c *Config) { c.Data.Watch = true }, true},
		{"watch with file", func(c *Config) { c.Data.Watch = true; c.Data.File = "rides.csv" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
