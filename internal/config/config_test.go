package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if cfg.NumAugment != 20 {
		t.Errorf("NumAugment = %d, want 20", cfg.NumAugment)
	}
	if cfg.MaxRetries != 17 {
		t.Errorf("MaxRetries = %d, want 17", cfg.MaxRetries)
	}
	if cfg.ArchiveURL != "https://archive.org" {
		t.Errorf("ArchiveURL = %q", cfg.ArchiveURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speechset.yaml")
	body := "data_dir: /srv/dataset\nsample_rate: 22050\nworkers: 8\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DataDir != "/srv/dataset" {
		t.Errorf("DataDir = %q, want /srv/dataset", cfg.DataDir)
	}
	if cfg.SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", cfg.SampleRate)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	// Keys absent from the file keep their defaults.
	if cfg.NumAugment != 20 {
		t.Errorf("NumAugment = %d, want default 20", cfg.NumAugment)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SPEECHSET_DATA_DIR", "/tmp/ds")
	t.Setenv("SPEECHSET_SAMPLE_RATE", "16000")
	t.Setenv("SPEECHSET_TARGET_PEAK", "0.5")
	t.Setenv("SPEECHSET_SEED", "42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DataDir != "/tmp/ds" {
		t.Errorf("DataDir = %q, want /tmp/ds", cfg.DataDir)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.SampleRate)
	}
	if cfg.TargetPeak != 0.5 {
		t.Errorf("TargetPeak = %g, want 0.5", cfg.TargetPeak)
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speechset.yaml")
	if err := os.WriteFile(path, []byte("sample_rate: 22050\n"), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	t.Setenv("SPEECHSET_SAMPLE_RATE", "8000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want env override 8000", cfg.SampleRate)
	}
}

func TestEnvInvalidIntFallsBack(t *testing.T) {
	t.Setenv("SPEECHSET_WORKERS", "many")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want default 4", cfg.Workers)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{name: "zero sample rate", mod: func(c *Config) { c.SampleRate = 0 }, want: "sample_rate"},
		{name: "empty data dir", mod: func(c *Config) { c.DataDir = "" }, want: "data_dir"},
		{name: "peak above one", mod: func(c *Config) { c.TargetPeak = 1.5 }, want: "target_peak"},
		{name: "zero workers", mod: func(c *Config) { c.Workers = 0 }, want: "workers"},
		{name: "negative retries", mod: func(c *Config) { c.MaxRetries = -1 }, want: "max_retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mod(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDirectoryLayout(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/srv/ds"

	if got := cfg.CleanDir(); got != filepath.Join("/srv/ds", "clean") {
		t.Errorf("CleanDir = %q", got)
	}
	if got := cfg.ManifestPath(); got != filepath.Join("/srv/ds", "speechset.sqlite3") {
		t.Errorf("ManifestPath = %q", got)
	}
	if got := cfg.MaxFileBytes(); got != int64(200)<<20 {
		t.Errorf("MaxFileBytes = %d", got)
	}
}
