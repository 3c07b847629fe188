// Package config resolves run settings from defaults, an optional YAML
// file and SPEECHSET_* environment overrides, in that order. The
// resolved Config is created at run start and passed explicitly; there
// is no process-wide settings singleton.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir        string  `yaml:"data_dir"`
	ArchiveURL     string  `yaml:"archive_url"`
	SampleRate     int     `yaml:"sample_rate"`
	RowsPerPage    int     `yaml:"rows_per_page"`
	Workers        int     `yaml:"workers"`
	NumAugment     int     `yaml:"num_augment"`
	Seed           int64   `yaml:"seed"`
	TargetPeak     float64 `yaml:"target_peak"`
	MaxFileMB      int     `yaml:"max_file_mb"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	MaxRetries     int     `yaml:"max_retries"`
	LogLevel       string  `yaml:"log_level"`
}

func Default() Config {
	return Config{
		DataDir:        "data",
		ArchiveURL:     "https://archive.org",
		SampleRate:     44100,
		RowsPerPage:    50,
		Workers:        4,
		NumAugment:     20,
		Seed:           0,
		TargetPeak:     0.9,
		MaxFileMB:      200,
		RequestsPerSec: 4,
		MaxRetries:     17,
		LogLevel:       "INFO",
	}
}

// Load resolves the configuration. An empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.DataDir = envStr("SPEECHSET_DATA_DIR", cfg.DataDir)
	cfg.ArchiveURL = envStr("SPEECHSET_ARCHIVE_URL", cfg.ArchiveURL)
	cfg.SampleRate = envInt("SPEECHSET_SAMPLE_RATE", cfg.SampleRate)
	cfg.RowsPerPage = envInt("SPEECHSET_ROWS_PER_PAGE", cfg.RowsPerPage)
	cfg.Workers = envInt("SPEECHSET_WORKERS", cfg.Workers)
	cfg.NumAugment = envInt("SPEECHSET_NUM_AUGMENT", cfg.NumAugment)
	cfg.Seed = envInt64("SPEECHSET_SEED", cfg.Seed)
	cfg.TargetPeak = envFloat("SPEECHSET_TARGET_PEAK", cfg.TargetPeak)
	cfg.MaxFileMB = envInt("SPEECHSET_MAX_FILE_MB", cfg.MaxFileMB)
	cfg.RequestsPerSec = envFloat("SPEECHSET_REQUESTS_PER_SEC", cfg.RequestsPerSec)
	cfg.MaxRetries = envInt("SPEECHSET_MAX_RETRIES", cfg.MaxRetries)
	cfg.LogLevel = envStr("SPEECHSET_LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no run can proceed with.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.ArchiveURL == "" {
		return fmt.Errorf("archive_url must not be empty")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.RowsPerPage <= 0 {
		return fmt.Errorf("rows_per_page must be positive, got %d", c.RowsPerPage)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.NumAugment < 0 {
		return fmt.Errorf("num_augment must not be negative, got %d", c.NumAugment)
	}
	if c.TargetPeak <= 0 || c.TargetPeak > 1 {
		return fmt.Errorf("target_peak must be in (0, 1], got %g", c.TargetPeak)
	}
	if c.MaxFileMB <= 0 {
		return fmt.Errorf("max_file_mb must be positive, got %d", c.MaxFileMB)
	}
	if c.RequestsPerSec <= 0 {
		return fmt.Errorf("requests_per_sec must be positive, got %g", c.RequestsPerSec)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

// Directory layout under DataDir.

func (c Config) RawDir() string       { return filepath.Join(c.DataDir, "raw") }
func (c Config) CleanDir() string     { return filepath.Join(c.DataDir, "clean") }
func (c Config) DirtyDir() string     { return filepath.Join(c.DataDir, "dirty") }
func (c Config) AugmentedDir() string { return filepath.Join(c.DataDir, "augmented") }
func (c Config) ManifestPath() string { return filepath.Join(c.DataDir, "speechset.sqlite3") }

func (c Config) MaxFileBytes() int64 { return int64(c.MaxFileMB) << 20 }

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
