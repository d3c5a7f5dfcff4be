package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Roelanb/pixelveil/internal/stego"
)

const (
	DefaultListen          = "127.0.0.1:8080"
	DefaultMaxUploadBytes  = 16 << 20
	DefaultMaxMessageBytes = 1 << 20
	DefaultMaxPixels       = 25_000_000
	DefaultKDFIterations   = 100000
	DefaultQRSize          = 256
	DefaultQRContentBytes  = 1024

	minKDFIterations = 10000
)

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the config at path. A missing file yields defaults so the
// daemon can start without any configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse parses a raw JSON config into Config, applies defaults and validates.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the provided config to disk at the given path (pretty-printed JSON).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("save config: path is empty")
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}
	if cfg.Server.ReadHeaderTimeoutSec <= 0 {
		cfg.Server.ReadHeaderTimeoutSec = 5
	}
	cfg.Server.PublicOrigin = strings.TrimRight(cfg.Server.PublicOrigin, "/")

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.File != "" {
		if cfg.Logging.MaxSizeMB <= 0 {
			cfg.Logging.MaxSizeMB = 10
		}
		if cfg.Logging.MaxBackups < 0 {
			cfg.Logging.MaxBackups = 0
		}
	}

	if cfg.Limits.MaxUploadBytes <= 0 {
		cfg.Limits.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Limits.MaxMessageBytes <= 0 {
		cfg.Limits.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if cfg.Limits.MaxPixels <= 0 {
		cfg.Limits.MaxPixels = DefaultMaxPixels
	}

	if cfg.Crypto.KDFIterations == 0 {
		cfg.Crypto.KDFIterations = DefaultKDFIterations
	}

	if cfg.QR.Size <= 0 {
		cfg.QR.Size = DefaultQRSize
	}
	if cfg.QR.Level == "" {
		cfg.QR.Level = "medium"
	}
	cfg.QR.Level = strings.ToLower(cfg.QR.Level)
	if cfg.QR.MaxContentBytes <= 0 {
		cfg.QR.MaxContentBytes = DefaultQRContentBytes
	}

	if cfg.Ledger.RetentionHours < 0 {
		cfg.Ledger.RetentionHours = 0
	}

	if cfg.UI.Title == "" {
		cfg.UI.Title = "pixelveil"
	}
}

func Validate(cfg *Config) error {
	if cfg.Version <= 0 {
		return errors.New("version must be > 0")
	}
	if cfg.Server.Listen == "" {
		return errors.New("server.listen is required")
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level invalid: %q", cfg.Logging.Level)
	}
	if cfg.Limits.MaxUploadBytes < 1024 {
		return errors.New("limits.maxUploadBytes must be >= 1024")
	}
	if cfg.Limits.MaxMessageBytes <= 0 {
		return errors.New("limits.maxMessageBytes must be > 0")
	}
	if cfg.Crypto.KDFIterations < minKDFIterations || cfg.Crypto.KDFIterations > stego.MaxKDFIterations {
		return fmt.Errorf("crypto.kdfIterations must be between %d and %d", minKDFIterations, stego.MaxKDFIterations)
	}
	if cfg.QR.Size < 64 || cfg.QR.Size > 2048 {
		return errors.New("qr.size must be between 64 and 2048")
	}
	switch cfg.QR.Level {
	case "low", "medium", "high", "highest":
	default:
		return fmt.Errorf("qr.level invalid: %q", cfg.QR.Level)
	}
	if cfg.Ledger.Path != "" && !filepath.IsAbs(cfg.Ledger.Path) {
		return errors.New("ledger.path must be absolute if set")
	}
	if cfg.UI.AssetsDir != "" && !filepath.IsAbs(cfg.UI.AssetsDir) {
		return errors.New("ui.assetsDir must be absolute if set")
	}
	return nil
}
