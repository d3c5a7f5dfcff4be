package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Roelanb/pixelveil/internal/stego"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != DefaultListen {
		t.Fatalf("listen = %q", cfg.Server.Listen)
	}
	if cfg.Crypto.KDFIterations != DefaultKDFIterations {
		t.Fatalf("kdf iterations = %d", cfg.Crypto.KDFIterations)
	}
	if cfg.QR.Level != "medium" || cfg.QR.Size != DefaultQRSize {
		t.Fatalf("qr defaults not applied: %+v", cfg.QR)
	}
}

func TestParse_AppliesDefaultsAndNormalizes(t *testing.T) {
	cfg, err := Parse([]byte(`{"server":{"publicOrigin":"https://veil.example/"},"qr":{"level":"HIGH"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.PublicOrigin != "https://veil.example" {
		t.Fatalf("origin not trimmed: %q", cfg.Server.PublicOrigin)
	}
	if cfg.QR.Level != "high" {
		t.Fatalf("level not lowered: %q", cfg.QR.Level)
	}
	if cfg.Limits.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Fatalf("upload limit = %d", cfg.Limits.MaxUploadBytes)
	}
	if cfg.Limits.MaxPixels != DefaultMaxPixels {
		t.Fatalf("pixel limit = %d", cfg.Limits.MaxPixels)
	}
}

func TestParse_KDFBoundMatchesSeal(t *testing.T) {
	cfg, err := Parse([]byte(fmt.Sprintf(`{"crypto":{"kdfIterations":%d}}`, stego.MaxKDFIterations)))
	if err != nil {
		t.Fatalf("upper bound rejected: %v", err)
	}
	if _, err := stego.Seal([]byte("m"), "pw", cfg.Crypto.KDFIterations); err != nil {
		t.Fatalf("accepted config cannot seal: %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"bad json", `{`, "parse config"},
		{"log level", `{"logging":{"level":"loud"}}`, "logging.level"},
		{"weak kdf", `{"crypto":{"kdfIterations":10}}`, "crypto.kdfIterations"},
		{"kdf above seal bound", `{"crypto":{"kdfIterations":20000000}}`, "crypto.kdfIterations"},
		{"qr level", `{"qr":{"level":"ultra"}}`, "qr.level"},
		{"qr size", `{"qr":{"size":10}}`, "qr.size"},
		{"relative ledger", `{"ledger":{"path":"state.db"}}`, "ledger.path"},
		{"tiny upload", `{"limits":{"maxUploadBytes":10}}`, "limits.maxUploadBytes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Logging.Level = "debug"
	cfg.QR.Size = 512
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Logging.Level != "debug" || got.QR.Size != 512 {
		t.Fatalf("round trip lost values: %+v", got)
	}
}
