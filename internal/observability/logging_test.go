package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"chatty":  zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_WritesFileAndHonoursLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixelveil.log")
	log, lvl := NewLogger(Options{Level: "warn", File: path, MaxSizeMB: 1})

	log.Infow("hidden at warn level")
	log.Warnw("visible warning", "k", "v")
	lvl.SetLevel(zapcore.DebugLevel)
	log.Debugw("visible after level change")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(b)
	if strings.Contains(out, "hidden at warn level") {
		t.Fatalf("info line leaked at warn level: %s", out)
	}
	for _, want := range []string{"visible warning", `"k":"v"`, "visible after level change"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %q: %s", want, out)
		}
	}
}

func TestEnvLogLevel(t *testing.T) {
	t.Setenv(LogLevelEnv, "")
	if got := EnvLogLevel("info"); got != "info" {
		t.Fatalf("unset = %q", got)
	}
	t.Setenv(LogLevelEnv, " debug ")
	if got := EnvLogLevel("info"); got != "debug" {
		t.Fatalf("set = %q", got)
	}
}
