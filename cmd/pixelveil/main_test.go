package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeServer mimics the pixelveil API: capacity 100, encode echoes the text,
// decode requires password "pw".
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/capacity":
			_ = json.NewEncoder(w).Encode(map[string]int{"capacity": 100})
		case "/api/encode":
			_ = r.ParseMultipartForm(1 << 20)
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("PNG:" + r.FormValue("text")))
		case "/api/decode":
			_ = r.ParseMultipartForm(1 << 20)
			if r.FormValue("password") != "pw" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"Invalid password or corrupted data"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"text": "the hidden text"})
		case "/api/generate-qr":
			png := base64.StdEncoding.EncodeToString([]byte("qr-png"))
			_ = json.NewEncoder(w).Encode(map[string]string{"qr_code": "data:image/png;base64," + png})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cover.png")
	if err := os.WriteFile(path, []byte("fake image"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCapacityCommand(t *testing.T) {
	srv := fakeServer(t)
	out, err := run(t, "capacity", "--server", srv.URL, writeImage(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "cover.png can hide 100 characters") {
		t.Fatalf("output = %q", out)
	}
}

func TestEncodeCommandSavesImage(t *testing.T) {
	srv := fakeServer(t)
	dir := t.TempDir()
	img := writeImage(t)

	out, err := run(t, "encode", "--server", srv.URL, "--out", dir, "-m", "hello", img)
	if err != nil {
		t.Fatalf("encode: %v\n%s", err, out)
	}
	got, err := os.ReadFile(filepath.Join(dir, "encoded_image.png"))
	if err != nil || string(got) != "PNG:hello" {
		t.Fatalf("saved = %q, %v", got, err)
	}
	if !strings.Contains(out, "Image encoded and downloaded!") || !strings.Contains(out, "5 / 100 chars") {
		t.Fatalf("output = %q", out)
	}

	// A second run keeps the first file.
	if _, err := run(t, "encode", "--server", srv.URL, "--out", dir, "-m", "again", img); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "encoded_image (1).png")); err != nil {
		t.Fatalf("renamed copy missing: %v", err)
	}
}

func TestEncodeCommandTooLong(t *testing.T) {
	srv := fakeServer(t)
	_, err := run(t, "encode", "--server", srv.URL, "--out", t.TempDir(), "-m", strings.Repeat("x", 101), writeImage(t))
	if err == nil || err.Error() != "Message is too long for this image!" {
		t.Fatalf("err = %v", err)
	}
}

func TestDecodeCommand(t *testing.T) {
	srv := fakeServer(t)
	img := writeImage(t)

	_, err := run(t, "decode", "--server", srv.URL, img)
	if err == nil || err.Error() != "Invalid password or corrupted data" {
		t.Fatalf("err = %v", err)
	}

	out, err := run(t, "decode", "--server", srv.URL, "-p", "pw", img)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "the hidden text") {
		t.Fatalf("output = %q", out)
	}
}

func TestShareQRCommand(t *testing.T) {
	srv := fakeServer(t)
	dir := t.TempDir()
	out, err := run(t, "share", "qr", "--server", srv.URL, "--out", dir, "-m", "hi", writeImage(t))
	if err != nil {
		t.Fatalf("share: %v\n%s", err, out)
	}
	got, err := os.ReadFile(filepath.Join(dir, qrFileName))
	if err != nil || string(got) != "qr-png" {
		t.Fatalf("qr file = %q, %v", got, err)
	}
}

func TestShareUnknownTarget(t *testing.T) {
	if _, err := run(t, "share", "fax", writeImage(t)); err == nil {
		t.Fatal("expected error for unknown target")
	}
}

func TestServerURLPrecedence(t *testing.T) {
	t.Setenv(serverEnv, "http://env.example")
	g := &globalOpts{}
	if got := g.serverURL(); got != "http://env.example" {
		t.Fatalf("env url = %q", got)
	}
	g.server = "http://flag.example"
	if got := g.serverURL(); got != "http://flag.example" {
		t.Fatalf("flag url = %q", got)
	}
	t.Setenv(serverEnv, "")
	if got := (&globalOpts{}).serverURL(); got != defaultServer {
		t.Fatalf("default url = %q", got)
	}
}
