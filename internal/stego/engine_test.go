package stego

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

const testIterations = 10000

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// hugePNG returns a tiny PNG whose header declares w x h pixels. Only the
// header is valid; decoding the pixel data would fail.
func hugePNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	b := pngBytes(t, 1, 1)
	// IHDR data starts at 16, its CRC covers type and data (12..29).
	binary.BigEndian.PutUint32(b[16:], w)
	binary.BigEndian.PutUint32(b[20:], h)
	binary.BigEndian.PutUint32(b[29:], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestSealOpen(t *testing.T) {
	sealed, err := Seal([]byte("Top Secret Message"), "supersecurepassword", testIterations)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if !IsSealed(sealed) {
		t.Fatalf("sealed payload lacks tag: %q", sealed)
	}
	if !strings.HasPrefix(string(sealed), "##ENC##10000$") {
		t.Fatalf("iterations not recorded: %q", sealed)
	}

	plain, err := Open(sealed, "supersecurepassword")
	if err != nil || string(plain) != "Top Secret Message" {
		t.Fatalf("open = %q, %v", plain, err)
	}
	if _, err := Open(sealed, "wrongpass"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("want ErrBadPassword, got %v", err)
	}
	if _, err := Open(sealed, ""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("want ErrPasswordRequired, got %v", err)
	}
}

func TestOpen_PlainPassThroughAndCorruption(t *testing.T) {
	got, err := Open([]byte("just text"), "ignored")
	if err != nil || string(got) != "just text" {
		t.Fatalf("plain payload = %q, %v", got, err)
	}
	for _, bad := range []string{
		"##ENC##",
		"##ENC##abc$AAAA:BBBB",
		"##ENC##10000$not-base64:BBBB",
		"##ENC##10000$AAAAAAAAAAAAAAAAAAAAAA==",
		"##ENC##10000$AAAAAAAAAAAAAAAAAAAAAA==:AAAA",
	} {
		if _, err := Open([]byte(bad), "pw"); !errors.Is(err, ErrBadPassword) {
			t.Errorf("Open(%q) = %v, want ErrBadPassword", bad, err)
		}
	}
}

func TestSeal_RejectsBadInput(t *testing.T) {
	if _, err := Seal([]byte("m"), "", testIterations); err == nil {
		t.Fatal("empty password accepted")
	}
	if _, err := Seal([]byte("m"), "pw", 0); err == nil {
		t.Fatal("zero iterations accepted")
	}
}

func TestEngine_EncodeDecode(t *testing.T) {
	e := NewEngine(testIterations, 1<<20, 0)

	info, err := e.Capacity(bytes.NewReader(pngBytes(t, 100, 100)))
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if info.Capacity != 3333 || info.Format != "png" || info.Width != 100 {
		t.Fatalf("unexpected info %+v", info)
	}

	out, encInfo, err := e.Encode(bytes.NewReader(pngBytes(t, 100, 100)), "Top Secret Message", "")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if encInfo.Encrypted || encInfo.PayloadBytes != len("Top Secret Message") {
		t.Fatalf("unexpected encode info %+v", encInfo)
	}
	text, decInfo, err := e.Decode(bytes.NewReader(out), "")
	if err != nil || text != "Top Secret Message" {
		t.Fatalf("decode = %q, %v", text, err)
	}
	if decInfo.Format != "png" {
		t.Fatalf("encoded output is not png: %+v", decInfo)
	}
}

func TestEngine_PasswordFlow(t *testing.T) {
	e := NewEngine(testIterations, 1<<20, 0)
	out, info, err := e.Encode(bytes.NewReader(pngBytes(t, 100, 100)), "hidden", "pw")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !info.Encrypted {
		t.Fatal("expected encrypted payload")
	}

	if _, _, err := e.Decode(bytes.NewReader(out), ""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("want ErrPasswordRequired, got %v", err)
	}
	if _, _, err := e.Decode(bytes.NewReader(out), "nope"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("want ErrBadPassword, got %v", err)
	}
	text, _, err := e.Decode(bytes.NewReader(out), "pw")
	if err != nil || text != "hidden" {
		t.Fatalf("decode = %q, %v", text, err)
	}
}

func TestEngine_Errors(t *testing.T) {
	e := NewEngine(testIterations, 8, 0)

	if _, _, err := e.Encode(bytes.NewReader(pngBytes(t, 10, 10)), "", ""); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("want ErrEmptyPayload, got %v", err)
	}
	if _, _, err := e.Encode(bytes.NewReader(pngBytes(t, 10, 10)), "longer than eight", ""); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("want ErrMessageTooLong, got %v", err)
	}
	// 3x3 pixels hold three bytes; a sealed payload never fits
	if _, _, err := e.Encode(bytes.NewReader(pngBytes(t, 3, 3)), "abc", "pw"); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("want ErrPayloadTooLarge, got %v", err)
	}
	if _, err := e.Capacity(strings.NewReader("not an image")); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("want ErrUnsupportedImage, got %v", err)
	}
}

func TestEngine_AcceptsJPEGAndWritesPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(30, 30), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	e := NewEngine(testIterations, 0, 0)
	out, info, err := e.Encode(&buf, "from jpeg", "")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if info.Format != "jpeg" {
		t.Fatalf("format = %q", info.Format)
	}
	if !bytes.HasPrefix(out, []byte("\x89PNG")) {
		t.Fatal("output is not PNG")
	}
	text, _, err := e.Decode(bytes.NewReader(out), "")
	if err != nil || text != "from jpeg" {
		t.Fatalf("decode = %q, %v", text, err)
	}
}

func TestEngine_RejectsOversizedDimensions(t *testing.T) {
	e := NewEngine(testIterations, 1<<20, 1_000_000)
	bomb := hugePNG(t, 8000, 8000)

	if _, err := e.Capacity(bytes.NewReader(bomb)); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("capacity: want ErrImageTooLarge, got %v", err)
	}
	if _, _, err := e.Encode(bytes.NewReader(bomb), "hi", ""); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("encode: want ErrImageTooLarge, got %v", err)
	}
	if _, _, err := e.Decode(bytes.NewReader(bomb), ""); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("decode: want ErrImageTooLarge, got %v", err)
	}
}

func TestEngine_CapacityReadsHeaderOnly(t *testing.T) {
	e := NewEngine(testIterations, 1<<20, 0)
	info, err := e.Capacity(bytes.NewReader(hugePNG(t, 300, 30)))
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 300 || info.Height != 30 || info.Capacity != 3000 {
		t.Fatalf("info = %+v", info)
	}
	// a 1000x1000 image sits exactly on a 1e6 pixel limit
	e = NewEngine(testIterations, 1<<20, 1_000_000)
	if _, err := e.Capacity(bytes.NewReader(hugePNG(t, 1000, 1000))); err != nil {
		t.Fatalf("limit is inclusive: %v", err)
	}
}
