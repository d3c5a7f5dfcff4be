package stego

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"unicode/utf8"
)

// ErrMessageTooLong is returned when the plain message exceeds the configured limit,
// before any image work is done.
var ErrMessageTooLong = errors.New("message exceeds configured limit")

// Info describes the image and payload handled by an Engine call.
type Info struct {
	Format       string
	Width        int
	Height       int
	Capacity     int
	PayloadBytes int
	Encrypted    bool
}

// Engine bundles image decoding, the LSB codec and the password envelope.
// The zero value is not usable; build one with NewEngine.
type Engine struct {
	kdfIterations   int
	maxMessageBytes int
	maxPixels       int
}

// NewEngine builds an Engine. maxPixels caps the declared width*height of
// uploads; 0 disables the cap.
func NewEngine(kdfIterations, maxMessageBytes, maxPixels int) *Engine {
	return &Engine{kdfIterations: kdfIterations, maxMessageBytes: maxMessageBytes, maxPixels: maxPixels}
}

func (e *Engine) load(r io.Reader) (imgInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return imgInfo{}, fmt.Errorf("read image: %w", err)
	}
	img, format, err := DecodeImage(data, e.maxPixels)
	if err != nil {
		return imgInfo{}, err
	}
	b := img.Bounds()
	return imgInfo{img: img, info: Info{
		Format:   format,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Capacity: pixelCapacity(b.Dx(), b.Dy()),
	}}, nil
}

type imgInfo struct {
	img  image.Image
	info Info
}

// Capacity reports how many payload bytes the uploaded image can carry.
// Only the header is read.
func (e *Engine) Capacity(r io.Reader) (Info, error) {
	cfg, format, err := DecodeHeader(r, e.maxPixels)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Format:   format,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Capacity: pixelCapacity(cfg.Width, cfg.Height),
	}, nil
}

// Encode hides text (sealed when password is non-empty) and returns PNG bytes.
func (e *Engine) Encode(r io.Reader, text, password string) ([]byte, Info, error) {
	if text == "" {
		return nil, Info{}, ErrEmptyPayload
	}
	if e.maxMessageBytes > 0 && len(text) > e.maxMessageBytes {
		return nil, Info{}, ErrMessageTooLong
	}
	ii, err := e.load(r)
	if err != nil {
		return nil, Info{}, err
	}
	payload := []byte(text)
	if password != "" {
		payload, err = Seal(payload, password, e.kdfIterations)
		if err != nil {
			return nil, ii.info, err
		}
		ii.info.Encrypted = true
	}
	ii.info.PayloadBytes = len(payload)

	out, err := Embed(ii.img, payload)
	if err != nil {
		return nil, ii.info, err
	}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, out); err != nil {
		return nil, ii.info, err
	}
	return buf.Bytes(), ii.info, nil
}

// Decode extracts and, when needed, opens the hidden message.
func (e *Engine) Decode(r io.Reader, password string) (string, Info, error) {
	ii, err := e.load(r)
	if err != nil {
		return "", Info{}, err
	}
	payload, err := Extract(ii.img)
	if err != nil {
		return "", ii.info, err
	}
	ii.info.PayloadBytes = len(payload)
	ii.info.Encrypted = IsSealed(payload)

	msg, err := Open(payload, password)
	if err != nil {
		return "", ii.info, err
	}
	if !utf8.Valid(msg) {
		return "", ii.info, ErrNoMessage
	}
	return string(msg), ii.info, nil
}
