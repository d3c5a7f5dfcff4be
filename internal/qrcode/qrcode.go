package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent   = errors.New("qr content is empty")
	ErrContentTooLong = errors.New("qr content too long")
)

// Generator renders QR codes as PNG data URIs.
type Generator struct {
	Size            int
	Level           string // low|medium|high|highest
	MaxContentBytes int
}

// DataURI encodes content into a QR code and returns it as
// data:image/png;base64,... ready for an <img> src.
func (g Generator) DataURI(content string) (string, error) {
	png, err := g.PNG(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// PNG encodes content into a QR code image.
func (g Generator) PNG(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if g.MaxContentBytes > 0 && len(content) > g.MaxContentBytes {
		return nil, ErrContentTooLong
	}
	size := g.Size
	if size <= 0 {
		size = 256
	}
	png, err := goqrcode.Encode(content, recoveryLevel(g.Level), size)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return png, nil
}

func recoveryLevel(level string) goqrcode.RecoveryLevel {
	switch strings.ToLower(level) {
	case "low":
		return goqrcode.Low
	case "high":
		return goqrcode.High
	case "highest":
		return goqrcode.Highest
	default:
		return goqrcode.Medium
	}
}
