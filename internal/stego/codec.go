package stego

import (
	"errors"
	"image"
)

// Every payload byte is spread over three consecutive pixels. Channels 0..7
// of those nine RGB values carry the bits MSB first; channel 8 marks whether
// more bytes follow (even) or this was the last one (odd).
const (
	pixelsPerByte   = 3
	channelsPerByte = pixelsPerByte * 3
)

var (
	ErrEmptyPayload    = errors.New("payload is empty")
	ErrPayloadTooLarge = errors.New("payload exceeds image capacity")
	ErrNoMessage       = errors.New("no hidden message found")
)

// Capacity returns the number of payload bytes img can carry.
func Capacity(img image.Image) int {
	b := img.Bounds()
	return pixelCapacity(b.Dx(), b.Dy())
}

func pixelCapacity(w, h int) int {
	if w <= 0 || h <= 0 {
		return 0
	}
	return (w * h) / pixelsPerByte
}

// Embed returns an opaque copy of img with payload hidden in its low bits.
// img itself is never modified.
func Embed(img image.Image, payload []byte) (*image.NRGBA, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(payload) > Capacity(img) {
		return nil, ErrPayloadTooLarge
	}
	dst := flatten(img)
	w := dst.Rect.Dx()
	for i, c := range payload {
		base := i * pixelsPerByte
		for j := 0; j < 8; j++ {
			bit := (c >> (7 - j)) & 1
			setParity(channel(dst, w, base, j), bit)
		}
		var last byte
		if i == len(payload)-1 {
			last = 1
		}
		setParity(channel(dst, w, base, 8), last)
	}
	return dst, nil
}

// Extract reads a payload previously hidden by Embed.
func Extract(img image.Image) ([]byte, error) {
	src := flatten(img)
	w := src.Rect.Dx()
	n := pixelCapacity(w, src.Rect.Dy())
	out := make([]byte, 0, 64)
	for i := 0; i < n; i++ {
		base := i * pixelsPerByte
		var c byte
		for j := 0; j < 8; j++ {
			c = c<<1 | *channel(src, w, base, j)&1
		}
		out = append(out, c)
		if *channel(src, w, base, 8)&1 == 1 {
			return out, nil
		}
	}
	return nil, ErrNoMessage
}

// channel addresses the k-th RGB value (0..8) of the three-pixel group that
// starts at pixel index base, walking the image in row-major order.
func channel(img *image.NRGBA, width, base, k int) *uint8 {
	p := base + k/3
	x, y := p%width, p/width
	return &img.Pix[img.PixOffset(x, y)+k%3]
}

// setParity forces the low bit of *v to bit. Values move down by one except 0,
// which moves up, so a channel never wraps.
func setParity(v *uint8, bit byte) {
	if *v&1 == bit {
		return
	}
	if *v == 0 {
		*v = 1
		return
	}
	*v--
}
