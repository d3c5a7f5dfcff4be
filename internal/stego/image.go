package stego

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedImage is returned when the upload is not a decodable image.
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")
	// ErrImageTooLarge is returned when the declared dimensions exceed the
	// pixel limit. Nothing is decoded in that case.
	ErrImageTooLarge = errors.New("image dimensions exceed limit")
)

// DecodeHeader reads only the image header and checks the declared size
// against maxPixels (0 disables the check).
func DecodeHeader(r io.Reader, maxPixels int) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, "", fmt.Errorf("%w: empty bounds", ErrUnsupportedImage)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return image.Config{}, "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return cfg, format, nil
}

// DecodeImage decodes PNG, JPEG, GIF, BMP, TIFF or WebP and returns the
// registered format name. The header is checked against maxPixels before
// any pixel buffer is allocated.
func DecodeImage(data []byte, maxPixels int) (image.Image, string, error) {
	if _, _, err := DecodeHeader(bytes.NewReader(data), maxPixels); err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("%w: empty bounds", ErrUnsupportedImage)
	}
	return img, format, nil
}

// EncodePNG writes img losslessly. Any lossy output format would destroy the
// low bits that carry the payload.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// flatten copies src into an opaque NRGBA canvas anchored at (0,0).
func flatten(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if n, ok := src.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			si := n.PixOffset(b.Min.X, b.Min.Y+y)
			di := dst.PixOffset(0, y)
			copy(dst.Pix[di:di+4*b.Dx()], n.Pix[si:si+4*b.Dx()])
		}
	} else {
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				dst.SetNRGBA(x, y, c)
			}
		}
	}
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
