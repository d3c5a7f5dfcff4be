package controller

import (
	"context"
	"errors"

	"github.com/Roelanb/pixelveil/internal/client"
)

// User-facing messages.
const (
	MsgEncodeMissing   = "Please select an image and enter text."
	MsgCapacityUnknown = "Image capacity is not known yet. Please wait or reselect the image."
	MsgTooLong         = "Message is too long for this image!"
	MsgEncoded         = "Image encoded and downloaded!"
	MsgEncodeFailed    = "Encoding failed"
	MsgUnexpected      = "An error occurred."
	MsgDecodeMissing   = "Please select an image to decode."
	MsgDecoded         = "Message revealed successfully!"
	MsgDecodeFailed    = "Decoding failed"
	MsgEncodeFirst     = "Please encode an image first."
	MsgQRGenerated     = "QR code generated!"
	MsgQRFailed        = "Failed to generate QR code"
	MsgOpeningEmail    = "Opening email client..."
	MsgOpeningWhatsApp = "Opening WhatsApp..."
)

// Encode hides the current message in the selected image and downloads the
// result. The button stays disabled while the request runs.
func (c *Controller) Encode(parent context.Context) {
	c.mu.Lock()
	file := c.files[ZoneEncode]
	text, password, capacity := c.message, c.encodePassword, c.capacity
	c.mu.Unlock()

	switch {
	case file == nil || text == "":
		c.encodeStatus.Show(MsgEncodeMissing, KindError)
		return
	case capacity <= 0:
		c.encodeStatus.Show(MsgCapacityUnknown, KindError)
		return
	case len(text) > capacity:
		c.encodeStatus.Show(MsgTooLong, KindError)
		return
	}

	ctx, gen := c.begin(parent, flowEncode)
	c.view.SetButton(ActionEncode, LabelEncodeBusy, false)
	data, err := c.api.Encode(ctx, *file, text, password)
	if !c.end(flowEncode, gen) {
		return
	}
	defer c.view.SetButton(ActionEncode, LabelEncode, true)

	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		c.encodeStatus.Show(failure(err, MsgEncodeFailed), KindError)
		c.log.Warnw("encode failed", "file", file.Name, "err", err)
		return
	}
	if err := c.dl.Download(EncodedFileName, data); err != nil {
		c.encodeStatus.Show(MsgUnexpected, KindError)
		c.log.Warnw("download failed", "err", err)
		return
	}

	c.mu.Lock()
	c.encoded = data
	c.mu.Unlock()
	c.encodeStatus.Show(MsgEncoded, KindSuccess)
	c.view.SetShareVisible(true)
}

// Decode reveals the message hidden in the selected decode image.
func (c *Controller) Decode(parent context.Context) {
	c.mu.Lock()
	file := c.files[ZoneDecode]
	password := c.decodePassword
	c.mu.Unlock()

	if file == nil {
		c.decodeStatus.Show(MsgDecodeMissing, KindError)
		return
	}

	ctx, gen := c.begin(parent, flowDecode)
	c.view.SetButton(ActionDecode, LabelDecodeBusy, false)
	c.view.SetResult("", false)
	text, err := c.api.Decode(ctx, *file, password)
	if !c.end(flowDecode, gen) {
		return
	}
	defer c.view.SetButton(ActionDecode, LabelDecode, true)

	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		c.decodeStatus.Show(failure(err, MsgDecodeFailed), KindError)
		c.log.Warnw("decode failed", "file", file.Name, "err", err)
		return
	}
	c.view.SetResult(text, true)
	c.decodeStatus.Show(MsgDecoded, KindSuccess)
}

// GenerateQR renders a QR code pointing at the app.
func (c *Controller) GenerateQR(parent context.Context) {
	if !c.hasEncoded() {
		c.shareStatus.Show(MsgEncodeFirst, KindError)
		return
	}

	ctx, gen := c.begin(parent, flowQR)
	src, err := c.api.GenerateQR(ctx, QRContent(c.origin))
	if !c.end(flowQR, gen) {
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		c.shareStatus.Show(failure(err, MsgQRFailed), KindError)
		c.log.Warnw("qr generation failed", "err", err)
		return
	}
	c.view.SetQR(src)
	c.shareStatus.Show(MsgQRGenerated, KindSuccess)
}

// ShareEmail opens a mail draft in the current context.
func (c *Controller) ShareEmail() {
	c.share(MailtoURL(c.origin), false, MsgOpeningEmail)
}

// ShareWhatsApp opens the WhatsApp share page in a new context.
func (c *Controller) ShareWhatsApp() {
	c.share(WhatsAppURL(c.origin), true, MsgOpeningWhatsApp)
}

func (c *Controller) share(url string, newContext bool, msg string) {
	if !c.hasEncoded() {
		c.shareStatus.Show(MsgEncodeFirst, KindError)
		return
	}
	if err := c.opener.Open(url, newContext); err != nil {
		c.shareStatus.Show(MsgUnexpected, KindError)
		c.log.Warnw("open share target failed", "url", url, "err", err)
		return
	}
	c.shareStatus.Show(msg, KindInfo)
}

func (c *Controller) hasEncoded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encoded != nil
}

// failure picks the status text for a failed request: the server's message
// when it sent one, fallback for other API errors, and a generic text when
// the request never got an answer.
func failure(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	return MsgUnexpected
}
