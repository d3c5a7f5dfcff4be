package controller

import (
	"net/url"
	"strings"
)

const (
	shareSubject = "Secret image from pixelveil"
	whatsAppBase = "https://wa.me/"
)

// QRContent is the text encoded into the share QR code.
func QRContent(origin string) string {
	return strings.TrimSpace("Check out my secret image created with pixelveil! " + origin)
}

func shareBody(origin string) string {
	body := "I've hidden a secret message in an image for you using pixelveil."
	if origin != "" {
		body += " Reveal it at " + origin
	}
	return body
}

// MailtoURL opens a blank draft with the static subject and body. The
// encoded image is not attached; mailto cannot carry files.
func MailtoURL(origin string) string {
	return "mailto:?subject=" + escape(shareSubject) + "&body=" + escape(shareBody(origin))
}

// WhatsAppURL opens a share sheet with the static message only.
func WhatsAppURL(origin string) string {
	return whatsAppBase + "?text=" + escape(shareBody(origin))
}

// escape percent-encodes like encodeURIComponent; mail clients do not treat
// '+' as a space.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
