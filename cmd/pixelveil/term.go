package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/browser"

	"github.com/Roelanb/pixelveil/internal/controller"
	"github.com/Roelanb/pixelveil/internal/download"
)

// terminalView prints controller updates as lines. Cleared statuses and
// purely visual changes are not printed.
type terminalView struct {
	mu     sync.Mutex
	out    io.Writer
	failed map[controller.Region]string
	result string
	qr     string
}

func newTerminalView(out io.Writer) *terminalView {
	return &terminalView{out: out, failed: map[controller.Region]string{}}
}

func (v *terminalView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

func (v *terminalView) SetTabActive(string, bool) {}

func (v *terminalView) SetFileInfo(_ controller.Zone, text string) { v.printf("%s\n", text) }

func (v *terminalView) SetDragOver(controller.Zone, bool) {}

func (v *terminalView) SetCapacityVisible(bool) {}

func (v *terminalView) SetMeter(m controller.Meter) {
	v.printf("capacity: %s (%.0f%%, %s)\n", m.Text, m.Percent, m.Band)
}

func (v *terminalView) SetButton(_ controller.Action, label string, enabled bool) {
	if !enabled {
		v.printf("%s\n", label)
	}
}

func (v *terminalView) SetStatus(region controller.Region, msg string, kind controller.Kind) {
	if msg == "" {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if kind == controller.KindError {
		v.failed[region] = msg
	} else {
		delete(v.failed, region)
	}
	fmt.Fprintf(v.out, "[%s] %s\n", kind, msg)
}

func (v *terminalView) SetResult(text string, visible bool) {
	if !visible {
		return
	}
	v.mu.Lock()
	v.result = text
	v.mu.Unlock()
	v.printf("hidden message:\n%s\n", text)
}

func (v *terminalView) SetShareVisible(bool) {}

func (v *terminalView) SetQR(src string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.qr = src
}

// err returns the last error shown in region, if it is still the latest status.
func (v *terminalView) err(region controller.Region) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if msg, ok := v.failed[region]; ok {
		return errors.New(msg)
	}
	return nil
}

func (v *terminalView) qrCode() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.qr
}

// fileDownloader saves downloads into a directory with browser-like
// conflict handling.
type fileDownloader struct {
	opts download.Options
	out  io.Writer
}

func (d fileDownloader) Download(name string, data []byte) error {
	path, err := download.Save(name, data, d.opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(d.out, "saved %s\n", path)
	return nil
}

type browserOpener struct{}

func (browserOpener) Open(url string, _ bool) error { return browser.OpenURL(url) }

const pngDataURIPrefix = "data:image/png;base64,"

func decodeDataURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, pngDataURIPrefix) {
		return nil, errors.New("not a PNG data URI")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, pngDataURIPrefix))
}
