//go:build js && wasm

package web

import (
	"context"
	"syscall/js"

	"github.com/Roelanb/pixelveil/internal/controller"
)

// Logger receives binding failures.
type Logger interface {
	Warnw(msg string, kv ...any)
}

// Bind attaches DOM listeners that drive ctrl. Handlers never block: request
// work runs on its own goroutine. File selections take their ticket inside
// the event callback so reads that finish out of order cannot replace a
// newer pick. The listeners live for the page lifetime.
func Bind(ctx context.Context, doc js.Value, ctrl *controller.Controller, log Logger) {
	byID := func(id string) js.Value { return doc.Call("getElementById", id) }
	on := func(id, event string, fn func(ev js.Value)) {
		el := byID(id)
		if el.IsNull() {
			log.Warnw("element missing", "id", id)
			return
		}
		el.Call("addEventListener", event, js.FuncOf(func(_ js.Value, args []js.Value) any {
			fn(args[0])
			return nil
		}))
	}

	for _, tab := range []string{controller.TabEncode, controller.TabDecode} {
		id := tab
		on("tab-"+id, "click", func(js.Value) { ctrl.SelectTab(id) })
	}

	for _, z := range []controller.Zone{controller.ZoneEncode, controller.ZoneDecode} {
		zone := z
		drop := "drop-" + string(zone)
		on(drop, "click", func(js.Value) { ctrl.Click(zone) })
		on(drop, "dragover", func(ev js.Value) {
			ev.Call("preventDefault")
			ctrl.DragOver(zone)
		})
		on(drop, "dragleave", func(js.Value) { ctrl.DragLeave(zone) })
		on(drop, "drop", func(ev js.Value) {
			ev.Call("preventDefault")
			files := ev.Get("dataTransfer").Get("files")
			if !hasFiles(files) {
				ctrl.DragLeave(zone)
				return
			}
			ticket := ctrl.BeginSelection(zone)
			go func() {
				imgs, err := readFirst(files)
				if err != nil {
					log.Warnw("read dropped file failed", "zone", zone, "err", err)
				}
				ctrl.DropSelection(ctx, zone, ticket, imgs)
			}()
		})
		on("file-"+string(zone), "change", func(ev js.Value) {
			files := ev.Get("target").Get("files")
			if !hasFiles(files) {
				return
			}
			ticket := ctrl.BeginSelection(zone)
			go func() {
				imgs, err := readFirst(files)
				if err != nil {
					log.Warnw("read selected file failed", "zone", zone, "err", err)
					return
				}
				ctrl.ChangeSelection(ctx, zone, ticket, imgs)
			}()
		})
		on("password-"+string(zone), "input", func(ev js.Value) {
			ctrl.SetPassword(zone, ev.Get("target").Get("value").String())
		})
	}

	on("message", "input", func(ev js.Value) {
		ctrl.SetMessage(ev.Get("target").Get("value").String())
	})

	on("btn-encode", "click", func(js.Value) { go ctrl.Encode(ctx) })
	on("btn-decode", "click", func(js.Value) { go ctrl.Decode(ctx) })
	on("btn-qr", "click", func(js.Value) { go ctrl.GenerateQR(ctx) })
	on("btn-email", "click", func(js.Value) { go ctrl.ShareEmail() })
	on("btn-whatsapp", "click", func(js.Value) { go ctrl.ShareWhatsApp() })
}
