//go:build js && wasm

package web

import (
	"errors"
	"syscall/js"

	"github.com/Roelanb/pixelveil/internal/client"
)

// Downloader saves bytes through a temporary object URL and a synthetic
// anchor click.
type Downloader struct{}

func (Downloader) Download(name string, data []byte) error {
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	blob := js.Global().Get("Blob").New([]any{arr}, map[string]any{"type": "image/png"})
	urlAPI := js.Global().Get("URL")
	href := urlAPI.Call("createObjectURL", blob)
	defer revokeLater(urlAPI, href)

	doc := js.Global().Get("document")
	a := doc.Call("createElement", "a")
	a.Set("href", href)
	a.Set("download", name)
	body := doc.Get("body")
	body.Call("appendChild", a)
	a.Call("click")
	body.Call("removeChild", a)
	return nil
}

// revokeDelayMS gives the browser time to start the download before the
// object URL goes away; Firefox cancels it on an immediate revoke.
const revokeDelayMS = 1000

func revokeLater(urlAPI, href js.Value) {
	var fn js.Func
	fn = js.FuncOf(func(js.Value, []js.Value) any {
		urlAPI.Call("revokeObjectURL", href)
		fn.Release()
		return nil
	})
	js.Global().Call("setTimeout", fn, revokeDelayMS)
}

// Opener navigates the current window or opens a new one.
type Opener struct{}

func (Opener) Open(url string, newContext bool) error {
	win := js.Global().Get("window")
	if !newContext {
		win.Get("location").Set("href", url)
		return nil
	}
	if w := win.Call("open", url, "_blank"); w.IsNull() || w.IsUndefined() {
		return errors.New("popup blocked")
	}
	return nil
}

// await blocks the calling goroutine until p settles. It must not be
// called from a js.Func callback.
func await(p js.Value) (js.Value, error) {
	type result struct {
		v   js.Value
		err error
	}
	ch := make(chan result, 1)
	var then, catch js.Func
	then = js.FuncOf(func(_ js.Value, args []js.Value) any {
		ch <- result{v: args[0]}
		return nil
	})
	catch = js.FuncOf(func(_ js.Value, args []js.Value) any {
		ch <- result{err: errors.New(args[0].Call("toString").String())}
		return nil
	})
	defer then.Release()
	defer catch.Release()
	p.Call("then", then).Call("catch", catch)
	r := <-ch
	return r.v, r.err
}

func hasFiles(files js.Value) bool {
	return !files.IsNull() && !files.IsUndefined() && files.Get("length").Int() > 0
}

// readFirst reads the first file of a FileList. An empty list yields nil.
func readFirst(files js.Value) ([]client.Image, error) {
	if !hasFiles(files) {
		return nil, nil
	}
	f := files.Index(0)
	buf, err := await(f.Call("arrayBuffer"))
	if err != nil {
		return nil, err
	}
	arr := js.Global().Get("Uint8Array").New(buf)
	data := make([]byte, arr.Get("length").Int())
	js.CopyBytesToGo(data, arr)
	return []client.Image{{Name: f.Get("name").String(), Data: data}}, nil
}
