//go:build js && wasm

// Package web binds the page rendered by the API server to a controller.
// Element ids follow "<role>-<zone|region|action>", e.g. status-share.
package web

import (
	"fmt"
	"syscall/js"

	"github.com/Roelanb/pixelveil/internal/controller"
)

// View implements controller.View and controller.Picker over the DOM.
type View struct {
	doc js.Value
}

func NewView(doc js.Value) *View { return &View{doc: doc} }

func (v *View) byID(id string) js.Value { return v.doc.Call("getElementById", id) }

func (v *View) toggle(id, class string, on bool) {
	el := v.byID(id)
	if el.IsNull() {
		return
	}
	el.Get("classList").Call("toggle", class, on)
}

func (v *View) setText(id, text string) {
	if el := v.byID(id); !el.IsNull() {
		el.Set("textContent", text)
	}
}

func (v *View) SetTabActive(id string, active bool) {
	v.toggle("tab-"+id, "active", active)
	v.toggle("panel-"+id, "active", active)
}

func (v *View) SetFileInfo(zone controller.Zone, text string) {
	v.setText("info-"+string(zone), text)
}

func (v *View) SetDragOver(zone controller.Zone, on bool) {
	v.toggle("drop-"+string(zone), "dragover", on)
}

func (v *View) SetCapacityVisible(visible bool) {
	v.toggle("capacity", "hidden", !visible)
}

func (v *View) SetMeter(m controller.Meter) {
	if fill := v.byID("capacity-fill"); !fill.IsNull() {
		fill.Get("style").Set("width", fmt.Sprintf("%.2f%%", m.Percent))
		fill.Set("className", "fill "+string(m.Band))
	}
	v.setText("capacity-text", m.Text)
}

func (v *View) SetButton(action controller.Action, label string, enabled bool) {
	btn := v.byID("btn-" + string(action))
	if btn.IsNull() {
		return
	}
	btn.Set("textContent", label)
	btn.Set("disabled", !enabled)
}

func (v *View) SetStatus(region controller.Region, msg string, kind controller.Kind) {
	el := v.byID("status-" + string(region))
	if el.IsNull() {
		return
	}
	el.Set("textContent", msg)
	cls := "status"
	if msg != "" {
		cls += " " + string(kind)
	}
	el.Set("className", cls)
}

func (v *View) SetResult(text string, visible bool) {
	v.setText("result-text", text)
	v.toggle("result", "hidden", !visible)
}

func (v *View) SetShareVisible(visible bool) {
	v.toggle("share", "hidden", !visible)
}

func (v *View) SetQR(src string) {
	if img := v.byID("qr-img"); !img.IsNull() {
		img.Set("src", src)
	}
	v.toggle("qr", "hidden", false)
}

// Browse opens the hidden file input of zone.
func (v *View) Browse(zone controller.Zone) {
	if in := v.byID("file-" + string(zone)); !in.IsNull() {
		in.Call("click")
	}
}
