package controller

import (
	"context"
	"sync"

	"github.com/Roelanb/pixelveil/internal/client"
)

type statusCall struct {
	Region Region
	Msg    string
	Kind   Kind
}

type fakeView struct {
	mu       sync.Mutex
	tabs     map[string]bool
	fileInfo map[Zone]string
	drag     map[Zone]bool
	capVis   bool
	meters   []Meter
	buttons  map[Action][]string
	enabled  map[Action]bool
	statuses []statusCall
	result   string
	resVis   bool
	shareVis bool
	qr       string
}

func newFakeView() *fakeView {
	return &fakeView{
		tabs:     map[string]bool{},
		fileInfo: map[Zone]string{},
		drag:     map[Zone]bool{},
		buttons:  map[Action][]string{},
		enabled:  map[Action]bool{},
	}
}

func (v *fakeView) SetTabActive(id string, active bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tabs[id] = active
}

func (v *fakeView) SetFileInfo(zone Zone, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fileInfo[zone] = text
}

func (v *fakeView) SetDragOver(zone Zone, on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drag[zone] = on
}

func (v *fakeView) SetCapacityVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.capVis = visible
}

func (v *fakeView) SetMeter(m Meter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.meters = append(v.meters, m)
}

func (v *fakeView) SetButton(action Action, label string, enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.buttons[action] = append(v.buttons[action], label)
	v.enabled[action] = enabled
}

func (v *fakeView) SetStatus(region Region, msg string, kind Kind) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, statusCall{region, msg, kind})
}

func (v *fakeView) SetResult(text string, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.result, v.resVis = text, visible
}

func (v *fakeView) SetShareVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.shareVis = visible
}

func (v *fakeView) SetQR(src string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.qr = src
}

// lastStatus returns the most recent status rendered for region.
func (v *fakeView) lastStatus(region Region) statusCall {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := len(v.statuses) - 1; i >= 0; i-- {
		if v.statuses[i].Region == region {
			return v.statuses[i]
		}
	}
	return statusCall{}
}

func (v *fakeView) lastMeter() (Meter, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.meters) == 0 {
		return Meter{}, false
	}
	return v.meters[len(v.meters)-1], true
}

type fakeAPI struct {
	capacity   func(ctx context.Context, img client.Image) (int, error)
	encode     func(ctx context.Context, img client.Image, text, password string) ([]byte, error)
	decode     func(ctx context.Context, img client.Image, password string) (string, error)
	generateQR func(ctx context.Context, content string) (string, error)

	mu        sync.Mutex
	capCalls  int
	encCalls  int
	lastEncIn client.Image
}

func (a *fakeAPI) Capacity(ctx context.Context, img client.Image) (int, error) {
	a.mu.Lock()
	a.capCalls++
	a.mu.Unlock()
	return a.capacity(ctx, img)
}

func (a *fakeAPI) Encode(ctx context.Context, img client.Image, text, password string) ([]byte, error) {
	a.mu.Lock()
	a.encCalls++
	a.lastEncIn = img
	a.mu.Unlock()
	return a.encode(ctx, img, text, password)
}

func (a *fakeAPI) capacityCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capCalls
}

func (a *fakeAPI) encodeCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.encCalls
}

func (a *fakeAPI) lastEncodeImage() client.Image {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastEncIn
}

func (a *fakeAPI) Decode(ctx context.Context, img client.Image, password string) (string, error) {
	return a.decode(ctx, img, password)
}

func (a *fakeAPI) GenerateQR(ctx context.Context, content string) (string, error) {
	return a.generateQR(ctx, content)
}

type download struct {
	name string
	data []byte
}

type fakeDownloader struct {
	mu    sync.Mutex
	saved []download
	err   error
}

func (d *fakeDownloader) Download(name string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.saved = append(d.saved, download{name, data})
	return nil
}

type opened struct {
	url        string
	newContext bool
}

type fakeOpener struct {
	mu     sync.Mutex
	opened []opened
}

func (o *fakeOpener) Open(url string, newContext bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, opened{url, newContext})
	return nil
}

type fakePicker struct{ zones []Zone }

func (p *fakePicker) Browse(zone Zone) { p.zones = append(p.zones, zone) }
