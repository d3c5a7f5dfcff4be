package controller

import (
	"context"
	"sync"
	"time"

	"github.com/Roelanb/pixelveil/internal/client"
)

// Tab and panel ids.
const (
	TabEncode = "encode"
	TabDecode = "decode"
)

type Zone string

const (
	ZoneEncode Zone = "encode"
	ZoneDecode Zone = "decode"
)

type Action string

const (
	ActionEncode Action = "encode"
	ActionDecode Action = "decode"
)

// Button labels.
const (
	LabelEncode     = "Hide Message & Download"
	LabelEncodeBusy = "Processing..."
	LabelDecode     = "Reveal Message"
	LabelDecodeBusy = "Decoding..."
)

// EncodedFileName is the name of the downloaded encoded image.
const EncodedFileName = "encoded_image.png"

const (
	DefaultStatusTimeout      = 5 * time.Second
	DefaultShareStatusTimeout = 3 * time.Second
)

// API is the remote steganography service. *client.Client satisfies it.
type API interface {
	Capacity(ctx context.Context, img client.Image) (int, error)
	Encode(ctx context.Context, img client.Image, text, password string) ([]byte, error)
	Decode(ctx context.Context, img client.Image, password string) (string, error)
	GenerateQR(ctx context.Context, content string) (string, error)
}

// View renders controller state. Calls may arrive from any goroutine.
type View interface {
	SetTabActive(id string, active bool)
	SetFileInfo(zone Zone, text string)
	SetDragOver(zone Zone, on bool)
	SetCapacityVisible(visible bool)
	SetMeter(m Meter)
	SetButton(action Action, label string, enabled bool)
	// SetStatus with an empty msg clears the region.
	SetStatus(region Region, msg string, kind Kind)
	SetResult(text string, visible bool)
	SetShareVisible(visible bool)
	SetQR(src string)
}

// Picker opens the platform file chooser for a zone. The chosen files come
// back through Controller.Change.
type Picker interface {
	Browse(zone Zone)
}

type Downloader interface {
	Download(name string, data []byte) error
}

// Opener navigates to a URL; newContext asks for a new tab or window.
type Opener interface {
	Open(url string, newContext bool) error
}

// Logger receives diagnostics that are not shown to the user.
type Logger interface {
	Warnw(msg string, kv ...any)
}

type Deps struct {
	API        API
	View       View
	Picker     Picker
	Downloader Downloader
	Opener     Opener
	Log        Logger
}

type Options struct {
	// Origin is the public address of the app, used in share texts.
	Origin             string
	StatusTimeout      time.Duration
	ShareStatusTimeout time.Duration
}

type flow int

const (
	flowCapacity flow = iota
	flowEncode
	flowDecode
	flowQR
)

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

// Controller owns the state of the two-panel page and drives a View. Its
// action methods block until the request finishes; event-driven front ends
// call them from their own goroutine.
type Controller struct {
	api    API
	view   View
	picker Picker
	dl     Downloader
	opener Opener
	log    Logger
	origin string

	encodeStatus *StatusRegion
	decodeStatus *StatusRegion
	shareStatus  *StatusRegion

	mu             sync.Mutex
	tabs           *Tabs
	files          map[Zone]*client.Image
	selections     map[Zone]uint64
	dragOver       map[Zone]bool
	capacity       int
	message        string
	encodePassword string
	decodePassword string
	encoded        []byte
	gens           map[flow]uint64
	running        map[flow]inflight
}

func New(d Deps, opts Options) *Controller {
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = DefaultStatusTimeout
	}
	if opts.ShareStatusTimeout <= 0 {
		opts.ShareStatusTimeout = DefaultShareStatusTimeout
	}
	if d.Log == nil {
		d.Log = nopLogger{}
	}
	c := &Controller{
		api:        d.API,
		view:       d.View,
		picker:     d.Picker,
		dl:         d.Downloader,
		opener:     d.Opener,
		log:        d.Log,
		origin:     opts.Origin,
		tabs:       NewTabs(TabEncode, TabDecode),
		files:      map[Zone]*client.Image{},
		selections: map[Zone]uint64{},
		dragOver:   map[Zone]bool{},
		gens:       map[flow]uint64{},
		running:    map[flow]inflight{},
	}
	c.encodeStatus = NewStatusRegion(RegionEncode, opts.StatusTimeout, d.View.SetStatus)
	c.decodeStatus = NewStatusRegion(RegionDecode, opts.StatusTimeout, d.View.SetStatus)
	c.shareStatus = NewStatusRegion(RegionShare, opts.ShareStatusTimeout, d.View.SetStatus)
	return c
}

// Init paints the initial state.
func (c *Controller) Init() {
	c.mu.Lock()
	active := c.tabs.Active()
	ids := c.tabs.IDs()
	c.mu.Unlock()

	for _, id := range ids {
		c.view.SetTabActive(id, id == active)
	}
	c.view.SetCapacityVisible(false)
	c.view.SetButton(ActionEncode, LabelEncode, true)
	c.view.SetButton(ActionDecode, LabelDecode, true)
	c.view.SetResult("", false)
	c.view.SetShareVisible(false)
}

// Close cancels every request in flight and stops pending status timers.
func (c *Controller) Close() {
	c.mu.Lock()
	for f, r := range c.running {
		r.cancel()
		delete(c.running, f)
	}
	c.mu.Unlock()
	c.encodeStatus.Stop()
	c.decodeStatus.Stop()
	c.shareStatus.Stop()
}

// begin starts a new run of f, cancelling any earlier run.
func (c *Controller) begin(parent context.Context, f flow) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.running[f]; ok {
		prev.cancel()
	}
	c.gens[f]++
	gen := c.gens[f]
	c.running[f] = inflight{gen: gen, cancel: cancel}
	return ctx, gen
}

// currentLocked reports whether gen is still the latest run of f.
func (c *Controller) currentLocked(f flow, gen uint64) bool {
	return c.gens[f] == gen
}

// end releases the context of run gen. It reports whether the run was still
// current, i.e. whether its result may be applied.
func (c *Controller) end(f flow, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.running[f]
	if ok && r.gen == gen {
		r.cancel()
		delete(c.running, f)
	}
	return c.currentLocked(f, gen)
}

// State is a point-in-time copy of the controller state.
type State struct {
	ActiveTab  string
	EncodeFile string
	DecodeFile string
	Capacity   int
	Message    string
	HasEncoded bool
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{
		ActiveTab:  c.tabs.Active(),
		Capacity:   c.capacity,
		Message:    c.message,
		HasEncoded: c.encoded != nil,
	}
	if f := c.files[ZoneEncode]; f != nil {
		s.EncodeFile = f.Name
	}
	if f := c.files[ZoneDecode]; f != nil {
		s.DecodeFile = f.Name
	}
	return s
}

// Encoded returns the last encoded image, or nil.
func (c *Controller) Encoded() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encoded
}

type nopLogger struct{}

func (nopLogger) Warnw(string, ...any) {}
