package controller

import (
	"sync"
	"time"
)

type Region string

const (
	RegionEncode Region = "encode"
	RegionDecode Region = "decode"
	RegionShare  Region = "share"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// StatusRegion shows one transient message at a time. It is idle or showing;
// every Show replaces the message and restarts the single expiry timer, so a
// stale timer can never blank a newer message.
type StatusRegion struct {
	region  Region
	timeout time.Duration
	render  func(Region, string, Kind)

	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
	msg   string
	kind  Kind
}

func NewStatusRegion(region Region, timeout time.Duration, render func(Region, string, Kind)) *StatusRegion {
	return &StatusRegion{region: region, timeout: timeout, render: render}
}

func (s *StatusRegion) Show(msg string, kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	seq := s.seq
	s.msg, s.kind = msg, kind
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.timeout, func() { s.expire(seq) })
	s.render(s.region, msg, kind)
}

// expire clears the region if seq is still the message being shown. A timer
// that fired while a newer Show held the lock finds a newer seq and does nothing.
func (s *StatusRegion) expire(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq || s.msg == "" {
		return
	}
	s.msg, s.kind = "", ""
	s.timer = nil
	s.render(s.region, "", "")
}

// Current returns the message being shown; showing is false when idle.
func (s *StatusRegion) Current() (msg string, kind Kind, showing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg, s.kind, s.msg != ""
}

// Stop cancels a pending expiry without clearing the message.
func (s *StatusRegion) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
