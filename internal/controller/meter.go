package controller

import (
	"fmt"
	"math"
)

type Band string

const (
	BandSuccess Band = "success"
	BandWarning Band = "warning"
	BandDanger  Band = "danger"
)

const (
	warningAbove = 70.0
	dangerAbove  = 90.0
)

// Meter is the rendered state of the capacity bar.
type Meter struct {
	Length   int
	Capacity int
	Percent  float64 // 0..100, width of the fill
	Band     Band
	Text     string
}

// ComputeMeter returns the meter for a message of length characters against
// capacity. ok is false while capacity is unknown, in which case the meter
// must not be redrawn.
func ComputeMeter(length, capacity int) (m Meter, ok bool) {
	if capacity <= 0 {
		return Meter{}, false
	}
	pct := math.Min(100*float64(length)/float64(capacity), 100)
	band := BandSuccess
	switch {
	case pct > dangerAbove:
		band = BandDanger
	case pct > warningAbove:
		band = BandWarning
	}
	return Meter{
		Length:   length,
		Capacity: capacity,
		Percent:  pct,
		Band:     band,
		Text:     fmt.Sprintf("%d / %d chars", length, capacity),
	}, true
}
