package controller

import (
	"math"
	"testing"
)

func TestComputeMeter(t *testing.T) {
	cases := []struct {
		length, capacity int
		pct              float64
		band             Band
		text             string
	}{
		{50, 120, 41.666, BandSuccess, "50 / 120 chars"},
		{0, 10, 0, BandSuccess, "0 / 10 chars"},
		{70, 100, 70, BandSuccess, "70 / 100 chars"},
		{71, 100, 71, BandWarning, "71 / 100 chars"},
		{90, 100, 90, BandWarning, "90 / 100 chars"},
		{91, 100, 91, BandDanger, "91 / 100 chars"},
		{250, 100, 100, BandDanger, "250 / 100 chars"},
	}
	for _, tc := range cases {
		m, ok := ComputeMeter(tc.length, tc.capacity)
		if !ok {
			t.Fatalf("%d/%d: not ok", tc.length, tc.capacity)
		}
		if math.Abs(m.Percent-tc.pct) > 0.01 || m.Band != tc.band || m.Text != tc.text {
			t.Errorf("%d/%d: got %+v", tc.length, tc.capacity, m)
		}
	}
}

func TestComputeMeter_UnknownCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		if _, ok := ComputeMeter(5, c); ok {
			t.Errorf("capacity %d should not render", c)
		}
	}
}

func TestTabs(t *testing.T) {
	tabs := NewTabs("encode", "decode")
	if tabs.Active() != "encode" {
		t.Fatalf("initial tab %q", tabs.Active())
	}
	if !tabs.Select("decode") || tabs.Active() != "decode" {
		t.Fatal("select decode")
	}
	if tabs.Select("settings") || tabs.Active() != "decode" {
		t.Fatalf("unknown id changed selection to %q", tabs.Active())
	}
}
