package controller

import (
	"context"
	"errors"

	"github.com/Roelanb/pixelveil/internal/client"
)

// SelectTab activates id and its panel. Unknown ids are ignored.
func (c *Controller) SelectTab(id string) {
	c.mu.Lock()
	ok := c.tabs.Select(id)
	ids := c.tabs.IDs()
	c.mu.Unlock()
	if !ok {
		return
	}
	for _, v := range ids {
		c.view.SetTabActive(v, v == id)
	}
}

// Click opens the file chooser for zone.
func (c *Controller) Click(zone Zone) {
	if c.picker != nil {
		c.picker.Browse(zone)
	}
}

func (c *Controller) DragOver(zone Zone) { c.setDragOver(zone, true) }

func (c *Controller) DragLeave(zone Zone) { c.setDragOver(zone, false) }

func (c *Controller) setDragOver(zone Zone, on bool) {
	c.mu.Lock()
	changed := c.dragOver[zone] != on
	c.dragOver[zone] = on
	c.mu.Unlock()
	if changed {
		c.view.SetDragOver(zone, on)
	}
}

// Drop selects the first dropped file. The drag highlight is cleared even
// when nothing was dropped.
func (c *Controller) Drop(ctx context.Context, zone Zone, files []client.Image) {
	c.DropSelection(ctx, zone, c.BeginSelection(zone), files)
}

// Change selects the first file of a chooser result; an empty list is a
// no-op. Selecting an encode image resets the known capacity and blocks
// until the new capacity has been fetched.
func (c *Controller) Change(ctx context.Context, zone Zone, files []client.Image) {
	c.ChangeSelection(ctx, zone, c.BeginSelection(zone), files)
}

// BeginSelection records, in event order, that the user picked files for
// zone. Front ends that read file contents asynchronously take a ticket
// when the event fires and pass it to ChangeSelection or DropSelection once
// the read completes.
func (c *Controller) BeginSelection(zone Zone) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selections[zone]++
	return c.selections[zone]
}

// DropSelection is Drop for files read under ticket.
func (c *Controller) DropSelection(ctx context.Context, zone Zone, ticket uint64, files []client.Image) {
	c.setDragOver(zone, false)
	c.ChangeSelection(ctx, zone, ticket, files)
}

// ChangeSelection is Change for files read under ticket. Files whose ticket
// was superseded by a later BeginSelection for the same zone are dropped.
func (c *Controller) ChangeSelection(ctx context.Context, zone Zone, ticket uint64, files []client.Image) {
	if len(files) == 0 {
		return
	}
	f := files[0]

	c.mu.Lock()
	if c.selections[zone] != ticket {
		c.mu.Unlock()
		c.log.Warnw("stale file selection dropped", "zone", zone, "file", f.Name)
		return
	}
	c.files[zone] = &f
	if zone == ZoneEncode {
		c.capacity = 0
	}
	c.mu.Unlock()

	c.view.SetFileInfo(zone, "Selected: "+f.Name)
	if zone == ZoneEncode {
		c.view.SetCapacityVisible(false)
		c.checkCapacity(ctx, f)
	}
}

func (c *Controller) checkCapacity(parent context.Context, img client.Image) {
	ctx, gen := c.begin(parent, flowCapacity)
	n, err := c.api.Capacity(ctx, img)
	if !c.end(flowCapacity, gen) {
		return
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.log.Warnw("capacity check failed", "file", img.Name, "err", err)
		}
		return
	}

	c.mu.Lock()
	if !c.currentLocked(flowCapacity, gen) {
		c.mu.Unlock()
		return
	}
	c.capacity = n
	length := len(c.message)
	c.mu.Unlock()

	c.view.SetCapacityVisible(true)
	if m, ok := ComputeMeter(length, n); ok {
		c.view.SetMeter(m)
	}
}

// SetMessage stores the secret text and redraws the meter when the
// capacity is known. Length is measured in UTF-8 bytes, the unit the
// server reports capacity in.
func (c *Controller) SetMessage(text string) {
	c.mu.Lock()
	c.message = text
	capacity := c.capacity
	c.mu.Unlock()

	if m, ok := ComputeMeter(len(text), capacity); ok {
		c.view.SetMeter(m)
	}
}

func (c *Controller) SetPassword(zone Zone, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if zone == ZoneDecode {
		c.decodePassword = password
		return
	}
	c.encodePassword = password
}
