// Package fake provides an in-memory ws281x.Driver for tests and dry runs.
package fake

import (
	"libdb.so/ws281x"
	"libdb.so/ws281x/pixbuf"
)

// Driver keeps the channel buffers in memory and records every call. The
// Status fields make the matching call fail.
type Driver struct {
	InitStatus   ws281x.Status
	RenderStatus ws281x.Status
	WaitStatus   ws281x.Status

	Inits   int
	Renders int
	Waits   int
	Finis   int

	// Frames holds a copy of the buffers sent by every successful Render.
	Frames [][ws281x.Channels][]byte
	// Brightness holds the brightness of each channel at the last Render.
	Brightness [ws281x.Channels]uint8

	leds [ws281x.Channels][]byte
}

var _ ws281x.Driver = (*Driver)(nil)

// New creates a new fake driver.
func New() *Driver {
	return &Driver{}
}

// Init implements ws281x.Driver.
func (d *Driver) Init(cfg *ws281x.DeviceConfig) error {
	d.Inits++
	if d.InitStatus != ws281x.StatusSuccess {
		return d.InitStatus
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	for i, ch := range cfg.Channels {
		d.leds[i] = pixbuf.Make(ch.LEDCount)
	}
	return nil
}

// LEDs implements ws281x.Driver.
func (d *Driver) LEDs(channel int) []byte {
	return d.leds[channel]
}

// Render implements ws281x.Driver.
func (d *Driver) Render(cfg *ws281x.DeviceConfig) error {
	d.Renders++
	if d.RenderStatus != ws281x.StatusSuccess {
		return d.RenderStatus
	}

	var frame [ws281x.Channels][]byte
	for i := range d.leds {
		frame[i] = append([]byte(nil), d.leds[i]...)
		d.Brightness[i] = cfg.Channels[i].Brightness
	}
	d.Frames = append(d.Frames, frame)
	return nil
}

// Wait implements ws281x.Driver.
func (d *Driver) Wait() error {
	d.Waits++
	if d.WaitStatus != ws281x.StatusSuccess {
		return d.WaitStatus
	}
	return nil
}

// Fini implements ws281x.Driver. The buffers are dropped.
func (d *Driver) Fini() error {
	d.Finis++
	d.leds = [ws281x.Channels][]byte{}
	return nil
}

// LastFrame returns the colors of the given channel at the last Render.
func (d *Driver) LastFrame(channel int) []uint32 {
	if len(d.Frames) == 0 {
		return nil
	}
	colors, _ := pixbuf.DecodeAll(d.Frames[len(d.Frames)-1][channel])
	return colors
}
