//go:build !linux || !cgo

package ws2811

import "libdb.so/ws281x"

// Driver is unavailable without cgo on Linux. Init always fails with
// ws281x.StatusHWNotSupported.
type Driver struct{}

var _ ws281x.Driver = (*Driver)(nil)

// New creates a native driver.
func New() *Driver {
	return &Driver{}
}

// Init implements ws281x.Driver.
func (d *Driver) Init(cfg *ws281x.DeviceConfig) error { return ws281x.StatusHWNotSupported }

// LEDs implements ws281x.Driver.
func (d *Driver) LEDs(channel int) []byte { return nil }

// Render implements ws281x.Driver.
func (d *Driver) Render(cfg *ws281x.DeviceConfig) error { return ws281x.StatusHWNotSupported }

// Wait implements ws281x.Driver.
func (d *Driver) Wait() error { return ws281x.StatusHWNotSupported }

// Fini implements ws281x.Driver.
func (d *Driver) Fini() error { return nil }
