//go:build linux && cgo

package ws2811

/*
#cgo LDFLAGS: -lws2811
#include <stdlib.h>
#include <stdint.h>
#include <ws2811/ws2811.h>
*/
import "C"
import (
	"unsafe"

	"github.com/pkg/errors"
	"libdb.so/ws281x"
)

// Driver binds to libws2811. The LED buffers it hands out are owned by the
// library and become invalid after Fini.
type Driver struct {
	dev *C.ws2811_t
}

var _ ws281x.Driver = (*Driver)(nil)

// New creates a native driver.
func New() *Driver {
	return &Driver{}
}

// Init implements ws281x.Driver.
func (d *Driver) Init(cfg *ws281x.DeviceConfig) error {
	if d.dev != nil {
		return errors.New("device already initialized")
	}

	dev := (*C.ws2811_t)(C.calloc(1, C.size_t(unsafe.Sizeof(C.ws2811_t{}))))
	if dev == nil {
		return ws281x.StatusOutOfMemory
	}

	dev.freq = C.uint32_t(cfg.Frequency)
	dev.dmanum = C.int(cfg.DMA)
	for i, ch := range cfg.Channels {
		c := &dev.channel[i]
		c.gpionum = C.int(ch.GPIOPin)
		c.count = C.int(ch.LEDCount)
		c.invert = cbool(ch.Invert)
		c.brightness = C.uint8_t(ch.Brightness)
		c.strip_type = C.WS2811_STRIP_GRB
	}

	if ret := ws281x.Status(C.ws2811_init(dev)); ret != ws281x.StatusSuccess {
		C.free(unsafe.Pointer(dev))
		return ret
	}

	d.dev = dev
	return nil
}

// LEDs implements ws281x.Driver.
func (d *Driver) LEDs(channel int) []byte {
	if d.dev == nil {
		return nil
	}
	c := &d.dev.channel[channel]
	if c.leds == nil || c.count <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(c.leds)), int(c.count)*4)
}

// Render implements ws281x.Driver.
func (d *Driver) Render(cfg *ws281x.DeviceConfig) error {
	if d.dev == nil {
		return ws281x.StatusGeneric
	}

	for i, ch := range cfg.Channels {
		c := &d.dev.channel[i]
		c.brightness = C.uint8_t(ch.Brightness)
		c.invert = cbool(ch.Invert)
	}

	return status(C.ws2811_render(d.dev))
}

// Wait implements ws281x.Driver.
func (d *Driver) Wait() error {
	if d.dev == nil {
		return ws281x.StatusGeneric
	}
	return status(C.ws2811_wait(d.dev))
}

// Fini implements ws281x.Driver.
func (d *Driver) Fini() error {
	if d.dev == nil {
		return nil
	}

	C.ws2811_fini(d.dev)
	C.free(unsafe.Pointer(d.dev))
	d.dev = nil
	return nil
}

func status(ret C.ws2811_return_t) error {
	if st := ws281x.Status(ret); st != ws281x.StatusSuccess {
		return st
	}
	return nil
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
