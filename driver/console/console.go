// Package console implements a ws281x.Driver that previews the strip in an
// ANSI terminal instead of driving hardware.
package console

import (
	"image"
	"image/color"
	"log/slog"

	"github.com/pkg/errors"
	"libdb.so/ws281x"
	"libdb.so/ws281x/pixbuf"
	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"
)

// Driver prints one line per active channel.
type Driver struct {
	logger *slog.Logger

	screens [ws281x.Channels]display.Drawer
	leds    [ws281x.Channels][]byte
	pix     []byte
}

var _ ws281x.Driver = (*Driver)(nil)

// New creates a console driver.
func New(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{logger: logger}
}

// Init implements ws281x.Driver.
func (d *Driver) Init(cfg *ws281x.DeviceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	for i, ch := range cfg.Channels {
		if !ch.Active() {
			continue
		}
		d.screens[i] = screen.New(ch.LEDCount)
		d.leds[i] = pixbuf.Make(ch.LEDCount)
	}

	d.logger.Debug("previewing strip on console", "leds", cfg.NumLEDs())
	return nil
}

// LEDs implements ws281x.Driver.
func (d *Driver) LEDs(channel int) []byte {
	return d.leds[channel]
}

// Render implements ws281x.Driver.
func (d *Driver) Render(cfg *ws281x.DeviceConfig) error {
	for i, s := range d.screens {
		if s == nil {
			continue
		}

		var img *image.NRGBA
		img, d.pix = Frame(d.pix[:0], d.leds[i], cfg.Channels[i].Brightness)
		if err := s.Draw(s.Bounds(), img, image.Point{}); err != nil {
			return errors.Wrapf(err, "failed to draw channel %d", i)
		}
	}
	return nil
}

// Wait implements ws281x.Driver.
func (d *Driver) Wait() error {
	return nil
}

// Fini implements ws281x.Driver.
func (d *Driver) Fini() error {
	var err error
	for i, s := range d.screens {
		if s == nil {
			continue
		}
		if herr := s.Halt(); herr != nil && err == nil {
			err = errors.Wrapf(herr, "failed to halt channel %d", i)
		}
		d.screens[i] = nil
		d.leds[i] = nil
	}
	return err
}

// Frame renders a channel buffer into a one pixel high image, applying
// brightness. The RGB scratch space is appended to pix and returned for
// reuse.
func Frame(pix, leds []byte, brightness uint8) (*image.NRGBA, []byte) {
	pix = pixbuf.AppendRGB(pix, leds, brightness)

	n := len(pix) / 3
	img := image.NewNRGBA(image.Rect(0, 0, n, 1))
	for x := 0; x < n; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{
			R: pix[3*x],
			G: pix[3*x+1],
			B: pix[3*x+2],
			A: 0xFF,
		})
	}

	return img, pix
}
