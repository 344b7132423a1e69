// Package spistrip implements a ws281x.Driver that bit-bangs the NRZ signal
// of WS281x LEDs over an SPI port using periph.io.
package spistrip

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"libdb.so/ws281x"
	"libdb.so/ws281x/pixbuf"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// Driver drives a single strip wired to the MOSI pin of an SPI port. Only
// channel 0 is supported and the output cannot be inverted.
type Driver struct {
	open   func() (spi.PortCloser, error)
	logger *slog.Logger

	port spi.PortCloser
	dev  *nrzled.Dev
	leds []byte
	pix  []byte
}

var _ ws281x.Driver = (*Driver)(nil)

// New creates a driver that opens the SPI port described by cfg on Init.
func New(cfg ws281x.SPIConfig, logger *slog.Logger) *Driver {
	d := newDriver(logger)
	d.open = func() (spi.PortCloser, error) {
		if _, err := host.Init(); err != nil {
			return nil, errors.Wrap(err, "failed to initialize periph host")
		}
		return spireg.Open(cfg.Port)
	}
	return d
}

// NewPort creates a driver that writes to an already opened port. The
// driver closes port in Fini.
func NewPort(port spi.PortCloser, logger *slog.Logger) *Driver {
	d := newDriver(logger)
	d.open = func() (spi.PortCloser, error) { return port, nil }
	return d
}

func newDriver(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{logger: logger}
}

// Frequency returns the SPI clock needed to produce a signal of the given
// LED frequency. Every LED bit takes three SPI bits.
func Frequency(hz uint32) physic.Frequency {
	return physic.Frequency(3*int64(hz))*physic.Hertz + 100*physic.KiloHertz
}

// Init implements ws281x.Driver.
func (d *Driver) Init(cfg *ws281x.DeviceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Channels[1].Active() {
		return errors.Wrap(ws281x.StatusHWNotSupported, "SPI drives a single channel")
	}

	ch := cfg.Channels[0]
	if ch.Invert {
		d.logger.Warn("SPI output cannot be inverted, ignoring invert")
	}

	port, err := d.open()
	if err != nil {
		return fmt.Errorf("%w: %w", ws281x.StatusSPISetup, err)
	}

	freq := Frequency(cfg.Frequency)
	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: ch.LEDCount,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		port.Close()
		return fmt.Errorf("%w: %w", ws281x.StatusSPISetup, err)
	}

	d.logger.Debug(
		"opened SPI strip",
		"device", dev.String(),
		"freq", freq,
		"leds", ch.LEDCount)

	d.port = port
	d.dev = dev
	d.leds = pixbuf.Make(ch.LEDCount)
	d.pix = make([]byte, 0, 3*ch.LEDCount)
	return nil
}

// LEDs implements ws281x.Driver.
func (d *Driver) LEDs(channel int) []byte {
	if channel != 0 {
		return nil
	}
	return d.leds
}

// Render implements ws281x.Driver. The transfer is synchronous.
func (d *Driver) Render(cfg *ws281x.DeviceConfig) error {
	if d.dev == nil {
		return errors.Wrap(ws281x.StatusGeneric, "SPI strip not initialized")
	}

	d.pix = pixbuf.AppendRGB(d.pix[:0], d.leds, cfg.Channels[0].Brightness)
	if _, err := d.dev.Write(d.pix); err != nil {
		return fmt.Errorf("%w: %w", ws281x.StatusSPITransfer, err)
	}
	return nil
}

// Wait implements ws281x.Driver. Render already blocks until the transfer
// is done, so there is nothing to wait for.
func (d *Driver) Wait() error {
	return nil
}

// Fini implements ws281x.Driver. The strip is turned off before the port is
// closed.
func (d *Driver) Fini() error {
	if d.dev == nil {
		return nil
	}

	if err := d.dev.Halt(); err != nil {
		d.logger.Warn("failed to turn off strip", "error", err)
	}

	err := d.port.Close()

	d.dev = nil
	d.port = nil
	d.leds = nil

	return errors.Wrap(err, "failed to close SPI port")
}
