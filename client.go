// Package ws281x drives WS281x LED strips through the rpi_ws281x PWM/DMA
// driver or a compatible backend.
//
// A Client owns the device from New until Close:
//
//	cfg := ws281x.NewDeviceConfig(64, 18)
//	err := ws281x.With(&cfg, ws2811.New(), nil, func(c *ws281x.Client) error {
//		for i := 0; i < c.PixelCount(); i++ {
//			if err := c.SetPixel(i, ws281x.Wheel(uint8(i))); err != nil {
//				return err
//			}
//		}
//		return c.Show()
//	})
package ws281x

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"libdb.so/ws281x/pixbuf"
)

// Client drives the channels of one device. The zero value is not usable;
// create one with New.
//
// A Client is not safe for concurrent use. Callers that share one between
// goroutines must serialize access themselves.
type Client struct {
	cfg      DeviceConfig
	drv      Driver
	logger   *slog.Logger
	channels [Channels]Channel
	disposed bool
}

// New initializes the device described by cfg through drv. If the driver
// fails, New returns an *InitError and there is nothing to close. The
// configuration is copied; later changes to cfg have no effect.
//
// If logger is nil, slog.Default() is used.
func New(cfg *DeviceConfig, drv Driver, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:    *cfg,
		drv:    drv,
		logger: logger,
	}

	if err := drv.Init(&c.cfg); err != nil {
		return nil, &InitError{Code: statusOf(err), Err: err}
	}

	for i := range c.channels {
		leds := drv.LEDs(i)
		if want := c.cfg.Channels[i].LEDCount * pixbuf.Stride; len(leds) != want {
			err := fmt.Errorf("channel %d: driver buffer has %d bytes, want %d", i, len(leds), want)
			if ferr := drv.Fini(); ferr != nil {
				logger.Warn("failed to release device after bad init", "error", ferr)
			}
			return nil, &InitError{Code: StatusGeneric, Err: err}
		}
		c.channels[i] = Channel{client: c, index: i, leds: leds}
	}

	logger.Debug(
		"initialized device",
		"frequency", c.cfg.Frequency,
		"dma", c.cfg.DMA,
		"leds", c.cfg.NumLEDs())

	return c, nil
}

// With creates a Client, calls f with it and closes it again, even if f
// returns an error or panics. The error of f takes precedence over an error
// from Close.
func With(cfg *DeviceConfig, drv Driver, logger *slog.Logger, f func(*Client) error) (err error) {
	c, err := New(cfg, drv, logger)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return f(c)
}

// Config returns a copy of the configuration the device runs with,
// including brightness changes.
func (c *Client) Config() DeviceConfig {
	return c.cfg
}

// Channel returns the channel with the given index.
func (c *Client) Channel(i int) (*Channel, error) {
	if i < 0 || i >= Channels {
		return nil, &IndexError{Index: i, Bound: Channels}
	}
	return &c.channels[i], nil
}

// Show sends the buffers of all channels to the strips. It does not wait for
// the transmission to finish. On failure the buffers are left untouched and
// Show may be retried.
func (c *Client) Show() error {
	if c.disposed {
		return ErrUseAfterDispose
	}

	if err := c.drv.Render(&c.cfg); err != nil {
		code := statusOf(err)
		c.logger.Warn(
			"failed to render",
			"status", int(code),
			"error", err)
		return &RenderError{Code: code, Err: err}
	}

	return nil
}

// Wait blocks until the last transmission started by Show has finished.
func (c *Client) Wait() error {
	if c.disposed {
		return ErrUseAfterDispose
	}

	if err := c.drv.Wait(); err != nil {
		return &WaitError{Code: statusOf(err), Err: err}
	}

	return nil
}

// Close releases the device. Every later operation fails with
// ErrUseAfterDispose. Calling Close again does nothing. The client counts as
// closed even if the driver reports an error.
func (c *Client) Close() error {
	if c.disposed {
		return nil
	}

	c.disposed = true
	for i := range c.channels {
		c.channels[i].leds = nil
	}

	if err := c.drv.Fini(); err != nil {
		return errors.Wrap(err, "failed to release device")
	}

	c.logger.Debug("released device")
	return nil
}

// PixelCount returns the number of LEDs on channel 0.
func (c *Client) PixelCount() int { return c.channels[0].PixelCount() }

// GPIOPin returns the pin of channel 0.
func (c *Client) GPIOPin() int { return c.channels[0].GPIOPin() }

// Brightness returns the brightness of channel 0.
func (c *Client) Brightness() uint8 { return c.channels[0].Brightness() }

// SetBrightness sets the brightness of channel 0. It applies from the next
// Show.
func (c *Client) SetBrightness(b uint8) { c.channels[0].SetBrightness(b) }

// Pixel returns the color of LED n on channel 0.
func (c *Client) Pixel(n int) (uint32, error) { return c.channels[0].Pixel(n) }

// SetPixel sets the color of LED n on channel 0.
func (c *Client) SetPixel(n int, color uint32) error { return c.channels[0].SetPixel(n, color) }

// SetPixelRGB sets the color of LED n on channel 0.
func (c *Client) SetPixelRGB(n int, r, g, b uint8) error {
	return c.channels[0].SetPixelRGB(n, r, g, b)
}

// Pixels returns the colors of every LED on channel 0.
func (c *Client) Pixels() ([]uint32, error) { return c.channels[0].Pixels() }

// SetPixels sets the colors of the first len(colors) LEDs on channel 0.
func (c *Client) SetPixels(colors []uint32) error { return c.channels[0].SetPixels(colors) }

// PixelBytes returns a copy of the raw buffer of channel 0.
func (c *Client) PixelBytes() ([]byte, error) { return c.channels[0].PixelBytes() }

// SetPixelBytes copies raw buffer bytes to the start of channel 0.
func (c *Client) SetPixelBytes(b []byte) error { return c.channels[0].SetPixelBytes(b) }

// Clear turns every LED on channel 0 off.
func (c *Client) Clear() error { return c.channels[0].Clear() }
