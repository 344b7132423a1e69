// Package serialstrip implements a ws281x.Driver that forwards the LED buffer
// to a microcontroller over a serial port using the ledserial protocol.
package serialstrip

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/ws281x"
	"libdb.so/ws281x/ledserial"
	"libdb.so/ws281x/pixbuf"
)

const (
	// DefaultBaud is the baud rate used when none is configured.
	DefaultBaud = 115200
	// DefaultTimeout is how long the controller may take to acknowledge a
	// packet when no timeout is configured.
	DefaultTimeout = time.Second
)

// Driver drives a single strip attached to a serial controller. Only
// channel 0 is supported.
type Driver struct {
	open    func() (io.ReadWriteCloser, error)
	timeout time.Duration
	logger  *slog.Logger

	port    io.ReadWriteCloser
	packets chan ledserial.OutgoingPacket
	ctx     context.Context
	cancel  context.CancelFunc
	errg    *errgroup.Group

	leds    []byte
	pix     []byte
	pending bool
	// stale counts packets whose reply timed out. Their late replies are
	// discarded before the next packet is sent.
	stale int
}

var _ ws281x.Driver = (*Driver)(nil)

// New creates a driver that opens the serial device described by cfg on
// Init.
func New(cfg ws281x.SerialConfig, logger *slog.Logger) *Driver {
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}

	d := newDriver(time.Duration(cfg.Timeout), logger)
	d.open = func() (io.ReadWriteCloser, error) {
		port, err := serial.Open(cfg.Device, &serial.Mode{
			BaudRate: baud,
		})
		if err != nil {
			return nil, err
		}
		if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
			port.Close()
			return nil, errors.Wrap(err, "failed to reset read timeout")
		}
		return port, nil
	}
	return d
}

// NewPort creates a driver that talks to the controller over an already
// opened connection. The driver closes port in Fini.
func NewPort(port io.ReadWriteCloser, timeout time.Duration, logger *slog.Logger) *Driver {
	d := newDriver(timeout, logger)
	d.open = func() (io.ReadWriteCloser, error) { return port, nil }
	return d
}

func newDriver(timeout time.Duration, logger *slog.Logger) *Driver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		timeout: timeout,
		logger:  logger,
	}
}

// Init implements ws281x.Driver.
func (d *Driver) Init(cfg *ws281x.DeviceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Channels[1].Active() {
		return errors.Wrap(ws281x.StatusHWNotSupported, "serial controller drives a single channel")
	}

	ch := cfg.Channels[0]
	if ch.LEDCount > math.MaxUint16 {
		return errors.Wrapf(ws281x.StatusGeneric, "%d LEDs exceed the protocol limit", ch.LEDCount)
	}

	port, err := d.open()
	if err != nil {
		return errors.Wrap(err, "failed to open serial port")
	}

	ctx, cancel := context.WithCancel(context.Background())
	errg, ctx := errgroup.WithContext(ctx)

	d.port = port
	d.ctx = ctx
	d.cancel = cancel
	d.errg = errg
	d.packets = make(chan ledserial.OutgoingPacket)

	errg.Go(func() error {
		return d.readPackets(ctx, port)
	})

	d.logger.Debug("sending initialize packet", "leds", ch.LEDCount)

	err = d.send(ledserial.InitializePacket{
		NumLEDs: uint16(ch.LEDCount),
		Invert:  ch.Invert,
	})
	if err == nil {
		err = d.awaitAck(ledserial.TypeInitializePacket)
	}
	if err != nil {
		d.shutdown()
		return errors.Wrap(err, "failed to initialize controller")
	}

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

// Render implements ws281x.Driver. It waits for the previous frame to be
// acknowledged before sending the next one.
func (d *Driver) Render(cfg *ws281x.DeviceConfig) error {
	if d.port == nil {
		return errors.Wrap(ws281x.StatusGeneric, "controller not initialized")
	}
	if err := d.Wait(); err != nil {
		return err
	}

	d.pix = pixbuf.AppendRGB(d.pix[:0], d.leds, cfg.Channels[0].Brightness)
	if err := d.send(ledserial.SetPacket{Pix: d.pix}); err != nil {
		return err
	}

	d.pending = true
	return nil
}

// Wait implements ws281x.Driver. It waits for the controller to acknowledge
// the last frame.
func (d *Driver) Wait() error {
	if !d.pending {
		return nil
	}
	d.pending = false
	return d.awaitAck(ledserial.TypeSetPacket)
}

// Fini implements ws281x.Driver. It turns the strip off and closes the
// serial port.
func (d *Driver) Fini() error {
	if d.port == nil {
		return nil
	}

	if err := d.Wait(); err != nil {
		d.logger.Warn("last frame was not acknowledged", "error", err)
	}

	err := d.send(ledserial.ClearPacket{})
	if err == nil {
		err = d.awaitAck(ledserial.TypeClearPacket)
	}
	if err != nil {
		d.logger.Warn("failed to clear strip", "error", err)
	}

	return d.shutdown()
}

func (d *Driver) shutdown() error {
	d.logger.Debug("closing serial port")

	d.cancel()
	err := d.port.Close()
	if rerr := d.errg.Wait(); rerr != nil && !errors.Is(rerr, context.Canceled) {
		d.logger.Debug("packet reader stopped", "error", rerr)
	}

	d.port = nil
	d.leds = nil
	d.pending = false
	d.stale = 0

	return errors.Wrap(err, "failed to close serial port")
}

func (d *Driver) readPackets(ctx context.Context, port io.Reader) error {
	for ctx.Err() == nil {
		p, err := ledserial.ReadOutgoingPacket(port)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "failed to read packet")
		}

		d.logger.Debug(
			"received packet from controller",
			"type", p.Type())

		if p, ok := p.(ledserial.LogPacket); ok {
			d.logger.Info(
				"received log packet from controller",
				"message", p.Message)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case d.packets <- p:
			// ok
		}
	}

	return ctx.Err()
}

func (d *Driver) awaitAck(t ledserial.IncomingPacketType) error {
	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	for {
		select {
		case p := <-d.packets:
			switch p := p.(type) {
			case ledserial.AckPacket:
				if p.IncomingPacketType == t {
					return nil
				}
				d.logger.Debug(
					"ignoring ack for another packet",
					"acked_for", p.IncomingPacketType,
					"waiting_for", t)

			case ledserial.ErrorPacket:
				return errors.Wrapf(ws281x.StatusGeneric, "controller reported error: %s", p.Message)

			case ledserial.PanicPacket:
				return errors.Wrap(ws281x.StatusGeneric, "controller panicked")

			default:
				return fmt.Errorf("received unknown packet from controller: %s", p.Type())
			}

		case <-d.ctx.Done():
			err := d.errg.Wait()
			if err == nil {
				err = d.ctx.Err()
			}
			return errors.Wrap(err, "lost connection to controller")

		case <-timer.C:
			d.stale++
			return errors.Wrapf(ws281x.StatusGeneric, "no ack for %s packet after %v", t, d.timeout)
		}
	}
}

// resync discards the late replies to packets that timed out, so that they
// are not taken as the reply to the next packet. Replies that do not show up
// within the timeout are assumed lost.
func (d *Driver) resync() {
	if d.stale == 0 {
		return
	}

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	for d.stale > 0 {
		select {
		case p := <-d.packets:
			d.logger.Debug(
				"discarding late reply",
				"type", p.Type())
			d.stale--

		case <-d.ctx.Done():
			d.stale = 0

		case <-timer.C:
			d.logger.Warn(
				"replies to timed out packets never arrived",
				"missing", d.stale)
			d.stale = 0
		}
	}
}

// drain drops packets that arrived while no reply was expected.
func (d *Driver) drain() {
	for {
		select {
		case p := <-d.packets:
			d.logger.Warn(
				"dropping unsolicited packet from controller",
				"type", p.Type())
		default:
			return
		}
	}
}

func (d *Driver) send(p ledserial.IncomingPacket) error {
	d.resync()
	d.drain()

	d.logger.Debug(
		"writing packet",
		"type", p.Type())

	if err := ledserial.WriteIncomingPacket(d.port, p); err != nil {
		return errors.Wrapf(err, "failed to write %s packet", p.Type())
	}
	return nil
}
