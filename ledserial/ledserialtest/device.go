// Package ledserialtest provides an emulated LED controller that speaks the
// ledserial protocol, for testing hosts without hardware.
package ledserialtest

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"libdb.so/ws281x/ledserial"
)

// Device stores the state of an emulated controller. It behaves like the
// firmware: every handled packet is acknowledged and failures are reported
// with an ErrorPacket.
type Device struct {
	// Intercept, if set, is called with every packet before it is handled.
	// If it returns true, replies are sent instead and the packet is not
	// handled.
	Intercept func(p ledserial.IncomingPacket) (replies []ledserial.OutgoingPacket, ok bool)
	// Verbose sends a LogPacket for every received packet.
	Verbose bool

	rw io.ReadWriter

	mu      sync.Mutex
	packets []ledserial.IncomingPacket
	pix     []byte
	invert  bool
}

// NewDevice creates a new device talking over rw.
func NewDevice(rw io.ReadWriter) *Device {
	return &Device{rw: rw}
}

// Run handles packets until reading from the connection fails and returns
// that error. Packets with a bad checksum are reported and skipped.
func (d *Device) Run() error {
	for {
		d.mu.Lock()
		ctx := ledserial.ReadContext{NumLEDs: uint16(len(d.pix) / 3)}
		d.mu.Unlock()

		p, err := ledserial.ReadIncomingPacket(d.rw, ctx)
		if err != nil {
			if errors.Is(err, ledserial.ErrChecksumMismatch) {
				if err := d.logError(err); err != nil {
					return err
				}
				continue
			}
			return err
		}

		d.mu.Lock()
		d.packets = append(d.packets, p)
		d.mu.Unlock()

		if d.Verbose {
			if err := d.send(ledserial.LogPacket{Message: fmt.Sprintf("received packet: %s", p.Type())}); err != nil {
				return err
			}
		}

		if d.Intercept != nil {
			if replies, ok := d.Intercept(p); ok {
				for _, reply := range replies {
					if err := d.send(reply); err != nil {
						return err
					}
				}
				continue
			}
		}

		if err := d.handlePacket(p); err != nil {
			if err := d.logError(err); err != nil {
				return err
			}
			continue
		}

		if err := d.send(ledserial.AckPacket{IncomingPacketType: p.Type()}); err != nil {
			return err
		}
	}
}

// Packets returns every packet received so far.
func (d *Device) Packets() []ledserial.IncomingPacket {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]ledserial.IncomingPacket(nil), d.packets...)
}

// Pixels returns the RGB bytes currently shown on the emulated strip.
func (d *Device) Pixels() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]byte(nil), d.pix...)
}

// Inverted returns true if the host asked for an inverted signal.
func (d *Device) Inverted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.invert
}

func (d *Device) handlePacket(p ledserial.IncomingPacket) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch p := p.(type) {
	case ledserial.InitializePacket:
		if p.NumLEDs < 1 {
			return fmt.Errorf("invalid number of LEDs: %d", p.NumLEDs)
		}
		d.pix = make([]byte, 3*int(p.NumLEDs))
		d.invert = p.Invert

	case ledserial.ClearPacket:
		if d.pix == nil {
			return errors.New("device not initialized")
		}
		clear(d.pix)

	case ledserial.SetPacket:
		if d.pix == nil {
			return errors.New("device not initialized")
		}
		copy(d.pix, p.Pix)

	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	return nil
}

func (d *Device) logError(err error) error {
	return d.send(ledserial.ErrorPacket{Message: err.Error()})
}

func (d *Device) send(p ledserial.OutgoingPacket) error {
	return ledserial.WriteOutgoingPacket(d.rw, p)
}
