package ws281x

import (
	"fmt"

	"github.com/pkg/errors"
	"libdb.so/ws281x/pixbuf"
)

// ErrUseAfterDispose is returned by every Client operation that touches the
// device after Close.
var ErrUseAfterDispose = errors.New("ws281x: client used after Close")

// IndexError is returned when a pixel index is out of range. No pixel is
// written when it is returned.
type IndexError = pixbuf.IndexError

// LengthError is returned when a bulk input does not fit the channel buffer.
// No pixel is written when it is returned.
type LengthError = pixbuf.LengthError

// InitError is returned by New when the driver fails to initialize the
// device. No client exists afterwards.
type InitError struct {
	Code Status
	Err  error
}

func (e *InitError) Error() string { return opError("ws2811_init", e.Code, e.Err) }
func (e *InitError) Unwrap() error { return e.Err }

// RenderError is returned by Show when the driver fails to transmit. The
// buffer is left as it was and Show may be called again.
type RenderError struct {
	Code Status
	Err  error
}

func (e *RenderError) Error() string { return opError("ws2811_render", e.Code, e.Err) }
func (e *RenderError) Unwrap() error { return e.Err }

// WaitError is returned by Wait when waiting for the last transmission
// fails.
type WaitError struct {
	Code Status
	Err  error
}

func (e *WaitError) Error() string { return opError("ws2811_wait", e.Code, e.Err) }
func (e *WaitError) Unwrap() error { return e.Err }

func opError(op string, code Status, err error) string {
	if err == nil || err == code {
		return fmt.Sprintf("%s failed - returned %d (%s)", op, int(code), code)
	}
	return fmt.Sprintf("%s failed - returned %d: %v", op, int(code), err)
}

// statusOf extracts the native status carried by err. Errors that carry no
// status map to StatusGeneric.
func statusOf(err error) Status {
	var st Status
	if errors.As(err, &st) && st != StatusSuccess {
		return st
	}
	return StatusGeneric
}
