// Package pixbuf implements the byte layout of the rpi_ws281x LED buffer.
//
// The native driver allocates each channel buffer as an array of 32-bit
// machine words, one per LED, each holding a packed 0x00RRGGBB color. All
// offset arithmetic on such a buffer lives in this package so that callers
// never index the raw bytes themselves.
package pixbuf

import (
	"encoding/binary"
	"fmt"
)

// Stride is the number of bytes each LED occupies in the buffer.
const Stride = 4

// ColorMask masks the red, green and blue bytes of a packed color. The top
// byte is reserved and always stored as zero.
const ColorMask uint32 = 0x00FFFFFF

// Codec converts packed colors to and from their buffer representation.
type Codec struct {
	// Order is the byte order of the 32-bit words in the buffer.
	Order binary.ByteOrder
}

// Native is the codec for buffers shared with the native driver, which
// stores its words in host byte order. On little-endian hosts a color is
// laid out as [B, G, R, A].
var Native = Codec{Order: binary.NativeEndian}

// Encode returns the buffer bytes for the given packed color. The reserved
// top byte is written as zero.
func (c Codec) Encode(color uint32) [Stride]byte {
	var b [Stride]byte
	c.Order.PutUint32(b[:], color&ColorMask)
	return b
}

// Decode returns the packed color stored in the given buffer bytes. The
// reserved top byte is ignored, so the result is always 0x00RRGGBB.
func (c Codec) Decode(b [Stride]byte) uint32 {
	return c.Order.Uint32(b[:]) & ColorMask
}

// EncodeAll encodes colors into a new buffer.
func (c Codec) EncodeAll(colors []uint32) []byte {
	buf := make([]byte, len(colors)*Stride)
	for i, color := range colors {
		c.put(buf, i, color)
	}
	return buf
}

// DecodeAll decodes every pixel in buf. It returns a *LengthError if buf
// does not hold a whole number of pixels.
func (c Codec) DecodeAll(buf []byte) ([]uint32, error) {
	if len(buf)%Stride != 0 {
		return nil, &LengthError{Length: len(buf), Capacity: len(buf) - len(buf)%Stride, Stride: Stride}
	}
	colors := make([]uint32, len(buf)/Stride)
	for i := range colors {
		colors[i] = c.get(buf, i)
	}
	return colors, nil
}

// Get returns the color of pixel n in buf.
func (c Codec) Get(buf []byte, n int) (uint32, error) {
	if err := checkIndex(buf, n); err != nil {
		return 0, err
	}
	return c.get(buf, n), nil
}

// Put stores the color of pixel n in buf.
func (c Codec) Put(buf []byte, n int, color uint32) error {
	if err := checkIndex(buf, n); err != nil {
		return err
	}
	c.put(buf, n, color)
	return nil
}

// PutAll stores colors at the start of buf. Pixels past len(colors) are left
// untouched. Nothing is written if colors does not fit.
func (c Codec) PutAll(buf []byte, colors []uint32) error {
	if n := Len(buf); len(colors) > n {
		return &LengthError{Length: len(colors), Capacity: n}
	}
	for i, color := range colors {
		c.put(buf, i, color)
	}
	return nil
}

func (c Codec) get(buf []byte, n int) uint32 {
	return c.Decode([Stride]byte(buf[n*Stride : (n+1)*Stride]))
}

func (c Codec) put(buf []byte, n int, color uint32) {
	b := c.Encode(color)
	copy(buf[n*Stride:], b[:])
}

// Encode encodes a color using the Native codec.
func Encode(color uint32) [Stride]byte { return Native.Encode(color) }

// Decode decodes a color using the Native codec.
func Decode(b [Stride]byte) uint32 { return Native.Decode(b) }

// EncodeAll encodes colors using the Native codec.
func EncodeAll(colors []uint32) []byte { return Native.EncodeAll(colors) }

// DecodeAll decodes buf using the Native codec.
func DecodeAll(buf []byte) ([]uint32, error) { return Native.DecodeAll(buf) }

// Get reads pixel n of a native buffer.
func Get(buf []byte, n int) (uint32, error) { return Native.Get(buf, n) }

// Put writes pixel n of a native buffer.
func Put(buf []byte, n int, color uint32) error { return Native.Put(buf, n, color) }

// PutAll writes colors to the start of a native buffer.
func PutAll(buf []byte, colors []uint32) error { return Native.PutAll(buf, colors) }

// Copy copies raw buffer bytes to the start of buf. raw must hold a whole
// number of pixels and must fit in buf; otherwise nothing is written.
func Copy(buf, raw []byte) error {
	if len(raw) > len(buf) || len(raw)%Stride != 0 {
		return &LengthError{Length: len(raw), Capacity: len(buf), Stride: Stride}
	}
	copy(buf, raw)
	return nil
}

// Len returns the number of pixels held by buf.
func Len(buf []byte) int {
	return len(buf) / Stride
}

// Make allocates a zeroed (all black) buffer for count pixels.
func Make(count int) []byte {
	if count <= 0 {
		return nil
	}
	return make([]byte, count*Stride)
}

// AppendRGB appends the pixels of a native buffer to dst as 3-byte R, G, B
// triples, scaled by brightness the same way the native driver does it.
func AppendRGB(dst, buf []byte, brightness uint8) []byte {
	scale := uint32(brightness) + 1
	for i, n := 0, Len(buf); i < n; i++ {
		c := Native.get(buf, i)
		dst = append(dst,
			byte((((c>>16)&0xFF)*scale)>>8),
			byte((((c>>8)&0xFF)*scale)>>8),
			byte(((c&0xFF)*scale)>>8),
		)
	}
	return dst
}

func checkIndex(buf []byte, n int) error {
	if bound := Len(buf); n < 0 || n >= bound {
		return &IndexError{Index: n, Bound: bound}
	}
	return nil
}

// IndexError is returned when a pixel index is outside [0, Bound).
type IndexError struct {
	Index int
	Bound int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("pixel index %d out of range [0, %d)", e.Index, e.Bound)
}

// LengthError is returned when an input does not fit a buffer.
type LengthError struct {
	// Length is the length of the rejected input.
	Length int
	// Capacity is the largest length that would have been accepted.
	Capacity int
	// Stride is non-zero when the input also had to be a multiple of it.
	Stride int
}

func (e *LengthError) Error() string {
	if e.Stride > 0 && e.Length%e.Stride != 0 {
		return fmt.Sprintf("length %d is not a multiple of %d", e.Length, e.Stride)
	}
	return fmt.Sprintf("length %d exceeds capacity %d", e.Length, e.Capacity)
}
