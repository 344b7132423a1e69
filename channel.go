package ws281x

import "libdb.so/ws281x/pixbuf"

// Channel is one LED strip of a Client. It is only valid as long as the
// Client is open.
type Channel struct {
	client *Client
	index  int
	leds   []byte
}

// Index returns the hardware index of the channel.
func (ch *Channel) Index() int {
	return ch.index
}

// PixelCount returns the number of LEDs on the channel.
func (ch *Channel) PixelCount() int {
	return ch.config().LEDCount
}

// GPIOPin returns the output pin of the channel.
func (ch *Channel) GPIOPin() int {
	return ch.config().GPIOPin
}

// Brightness returns the channel brightness.
func (ch *Channel) Brightness() uint8 {
	return ch.config().Brightness
}

// SetBrightness sets the channel brightness. It applies from the next Show.
func (ch *Channel) SetBrightness(b uint8) {
	ch.config().Brightness = b
}

// Pixel returns the color of LED n as 0x00RRGGBB.
func (ch *Channel) Pixel(n int) (uint32, error) {
	leds, err := ch.buffer()
	if err != nil {
		return 0, err
	}
	return pixbuf.Get(leds, n)
}

// SetPixel sets the color of LED n. The top byte of color is ignored.
func (ch *Channel) SetPixel(n int, color uint32) error {
	leds, err := ch.buffer()
	if err != nil {
		return err
	}
	return pixbuf.Put(leds, n, color)
}

// SetPixelRGB sets the color of LED n from its components.
func (ch *Channel) SetPixelRGB(n int, r, g, b uint8) error {
	return ch.SetPixel(n, RGB(r, g, b))
}

// Pixels returns the colors of every LED on the channel.
func (ch *Channel) Pixels() ([]uint32, error) {
	leds, err := ch.buffer()
	if err != nil {
		return nil, err
	}
	return pixbuf.DecodeAll(leds)
}

// SetPixels sets the first len(colors) LEDs. The remaining LEDs keep their
// colors. It returns a *LengthError and changes nothing if there are more
// colors than LEDs.
func (ch *Channel) SetPixels(colors []uint32) error {
	leds, err := ch.buffer()
	if err != nil {
		return err
	}
	return pixbuf.PutAll(leds, colors)
}

// PixelBytes returns a copy of the raw channel buffer.
func (ch *Channel) PixelBytes() ([]byte, error) {
	leds, err := ch.buffer()
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), leds...), nil
}

// SetPixelBytes copies raw buffer bytes, in the layout described by package
// pixbuf, to the start of the channel buffer. The remaining LEDs keep their
// colors. It returns a *LengthError and changes nothing if b is longer than
// the buffer or does not hold whole pixels.
func (ch *Channel) SetPixelBytes(b []byte) error {
	leds, err := ch.buffer()
	if err != nil {
		return err
	}
	return pixbuf.Copy(leds, b)
}

// Clear turns every LED on the channel off.
func (ch *Channel) Clear() error {
	return ch.SetPixelBytes(make([]byte, ch.PixelCount()*pixbuf.Stride))
}

func (ch *Channel) buffer() ([]byte, error) {
	if ch.client.disposed {
		return nil, ErrUseAfterDispose
	}
	return ch.leds, nil
}

func (ch *Channel) config() *ChannelConfig {
	return &ch.client.cfg.Channels[ch.index]
}
