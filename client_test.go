package ws281x_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/ws281x"
	"libdb.so/ws281x/driver/fake"
	"libdb.so/ws281x/pixbuf"
)

func newClient(t *testing.T, count int) (*ws281x.Client, *fake.Driver) {
	t.Helper()

	cfg := ws281x.NewDeviceConfig(count, ws281x.DefaultGPIOPin)
	drv := fake.New()

	c, err := ws281x.New(&cfg, drv, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c, drv
}

func TestClientStartsBlack(t *testing.T) {
	c, drv := newClient(t, 8)

	assert.Equal(t, 1, drv.Inits)
	assert.Equal(t, 8, c.PixelCount())
	assert.Equal(t, ws281x.DefaultGPIOPin, c.GPIOPin())
	assert.Equal(t, ws281x.DefaultBrightness, c.Brightness())

	pixels, err := c.Pixels()
	require.NoError(t, err)
	assert.Equal(t, make([]uint32, 8), pixels)
}

func TestClientSetPixel(t *testing.T) {
	c, _ := newClient(t, 2)

	require.NoError(t, c.SetPixelRGB(0, 255, 0, 0))
	color, err := c.Pixel(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00FF0000), color)

	require.NoError(t, c.SetPixel(1, 0xAB0000FF))
	color, err = c.Pixel(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x000000FF), color, "top byte must read back as zero")
}

func TestClientSetPixels(t *testing.T) {
	c, _ := newClient(t, 2)

	require.NoError(t, c.SetPixels([]uint32{0x00FF0000, 0x0000FF00}))
	pixels, err := c.Pixels()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x00FF0000, 0x0000FF00}, pixels)
}

func TestClientSetPixelsShortLeavesTail(t *testing.T) {
	c, _ := newClient(t, 3)

	require.NoError(t, c.SetPixels([]uint32{1, 2, 3}))
	require.NoError(t, c.SetPixels([]uint32{9}))

	pixels, err := c.Pixels()
	require.NoError(t, err)
	assert.Equal(t, []uint32{9, 2, 3}, pixels)
}

func TestClientBounds(t *testing.T) {
	c, _ := newClient(t, 4)

	for _, n := range []int{-100, -1, 4, 5, 1 << 20} {
		var ierr *ws281x.IndexError

		err := c.SetPixel(n, 0xFFFFFF)
		require.ErrorAs(t, err, &ierr, "SetPixel(%d)", n)
		assert.Equal(t, n, ierr.Index)
		assert.Equal(t, 4, ierr.Bound)

		_, err = c.Pixel(n)
		require.ErrorAs(t, err, &ierr, "Pixel(%d)", n)

		err = c.SetPixelRGB(n, 1, 2, 3)
		require.ErrorAs(t, err, &ierr, "SetPixelRGB(%d)", n)
	}

	pixels, err := c.Pixels()
	require.NoError(t, err)
	assert.Equal(t, make([]uint32, 4), pixels, "out of range writes must not touch the buffer")

	for n := 0; n < 4; n++ {
		assert.NoError(t, c.SetPixel(n, 0x010203))
		_, err := c.Pixel(n)
		assert.NoError(t, err)
	}
}

func TestClientOversizedWrite(t *testing.T) {
	c, _ := newClient(t, 2)
	require.NoError(t, c.SetPixels([]uint32{5, 6}))

	var lerr *ws281x.LengthError

	err := c.SetPixels([]uint32{1, 2, 3})
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 3, lerr.Length)
	assert.Equal(t, 2, lerr.Capacity)

	err = c.SetPixelBytes(make([]byte, 12))
	require.ErrorAs(t, err, &lerr)

	err = c.SetPixelBytes([]byte{1, 2})
	require.ErrorAs(t, err, &lerr)

	pixels, err := c.Pixels()
	require.NoError(t, err)
	assert.Equal(t, []uint32{5, 6}, pixels)
}

func TestClientPixelBytes(t *testing.T) {
	c, _ := newClient(t, 2)

	raw := pixbuf.EncodeAll([]uint32{0x112233, 0x445566})
	require.NoError(t, c.SetPixelBytes(raw))

	got, err := c.PixelBytes()
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got[0] ^= 0xFF
	pixels, err := c.Pixels()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x112233, 0x445566}, pixels, "PixelBytes must return a copy")
}

func TestClientClear(t *testing.T) {
	c, _ := newClient(t, 5)

	require.NoError(t, c.SetPixels([]uint32{1, 2, 3, 4, 5}))
	require.NoError(t, c.Clear())

	pixels, err := c.Pixels()
	require.NoError(t, err)
	assert.Equal(t, make([]uint32, 5), pixels)
}

func TestClientShow(t *testing.T) {
	c, drv := newClient(t, 2)

	require.NoError(t, c.SetPixel(1, 0x00FF00))
	c.SetBrightness(64)
	require.NoError(t, c.Show())
	require.NoError(t, c.Wait())

	assert.Equal(t, 1, drv.Renders)
	assert.Equal(t, 1, drv.Waits)
	assert.Equal(t, []uint32{0, 0x00FF00}, drv.LastFrame(0))
	assert.Equal(t, uint8(64), drv.Brightness[0])
	assert.Equal(t, uint8(64), c.Config().Channels[0].Brightness)
}

func TestClientShowFailure(t *testing.T) {
	c, drv := newClient(t, 2)
	require.NoError(t, c.SetPixel(0, 0xFF))

	drv.RenderStatus = ws281x.StatusSPITransfer

	err := c.Show()
	var rerr *ws281x.RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ws281x.StatusSPITransfer, rerr.Code)
	assert.Contains(t, err.Error(), "ws2811_render failed")

	color, err := c.Pixel(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFF), color, "failed Show must keep the buffer")

	drv.RenderStatus = ws281x.StatusSuccess
	require.NoError(t, c.Show(), "Show must be retryable")
	assert.Equal(t, 2, drv.Renders)
}

func TestClientWaitFailure(t *testing.T) {
	c, drv := newClient(t, 1)
	drv.WaitStatus = ws281x.StatusDMA

	var werr *ws281x.WaitError
	require.ErrorAs(t, c.Wait(), &werr)
	assert.Equal(t, ws281x.StatusDMA, werr.Code)
}

func TestClientInitFailure(t *testing.T) {
	cfg := ws281x.NewDeviceConfig(10, 12)
	drv := fake.New()
	drv.InitStatus = ws281x.StatusIllegalGPIO

	c, err := ws281x.New(&cfg, drv, nil)
	assert.Nil(t, c)

	var ierr *ws281x.InitError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, ws281x.StatusIllegalGPIO, ierr.Code)
	assert.Equal(t, 0, drv.Finis, "failed init must not be finalized")

	var st ws281x.Status
	require.True(t, errors.As(err, &st))
	assert.Equal(t, ws281x.StatusIllegalGPIO, st)
}

func TestClientInitFailureWithoutStatus(t *testing.T) {
	cfg := ws281x.NewDeviceConfig(0, 18)

	_, err := ws281x.New(&cfg, fake.New(), nil)

	var ierr *ws281x.InitError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, ws281x.StatusGeneric, ierr.Code)
	assert.Contains(t, err.Error(), "no LEDs configured")
}

func TestClientUseAfterClose(t *testing.T) {
	cfg := ws281x.NewDeviceConfig(3, 18)
	drv := fake.New()

	c, err := ws281x.New(&cfg, drv, nil)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	ops := map[string]func() error{
		"Pixel":         func() error { _, err := c.Pixel(0); return err },
		"SetPixel":      func() error { return c.SetPixel(0, 1) },
		"SetPixelRGB":   func() error { return c.SetPixelRGB(0, 1, 2, 3) },
		"Pixels":        func() error { _, err := c.Pixels(); return err },
		"SetPixels":     func() error { return c.SetPixels([]uint32{1}) },
		"PixelBytes":    func() error { _, err := c.PixelBytes(); return err },
		"SetPixelBytes": func() error { return c.SetPixelBytes(make([]byte, 4)) },
		"Clear":         func() error { return c.Clear() },
		"Show":          func() error { return c.Show() },
		"Wait":          func() error { return c.Wait() },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(), ws281x.ErrUseAfterDispose)
		})
	}

	assert.Equal(t, 0, drv.Renders)
	assert.Equal(t, 0, drv.Waits)
}

func TestClientCloseTwice(t *testing.T) {
	cfg := ws281x.NewDeviceConfig(3, 18)
	drv := fake.New()

	c, err := ws281x.New(&cfg, drv, nil)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, drv.Finis)
}

func TestClientSecondChannel(t *testing.T) {
	cfg := ws281x.NewDeviceConfig(2, 18)
	cfg.Channels[1] = ws281x.ChannelConfig{GPIOPin: 13, LEDCount: 3, Brightness: 10}
	drv := fake.New()

	c, err := ws281x.New(&cfg, drv, nil)
	require.NoError(t, err)
	defer c.Close()

	ch, err := c.Channel(1)
	require.NoError(t, err)
	assert.Equal(t, 1, ch.Index())
	assert.Equal(t, 3, ch.PixelCount())
	assert.Equal(t, 13, ch.GPIOPin())
	assert.Equal(t, uint8(10), ch.Brightness())

	require.NoError(t, ch.SetPixel(2, 0x0000FF))
	require.NoError(t, c.Show())
	assert.Equal(t, []uint32{0, 0, 0x0000FF}, drv.LastFrame(1))
	assert.Equal(t, []uint32{0, 0}, drv.LastFrame(0))

	var ierr *ws281x.IndexError
	_, err = c.Channel(2)
	require.ErrorAs(t, err, &ierr)
	_, err = c.Channel(-1)
	require.ErrorAs(t, err, &ierr)
}

func TestWithReleasesOnError(t *testing.T) {
	cfg := ws281x.NewDeviceConfig(3, 18)
	drv := fake.New()
	boom := errors.New("boom")

	var kept *ws281x.Client
	err := ws281x.With(&cfg, drv, nil, func(c *ws281x.Client) error {
		kept = c
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, drv.Finis)
	assert.ErrorIs(t, kept.SetPixel(0, 1), ws281x.ErrUseAfterDispose)
}

func TestWithReleasesOnPanic(t *testing.T) {
	cfg := ws281x.NewDeviceConfig(3, 18)
	drv := fake.New()

	assert.Panics(t, func() {
		ws281x.With(&cfg, drv, nil, func(c *ws281x.Client) error {
			panic("boom")
		})
	})
	assert.Equal(t, 1, drv.Finis)
}

func TestWithInitFailure(t *testing.T) {
	cfg := ws281x.NewDeviceConfig(3, 18)
	drv := fake.New()
	drv.InitStatus = ws281x.StatusMmap

	called := false
	err := ws281x.With(&cfg, drv, nil, func(c *ws281x.Client) error {
		called = true
		return nil
	})

	var ierr *ws281x.InitError
	require.ErrorAs(t, err, &ierr)
	assert.False(t, called)
	assert.Equal(t, 0, drv.Finis)
}
