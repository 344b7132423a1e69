package spistrip

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/ws281x"
	"libdb.so/ws281x/pixbuf"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestFrequency(t *testing.T) {
	assert.Equal(t, 2500*physic.KiloHertz, Frequency(800000))
	assert.Equal(t, 1300*physic.KiloHertz, Frequency(400000))
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer

	d := NewPort(spitest.NewRecordRaw(&buf), nil)
	cfg := ws281x.NewDeviceConfig(2, 0)
	require.NoError(t, d.Init(&cfg))
	require.Len(t, d.LEDs(0), 2*pixbuf.Stride)
	assert.Nil(t, d.LEDs(1))

	require.NoError(t, d.Render(&cfg))
	black := append([]byte(nil), buf.Bytes()...)
	require.NotEmpty(t, black)

	buf.Reset()
	require.NoError(t, pixbuf.Put(d.LEDs(0), 0, 0xFF0000))
	require.NoError(t, d.Render(&cfg))
	assert.Len(t, buf.Bytes(), len(black))
	assert.NotEqual(t, black, buf.Bytes())

	buf.Reset()
	cfg.Channels[0].Brightness = 0
	require.NoError(t, d.Render(&cfg))
	assert.Equal(t, black, buf.Bytes(), "zero brightness must render black")

	assert.NoError(t, d.Wait())
	assert.NoError(t, d.Fini())
	assert.Nil(t, d.LEDs(0))
	assert.NoError(t, d.Fini())
}

func TestSecondChannelUnsupported(t *testing.T) {
	var buf bytes.Buffer

	d := NewPort(spitest.NewRecordRaw(&buf), nil)
	cfg := ws281x.NewDeviceConfig(2, 0)
	cfg.Channels[1].LEDCount = 2

	assert.ErrorIs(t, d.Init(&cfg), ws281x.StatusHWNotSupported)
}

func TestOpenErrorIsKept(t *testing.T) {
	errBusy := errors.New("spidev0.0 busy")

	d := newDriver(nil)
	d.open = func() (spi.PortCloser, error) { return nil, errBusy }

	cfg := ws281x.NewDeviceConfig(2, 0)
	err := d.Init(&cfg)
	assert.ErrorIs(t, err, ws281x.StatusSPISetup)
	assert.ErrorIs(t, err, errBusy)

	var status ws281x.Status
	require.True(t, errors.As(err, &status))
	assert.Equal(t, ws281x.StatusSPISetup, status)
}

func TestRenderBeforeInit(t *testing.T) {
	var buf bytes.Buffer

	d := NewPort(spitest.NewRecordRaw(&buf), nil)
	cfg := ws281x.NewDeviceConfig(2, 0)
	assert.Error(t, d.Render(&cfg))
	assert.Empty(t, buf.Bytes())
}

func TestClient(t *testing.T) {
	var buf bytes.Buffer

	cfg := ws281x.NewDeviceConfig(4, 0)
	err := ws281x.With(&cfg, NewPort(spitest.NewRecordRaw(&buf), nil), nil, func(c *ws281x.Client) error {
		if err := c.SetPixels([]uint32{0x0000FF, 0x00FF00}); err != nil {
			return err
		}
		return c.Show()
	})
	require.NoError(t, err)
	assert.NotEmpty(t, buf.Bytes())
}
