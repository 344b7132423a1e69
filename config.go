package ws281x

import (
	"encoding"
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Channels is the number of PWM channels the hardware provides.
const Channels = 2

const (
	// DefaultFrequency is the WS2811/WS2812 signal frequency in Hz.
	DefaultFrequency uint32 = 800000
	// DefaultDMA is the DMA engine used when none is configured.
	DefaultDMA = 5
	// DefaultGPIOPin is the PWM0 capable pin used when none is configured.
	DefaultGPIOPin = 18
	// DefaultBrightness is full brightness.
	DefaultBrightness uint8 = 255
)

// ChannelConfig describes one output channel.
type ChannelConfig struct {
	// GPIOPin is the GPIO pin with a PWM alternate function, 0 if unused.
	GPIOPin int
	// Invert inverts the output signal.
	Invert bool
	// LEDCount is the number of LEDs, 0 if the channel is unused. It cannot
	// change while the channel is initialized.
	LEDCount int
	// Brightness scales every color on output.
	Brightness uint8
}

// Active returns true if the channel drives any LED.
func (c ChannelConfig) Active() bool {
	return c.LEDCount > 0
}

// DeviceConfig describes a device and its channels.
type DeviceConfig struct {
	// Frequency is the output frequency in Hz.
	Frequency uint32
	// DMA is the DMA engine to use. It must not be in use by anything else.
	DMA int
	// Channels holds both hardware channels. Unused channels are zero.
	Channels [Channels]ChannelConfig
}

// NewDeviceConfig returns the default configuration for a single strip of
// ledCount LEDs on gpioPin. The second channel is left unused.
func NewDeviceConfig(ledCount, gpioPin int) DeviceConfig {
	return DeviceConfig{
		Frequency: DefaultFrequency,
		DMA:       DefaultDMA,
		Channels: [Channels]ChannelConfig{
			{
				GPIOPin:    gpioPin,
				LEDCount:   ledCount,
				Invert:     false,
				Brightness: DefaultBrightness,
			},
		},
	}
}

// Validate validates the device configuration. The native driver performs
// its own checks on top of these.
func (c *DeviceConfig) Validate() error {
	if c.Frequency == 0 {
		return errors.New("frequency must be positive")
	}
	if c.DMA < 0 {
		return fmt.Errorf("invalid DMA channel %d", c.DMA)
	}

	var active int
	for i, ch := range c.Channels {
		if ch.LEDCount < 0 {
			return fmt.Errorf("channel %d: invalid LED count %d", i, ch.LEDCount)
		}
		if ch.Active() {
			active++
		}
	}
	if active == 0 {
		return errors.New("no LEDs configured")
	}

	return nil
}

// NumLEDs returns the total number of LEDs over all channels.
func (c *DeviceConfig) NumLEDs() int {
	var n int
	for _, ch := range c.Channels {
		n += ch.LEDCount
	}
	return n
}

// Config is the configuration file for a strip.
type Config struct {
	// Driver selects the output driver. It is one of "native", "spi",
	// "serial" or "console".
	Driver string `toml:"driver"`
	// Frequency is the output frequency in Hz.
	Frequency uint32 `toml:"frequency"`
	// DMA is the DMA engine to use.
	DMA *int `toml:"dma"`
	// Channels is a list of at most two channel configurations.
	Channels []ChannelFileConfig `toml:"channel"`

	SPI    SPIConfig    `toml:"spi"`
	Serial SerialConfig `toml:"serial"`
}

// ChannelFileConfig is the configuration for a single channel.
type ChannelFileConfig struct {
	GPIO       int  `toml:"gpio"`
	Count      int  `toml:"count"`
	Brightness *int `toml:"brightness"`
	Invert     bool `toml:"invert"`
}

// SPIConfig is the configuration for the SPI driver.
type SPIConfig struct {
	// Port is the periph SPI port name. The first port is used if empty.
	Port string `toml:"port"`
}

// SerialConfig is the configuration for the serial driver.
type SerialConfig struct {
	// Device is the path to the serial device of the controller.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// Timeout bounds how long the controller may take to acknowledge.
	Timeout TOMLDuration `toml:"timeout"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Channels) > Channels {
		return fmt.Errorf("%d channels configured, hardware supports %d", len(c.Channels), Channels)
	}

	for i, ch := range c.Channels {
		if ch.Count < 0 {
			return fmt.Errorf("channel %d: invalid LED count %d", i, ch.Count)
		}
		if ch.Brightness != nil && (*ch.Brightness < 0 || *ch.Brightness > 255) {
			return fmt.Errorf("channel %d: brightness %d out of range [0, 255]", i, *ch.Brightness)
		}
	}

	switch c.Driver {
	case "", "native", "spi", "console":
	case "serial":
		if c.Serial.Device == "" {
			return errors.New("serial driver requires serial.device")
		}
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}

	dev := c.DeviceConfig()
	return dev.Validate()
}

// DeviceConfig returns the device configuration described by the file.
// Unset values take their defaults.
func (c *Config) DeviceConfig() DeviceConfig {
	dev := DeviceConfig{
		Frequency: c.Frequency,
		DMA:       DefaultDMA,
	}
	if dev.Frequency == 0 {
		dev.Frequency = DefaultFrequency
	}
	if c.DMA != nil {
		dev.DMA = *c.DMA
	}

	for i, ch := range c.Channels {
		if i >= Channels {
			break
		}
		brightness := DefaultBrightness
		if ch.Brightness != nil {
			brightness = uint8(*ch.Brightness)
		}
		dev.Channels[i] = ChannelConfig{
			GPIOPin:    ch.GPIO,
			Invert:     ch.Invert,
			LEDCount:   ch.Count,
			Brightness: brightness,
		}
	}

	return dev
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses and validates a configuration from a reader.
func ParseConfig(r io.Reader) (*Config, error) {
	config, err := DecodeConfig(r)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return config, nil
}

// DecodeConfig decodes a configuration without validating it, for callers
// that fill in more values before calling Validate.
func DecodeConfig(r io.Reader) (*Config, error) {
	var config Config
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	return &config, nil
}
