package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"libdb.so/ws281x"
	"libdb.so/ws281x/driver/console"
	"libdb.so/ws281x/driver/serialstrip"
	"libdb.so/ws281x/driver/spistrip"
	"libdb.so/ws281x/driver/ws2811"
	"libdb.so/ws281x/internal/animate"
)

var (
	config     = ""
	count      = 64
	pin        = ws281x.DefaultGPIOPin
	brightness = int(ws281x.DefaultBrightness)
	driver     = "native"
	serialDev  = ""
	pattern    = "wheel"
	color      = "ff0000"
	interval   = 100 * time.Millisecond
	hold       = false
	verbose    = false
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file, flags override its values")
	pflag.IntVarP(&count, "count", "n", count, "number of LEDs")
	pflag.IntVarP(&pin, "pin", "p", pin, "GPIO pin")
	pflag.IntVarP(&brightness, "brightness", "b", brightness, "brightness from 0 to 255")
	pflag.StringVarP(&driver, "driver", "d", driver, "output driver: native, spi, serial or console")
	pflag.StringVar(&serialDev, "serial", serialDev, "serial device of the controller")
	pflag.StringVar(&pattern, "pattern", pattern, "pattern to draw: "+strings.Join(animate.Names(), ", "))
	pflag.StringVar(&color, "color", color, "hex color for single color patterns")
	pflag.DurationVar(&interval, "interval", interval, "time between frames")
	pflag.BoolVar(&hold, "hold", hold, "keep the last frame until interrupted")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	rgb, err := parseColor(color)
	if err != nil {
		return err
	}

	p, err := animate.ByName(pattern, rgb)
	if err != nil {
		return err
	}

	drv, err := newDriver(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dev := cfg.DeviceConfig()
	return ws281x.With(&dev, drv, slog.Default(), func(c *ws281x.Client) error {
		slog.Info(
			"running pattern",
			"pattern", pattern,
			"driver", cfg.Driver,
			"pin", c.GPIOPin(),
			"leds", c.PixelCount())

		err := animate.Run(ctx, c, p, interval)
		if err == nil && hold {
			<-ctx.Done()
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("pattern failed: %w", err)
		}

		if err := c.Clear(); err != nil {
			return err
		}
		if err := c.Show(); err != nil {
			return fmt.Errorf("failed to clear strip: %w", err)
		}
		return c.Wait()
	})
}

func newDriver(cfg *ws281x.Config) (ws281x.Driver, error) {
	switch cfg.Driver {
	case "", "native":
		return ws2811.New(), nil
	case "spi":
		return spistrip.New(cfg.SPI, slog.Default()), nil
	case "serial":
		return serialstrip.New(cfg.Serial, slog.Default()), nil
	case "console":
		return console.New(slog.Default()), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

func readConfig() (*ws281x.Config, error) {
	cfg := &ws281x.Config{
		Driver: driver,
		Channels: []ws281x.ChannelFileConfig{
			{GPIO: pin, Count: count, Brightness: &brightness},
		},
	}

	if config != "" {
		f, err := os.Open(config)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		cfg, err = ws281x.DecodeConfig(f)
		if err != nil {
			return nil, err
		}

		overrideConfig(cfg)
	}

	if serialDev != "" {
		cfg.Serial.Device = serialDev
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// overrideConfig applies the flags given on the command line on top of the
// configuration file.
func overrideConfig(cfg *ws281x.Config) {
	if pflag.CommandLine.Changed("driver") {
		cfg.Driver = driver
	}

	if len(cfg.Channels) == 0 {
		cfg.Channels = append(cfg.Channels, ws281x.ChannelFileConfig{GPIO: pin, Count: count})
	}

	ch := &cfg.Channels[0]
	if pflag.CommandLine.Changed("count") {
		ch.Count = count
	}
	if pflag.CommandLine.Changed("pin") {
		ch.GPIO = pin
	}
	if pflag.CommandLine.Changed("brightness") {
		ch.Brightness = &brightness
	}
}

func parseColor(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil || v > 0xFFFFFF {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	return uint32(v), nil
}
