// Package animate draws simple animations onto a strip.
package animate

import (
	"fmt"
	"sort"

	"libdb.so/ws281x"
)

// Pattern draws the frames of an animation.
type Pattern interface {
	// Frame draws frame step onto c. It returns true once the frame it drew
	// is the last one.
	Frame(c *ws281x.Channel, step int) (done bool, err error)
}

// PatternFunc is a function that implements Pattern.
type PatternFunc func(c *ws281x.Channel, step int) (bool, error)

// Frame implements Pattern.
func (f PatternFunc) Frame(c *ws281x.Channel, step int) (bool, error) {
	return f(c, step)
}

// WheelFill lights one more LED per frame with its position on the color
// wheel. It is done once every LED is lit.
type WheelFill struct{}

func (WheelFill) Frame(c *ws281x.Channel, step int) (bool, error) {
	return fill(c, step, ws281x.Wheel(uint8(step)))
}

// Wipe lights one more LED per frame with a single color.
type Wipe struct {
	Color uint32
}

func (p Wipe) Frame(c *ws281x.Channel, step int) (bool, error) {
	return fill(c, step, p.Color)
}

func fill(c *ws281x.Channel, step int, color uint32) (bool, error) {
	n := c.PixelCount()
	if step >= n {
		return true, nil
	}
	if err := c.SetPixel(step, color); err != nil {
		return false, err
	}
	return step == n-1, nil
}

// Rainbow spreads the whole color wheel over the strip and rotates it by
// one position per frame.
type Rainbow struct {
	// Cycles is the number of full turns of the wheel. Zero runs forever.
	Cycles int
}

func (p Rainbow) Frame(c *ws281x.Channel, step int) (bool, error) {
	n := c.PixelCount()
	colors := make([]uint32, n)
	for i := range colors {
		colors[i] = ws281x.WheelScaled(i, -step, n)
	}
	if err := c.SetPixels(colors); err != nil {
		return false, err
	}
	return p.Cycles > 0 && step+1 >= p.Cycles*256, nil
}

// Chase lights every Spacing-th LED and moves the lit LEDs along by one per
// frame, like a theater marquee.
type Chase struct {
	Color uint32
	// Spacing is the distance between lit LEDs. It defaults to 3.
	Spacing int
	// Steps is the number of frames to draw. Zero runs forever.
	Steps int
}

func (p Chase) Frame(c *ws281x.Channel, step int) (bool, error) {
	spacing := p.Spacing
	if spacing <= 0 {
		spacing = 3
	}

	colors := make([]uint32, c.PixelCount())
	for i := range colors {
		if (i+step)%spacing == 0 {
			colors[i] = p.Color
		}
	}
	if err := c.SetPixels(colors); err != nil {
		return false, err
	}
	return p.Steps > 0 && step+1 >= p.Steps, nil
}

var patterns = map[string]func(color uint32) Pattern{
	"wheel":   func(uint32) Pattern { return WheelFill{} },
	"wipe":    func(color uint32) Pattern { return Wipe{Color: color} },
	"rainbow": func(uint32) Pattern { return Rainbow{} },
	"chase":   func(color uint32) Pattern { return Chase{Color: color} },
}

// Names returns the names accepted by ByName in sorted order.
func Names() []string {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName returns the pattern with the given name. Patterns that draw a
// single color use color.
func ByName(name string, color uint32) (Pattern, error) {
	newPattern, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern %q", name)
	}
	return newPattern(color), nil
}
