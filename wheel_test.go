package ws281x

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWheelTransitions(t *testing.T) {
	tests := []struct {
		pos    uint8
		expect uint32
	}{
		{0, 0xFF0000},
		{1, 0xFC0300},
		{84, 0x03FC00},
		{85, 0x00FF00},
		{86, 0x00FC03},
		{170, 0x0000FF},
		{171, 0x0300FC},
		{254, 0xFC0003},
		{255, 0xFF0000},
	}

	for _, test := range tests {
		assert.Equal(t, test.expect, Wheel(test.pos), "Wheel(%d)", test.pos)
	}
}

func TestWheelRedDominantAtEnds(t *testing.T) {
	for _, pos := range []uint8{0, 1, 2, 253, 254, 255} {
		r, g, b := SplitRGB(Wheel(pos))
		assert.Greater(t, r, g, "Wheel(%d)", pos)
		assert.Greater(t, r, b, "Wheel(%d)", pos)
	}
}

func TestWheelPeriodic(t *testing.T) {
	for i := 0; i < 1024; i++ {
		assert.Equal(t, Wheel(uint8(i%256)), Wheel(uint8(i)))
	}
}

func TestWheelFullIntensity(t *testing.T) {
	// Two components always add up to 255 and the third is off.
	for i := 0; i < 256; i++ {
		r, g, b := SplitRGB(Wheel(uint8(i)))
		assert.Equal(t, 255, int(r)+int(g)+int(b), "Wheel(%d)", i)
	}
}

func TestWheelScaled(t *testing.T) {
	tests := []struct {
		name                      string
		value, lowerBound, length int
		expect                    uint32
	}{
		{"start", 0, 0, 64, Wheel(0)},
		{"quarter", 16, 0, 64, Wheel(63)},
		{"end of range", 64, 0, 64, Wheel(255)},
		{"lower bound shifts", 32, 10, 64, Wheel(117)},
		{"negative wraps", 0, 1, 64, Wheel(255)},
		{"overflow wraps", 128, 0, 64, Wheel(254)},
		{"zero length", 5, 0, 0, Wheel(0)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expect, WheelScaled(test.value, test.lowerBound, test.length))
		})
	}
}

func TestRGB(t *testing.T) {
	assert.Equal(t, uint32(0x00FF0000), RGB(255, 0, 0))
	assert.Equal(t, uint32(0x00123456), RGB(0x12, 0x34, 0x56))

	r, g, b := SplitRGB(0xAA123456)
	assert.Equal(t, [3]uint8{0x12, 0x34, 0x56}, [3]uint8{r, g, b})
}
