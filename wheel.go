package ws281x

// Wheel maps a position on a 256 step cycle to a color. The colors go from
// red over green and blue back to red. Position 85 is pure green and 170 is
// pure blue.
func Wheel(pos uint8) uint32 {
	i := 255 - pos
	switch {
	case i < 85:
		return RGB(255-i*3, 0, i*3)
	case i < 170:
		i -= 85
		return RGB(0, i*3, 255-i*3)
	default:
		i -= 170
		return RGB(i*3, 255-i*3, 0)
	}
}

// WheelScaled maps value from a range of the given length onto the wheel,
// then shifts it back by lowerBound. The result wraps around the wheel. A
// length of zero or less maps every value to the start of the range.
func WheelScaled(value, lowerBound, length int) uint32 {
	var scaled float64
	if length > 0 {
		scaled = float64(value) * 255 / float64(length)
	}
	return Wheel(uint8(int(scaled - float64(lowerBound))))
}
