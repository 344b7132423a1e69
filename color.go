package ws281x

// RGB packs color components into a 0x00RRGGBB color.
func RGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// SplitRGB returns the components of a packed color.
func SplitRGB(c uint32) (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}
