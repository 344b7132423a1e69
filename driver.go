package ws281x

// Driver is the device backend a Client drives. It mirrors the native
// rpi_ws281x API. Drivers report native failures as Status values, which
// may be wrapped.
type Driver interface {
	// Init allocates the channel buffers and claims the hardware. Every
	// buffer starts out black.
	Init(cfg *DeviceConfig) error
	// LEDs returns the buffer of the given channel: LEDCount words laid out
	// as described in package pixbuf. The slice is only valid between Init
	// and Fini. It is nil for unused channels.
	LEDs(channel int) []byte
	// Render sends the current buffers to the strips. Brightness and invert
	// are read from cfg. It does not wait for the transmission to finish.
	Render(cfg *DeviceConfig) error
	// Wait blocks until the last transmission has finished.
	Wait() error
	// Fini releases everything Init acquired.
	Fini() error
}
