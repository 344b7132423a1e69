package ws281x

import "fmt"

// Status is a return code of the native rpi_ws281x library. Zero means
// success; every other value is a failure and implements error.
type Status int

const (
	StatusSuccess        Status = 0
	StatusGeneric        Status = -1
	StatusOutOfMemory    Status = -2
	StatusHWNotSupported Status = -3
	StatusMemLock        Status = -4
	StatusMmap           Status = -5
	StatusMapRegisters   Status = -6
	StatusGPIOInit       Status = -7
	StatusPWMSetup       Status = -8
	StatusMailboxDevice  Status = -9
	StatusDMA            Status = -10
	StatusIllegalGPIO    Status = -11
	StatusPCMSetup       Status = -12
	StatusSPISetup       Status = -13
	StatusSPITransfer    Status = -14
)

var statusStrings = map[Status]string{
	StatusSuccess:        "success",
	StatusGeneric:        "generic failure",
	StatusOutOfMemory:    "out of memory",
	StatusHWNotSupported: "hardware revision is not supported",
	StatusMemLock:        "memory lock failed",
	StatusMmap:           "mmap() failed",
	StatusMapRegisters:   "unable to map registers into userspace",
	StatusGPIOInit:       "unable to initialize GPIO",
	StatusPWMSetup:       "unable to initialize PWM",
	StatusMailboxDevice:  "failed to create mailbox device",
	StatusDMA:            "DMA error",
	StatusIllegalGPIO:    "selected GPIO not possible",
	StatusPCMSetup:       "unable to initialize PCM",
	StatusSPISetup:       "unable to initialize SPI",
	StatusSPITransfer:    "SPI transfer error",
}

// String returns the description the native library uses for the status.
func (s Status) String() string {
	if str, ok := statusStrings[s]; ok {
		return str
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) Error() string {
	return fmt.Sprintf("ws2811 status %d: %s", int(s), s.String())
}
