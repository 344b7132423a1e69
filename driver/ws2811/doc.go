// Package ws2811 implements a ws281x.Driver on top of the rpi_ws281x C
// library (libws2811). It needs cgo and the library headers installed under
// ws2811/ in the include path; other builds get a driver that reports
// ws281x.StatusHWNotSupported.
package ws2811
