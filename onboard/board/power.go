package board

import (
	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
)

// Rail is a board wide power or mode line. All of them are active low.
type Rail int

const (
	RailBoard Rail = iota
	RailEncoders
	RailAux
	RailDrives
	RailHighCurrent
	RailSyncRect
	numRails
)

var railNames = [numRails]string{"board", "encoders", "aux", "drives", "highcurrent", "syncrect"}

func (r Rail) String() string {
	if r < 0 || r >= numRails {
		return "unknown"
	}
	return railNames[r]
}

// Rails lists every rail in a fixed order.
func Rails() []Rail {
	rails := make([]Rail, numRails)
	for i := range rails {
		rails[i] = Rail(i)
	}
	return rails
}

func (r Rail) line() int {
	switch r {
	case RailBoard:
		return pinout.BoardOffLine
	case RailEncoders:
		return pinout.EncodersOffLine
	case RailAux:
		return pinout.AuxOffLine
	case RailDrives:
		return pinout.DrivesOffLine
	case RailHighCurrent:
		return pinout.HighCurrentLine
	case RailSyncRect:
		return pinout.SyncRectLine
	}
	panic(berrors.IndexError{Kind: "rail", Index: int(r), Limit: int(numRails)})
}

// level 0 is enabled
func (b *Board) setActiveLow(line int, on bool) {
	b.gpio.WriteLevel(line, !on)
}

func (b *Board) activeLow(line int) bool {
	return !b.gpio.ReadLevel(line)
}

func (b *Board) SetRail(r Rail, on bool) {
	b.setActiveLow(r.line(), on)
	b.log.V(1).Info("set rail", "rail", r.String(), "on", on)
}

func (b *Board) RailEnabled(r Rail) bool {
	return b.activeLow(r.line())
}

func (b *Board) EnableDrive(d int) {
	b.setActiveLow(pinout.EnableLine(d), true)
}

func (b *Board) DisableDrive(d int) {
	b.setActiveLow(pinout.EnableLine(d), false)
}

func (b *Board) DriveEnabled(d int) bool {
	return b.activeLow(pinout.EnableLine(d))
}

// DriveFault reports whether the driver of d is signalling a fault.
func (b *Board) DriveFault(d int) bool {
	return b.activeLow(pinout.FaultLine(d))
}

func (b *Board) EnableUSB(u int) {
	b.setActiveLow(pinout.USBOffLine(u), true)
}

func (b *Board) DisableUSB(u int) {
	b.setActiveLow(pinout.USBOffLine(u), false)
}

func (b *Board) USBEnabled(u int) bool {
	return b.activeLow(pinout.USBOffLine(u))
}

func (b *Board) SetAllUSB(on bool) {
	for u := 0; u < pinout.NumUSBPorts; u++ {
		b.setActiveLow(pinout.USBOffLine(u), on)
	}
	b.log.V(1).Info("set all usb ports", "on", on)
}
