// Package adc encodes commands for, and decodes samples from, the board's 12-bit 8-channel
// successive approximation converters.
//
// A command is a 16-bit frame carried in bits 31..16 of the 32-bit bus word: the command
// nibble in bits 31..28 followed by 12 data bits. The converter answers a conversion in the
// first frame of the following exchange, left justified, so a sample sits in bits 31..20.
package adc

import (
	"math"

	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
)

const (
	Bits      = 12
	FullCode  = 1 << Bits
	Inputs    = 8
	Channels  = 12 // 0..7 inputs, 8 unused, 9..11 internal references

	cmdShift  = 28
	dataShift = 16
	sampleLSB = 20
	codeMask  = FullCode - 1
)

// Command nibbles.
const (
	cmdPowerDown = 0x8
	cmdReadCFR   = 0x9
	cmdWriteCFR  = 0xA
	cmdRefMid    = 0xB
	cmdRefLow    = 0xC
	cmdRefHigh   = 0xD
	cmdReadFIFO  = 0xE
)

// Configuration register bits.
const (
	cfrIntRef      = 1 << 11
	cfrRef2V       = 1 << 10
	cfrLongSample  = 1 << 9
	cfrSCLKConvert = 1 << 8
	cfrEOC         = 1 << 3

	// external reference, long sample, internal oscillator, single shot
	boardCFR = cfrLongSample | cfrEOC
)

// Internal reference channels.
const (
	RefMid  = 9
	RefLow  = 10
	RefHigh = 11
)

func frame(cmd, data uint32) uint32 {
	return cmd<<cmdShift | (data&codeMask)<<dataShift
}

// ValidChannel reports whether ch can be selected.
func ValidChannel(ch int) bool {
	return (ch >= 0 && ch < Inputs) || ch == RefMid || ch == RefLow || ch == RefHigh
}

// EncodeInitialize writes an all zero configuration, the first command after power up.
func EncodeInitialize() uint32 {
	return frame(cmdWriteCFR, 0)
}

func EncodeConfig() uint32 {
	return frame(cmdWriteCFR, boardCFR)
}

// EncodeSelect starts a conversion of ch. Selecting anything other than an input or a
// reference is a programming error.
func EncodeSelect(ch int) uint32 {
	switch {
	case ch >= 0 && ch < Inputs:
		return frame(uint32(ch), 0)
	case ch == RefMid:
		return frame(cmdRefMid, 0)
	case ch == RefLow:
		return frame(cmdRefLow, 0)
	case ch == RefHigh:
		return frame(cmdRefHigh, 0)
	}
	panic(berrors.IndexError{Kind: "adc channel", Index: ch, Limit: Channels})
}

func EncodeReadFIFO() uint32 {
	return frame(cmdReadFIFO, 0)
}

func EncodeReadConfig() uint32 {
	return frame(cmdReadCFR, 0)
}

func EncodePowerDown() uint32 {
	return frame(cmdPowerDown, 0)
}

// DecodeSample extracts the conversion result answered in word.
func DecodeSample(word uint32) uint16 {
	return uint16(word>>sampleLSB) & codeMask
}

// RawToVoltage applies the converter's transfer function for a reference of fullScale volts.
func RawToVoltage(raw uint16, fullScale float64) float64 {
	return float64(raw) * fullScale / FullCode
}

// VoltageToRaw is the inverse of RawToVoltage, rounded and clamped to the code range.
func VoltageToRaw(v, fullScale float64) uint16 {
	code := v * FullCode / fullScale
	switch {
	case code <= 0:
		return 0
	case code >= codeMask:
		return codeMask
	}
	return uint16(math.Round(code))
}

// encodeSample builds the word the converter would answer with a given result.
func encodeSample(raw uint16) uint32 {
	return uint32(raw&codeMask) << sampleLSB
}
