// Package spi drives the spidev character device used to talk to the ADC bank.
//
// Every exchange is one synchronous full duplex transfer of a 32-bit word, clocked as two
// 16-bit frames, high half first.
package spi

import (
	"encoding/binary"
	"unsafe"
)

const (
	DefaultDevice  = "/dev/spidev1.1"
	DefaultMode    = 0
	DefaultBits    = 16
	DefaultSpeedHz = 1000000

	wordBytes = 4
)

// Config holds the bus settings applied by Open.
type Config struct {
	Device      string `yaml:"device"`
	Mode        uint8  `yaml:"mode"`
	BitsPerWord uint8  `yaml:"bits"`
	SpeedHz     uint32 `yaml:"speed"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.BitsPerWord == 0 {
		c.BitsPerWord = DefaultBits
	}
	if c.SpeedHz == 0 {
		c.SpeedHz = DefaultSpeedHz
	}
	return c
}

// Transport is anything that can exchange a word with the ADC.
type Transport interface {
	WriteRead(word uint32) (uint32, error)
}

// linux/spi/spidev.h request numbers, generic _IOC layout
const (
	iocWrite = 1
	iocRead  = 2

	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	spiMagic = 'k'
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<iocDirShift | spiMagic<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift
}

var (
	iocWrMode        = ioc(iocWrite, 1, 1)
	iocRdMode        = ioc(iocRead, 1, 1)
	iocWrBitsPerWord = ioc(iocWrite, 3, 1)
	iocRdBitsPerWord = ioc(iocRead, 3, 1)
	iocWrMaxSpeedHz  = ioc(iocWrite, 4, 4)
	iocRdMaxSpeedHz  = ioc(iocRead, 4, 4)
	iocMessage1      = ioc(iocWrite, 0, unsafe.Sizeof(transfer{}))
)

// transfer mirrors struct spi_ioc_transfer.
type transfer struct {
	txBuf          uint64
	rxBuf          uint64
	length         uint32
	speedHz        uint32
	delayUsecs     uint16
	bitsPerWord    uint8
	csChange       uint8
	txNbits        uint8
	rxNbits        uint8
	wordDelayUsecs uint8
	pad            uint8
}

// spidev keeps multi-byte words in CPU order in the buffer.
func packWord(buf []byte, word uint32) {
	binary.NativeEndian.PutUint16(buf[0:2], uint16(word>>16))
	binary.NativeEndian.PutUint16(buf[2:4], uint16(word))
}

func unpackWord(buf []byte) uint32 {
	return uint32(binary.NativeEndian.Uint16(buf[0:2]))<<16 | uint32(binary.NativeEndian.Uint16(buf[2:4]))
}
