package spi

import (
	"runtime"
	"unsafe"

	"github.com/go-logr/logr"
	"golang.org/x/sys/unix"

	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
)

type Device struct {
	fd  int
	cfg Config
	tx  [wordBytes]byte
	rx  [wordBytes]byte
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, e1 := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if e1 != 0 {
		return e1
	}
	return nil
}

// Open opens the bus and applies cfg, reading every setting back. A setting that cannot be
// applied is a ConfigFault; the ADC cannot be driven correctly without it.
func Open(cfg Config, log logr.Logger) (d *Device, err error) {
	cfg = cfg.WithDefaults()

	fd, err := unix.Open(cfg.Device, unix.O_RDWR, 0)
	if err != nil {
		return nil, berrors.InitFault{Resource: cfg.Device, Err: err}
	}
	d = &Device{fd: fd, cfg: cfg}
	defer func() {
		if err != nil {
			unix.Close(fd)
			d = nil
		}
	}()

	mode := cfg.Mode
	if err = d.apply8("mode", iocWrMode, iocRdMode, mode); err != nil {
		return
	}
	if err = d.apply8("bits per word", iocWrBitsPerWord, iocRdBitsPerWord, cfg.BitsPerWord); err != nil {
		return
	}

	speed := cfg.SpeedHz
	if err = ioctl(fd, iocWrMaxSpeedHz, unsafe.Pointer(&speed)); err != nil {
		return nil, berrors.ConfigFault{Setting: "max speed", Want: cfg.SpeedHz, Err: err}
	}
	var got uint32
	if err = ioctl(fd, iocRdMaxSpeedHz, unsafe.Pointer(&got)); err != nil {
		return nil, berrors.ConfigFault{Setting: "max speed", Want: cfg.SpeedHz, Err: err}
	}
	if got != cfg.SpeedHz {
		return nil, berrors.ConfigFault{Setting: "max speed", Want: cfg.SpeedHz, Got: got}
	}

	log.Info("configured spi bus", "device", cfg.Device, "mode", cfg.Mode, "bits", cfg.BitsPerWord, "speed", cfg.SpeedHz)
	return d, nil
}

func (d *Device) apply8(setting string, wr, rd uintptr, want uint8) error {
	v := want
	if err := ioctl(d.fd, wr, unsafe.Pointer(&v)); err != nil {
		return berrors.ConfigFault{Setting: setting, Want: uint32(want), Err: err}
	}
	var got uint8
	if err := ioctl(d.fd, rd, unsafe.Pointer(&got)); err != nil {
		return berrors.ConfigFault{Setting: setting, Want: uint32(want), Err: err}
	}
	if got != want {
		return berrors.ConfigFault{Setting: setting, Want: uint32(want), Got: uint32(got)}
	}
	return nil
}

// WriteRead clocks word out and returns the word clocked in at the same time. It blocks until
// the transfer completes.
func (d *Device) WriteRead(word uint32) (uint32, error) {
	packWord(d.tx[:], word)
	xfer := transfer{
		txBuf:       uint64(uintptr(unsafe.Pointer(&d.tx[0]))),
		rxBuf:       uint64(uintptr(unsafe.Pointer(&d.rx[0]))),
		length:      wordBytes,
		speedHz:     d.cfg.SpeedHz,
		bitsPerWord: d.cfg.BitsPerWord,
	}
	err := ioctl(d.fd, iocMessage1, unsafe.Pointer(&xfer))
	runtime.KeepAlive(d)
	if err != nil {
		return 0, berrors.DeviceFault{Op: "spi transfer", Err: err}
	}
	return unpackWord(d.rx[:]), nil
}

func (d *Device) Close() error {
	return unix.Close(d.fd)
}
