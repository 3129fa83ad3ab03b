//go:build !linux

package spi

import (
	"errors"

	"github.com/go-logr/logr"

	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
)

type Device struct{}

func Open(cfg Config, log logr.Logger) (*Device, error) {
	cfg = cfg.WithDefaults()
	return nil, berrors.InitFault{Resource: cfg.Device, Err: errors.New("spidev is only supported on linux")}
}

func (d *Device) WriteRead(word uint32) (uint32, error) {
	return 0, berrors.DeviceFault{Op: "spi transfer", Err: errors.New("no spi device")}
}

func (d *Device) Close() error {
	return nil
}
