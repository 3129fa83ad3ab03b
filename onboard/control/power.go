package control

import (
	"context"

	"github.com/CodedInternet/mirrorctl/onboard/board"
	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
)

// RailByName resolves the names used by operators.
func RailByName(name string) (board.Rail, error) {
	for _, r := range board.Rails() {
		if r.String() == name {
			return r, nil
		}
	}
	return 0, berrors.ArgumentError{Name: "rail", Value: name, Want: "one of board, encoders, aux, drives, highcurrent, syncrect"}
}

func checkRail(r board.Rail) error {
	if r < board.RailBoard || r > board.RailSyncRect {
		return berrors.ArgumentError{Name: "rail", Value: int(r), Want: "a known rail"}
	}
	return nil
}

func (d *Dispatcher) SetRail(ctx context.Context, r board.Rail, on bool) error {
	if err := checkRail(r); err != nil {
		return err
	}
	return d.do(ctx, "set rail", func() error {
		d.board.SetRail(r, on)
		return nil
	})
}

func (d *Dispatcher) RailEnabled(ctx context.Context, r board.Rail) (on bool, err error) {
	if err = checkRail(r); err != nil {
		return
	}
	err = d.do(ctx, "rail enabled", func() error {
		on = d.board.RailEnabled(r)
		return nil
	})
	return
}

// SetDrive powers drive 1..6.
func (d *Dispatcher) SetDrive(ctx context.Context, drive int, on bool) error {
	if err := checkRange("drive", drive, 1, pinout.NumDrives); err != nil {
		return err
	}
	return d.do(ctx, "set drive", func() error {
		if on {
			d.board.EnableDrive(drive - 1)
		} else {
			d.board.DisableDrive(drive - 1)
		}
		return nil
	})
}

// SetUSB powers port 1..7, or every port for 0.
func (d *Dispatcher) SetUSB(ctx context.Context, port int, on bool) error {
	if err := checkRange("usb port", port, 0, pinout.NumUSBPorts); err != nil {
		return err
	}
	return d.do(ctx, "set usb", func() error {
		switch {
		case port == 0:
			d.board.SetAllUSB(on)
		case on:
			d.board.EnableUSB(port - 1)
		default:
			d.board.DisableUSB(port - 1)
		}
		return nil
	})
}

func (d *Dispatcher) USBEnabled(ctx context.Context, port int) (on bool, err error) {
	if err = checkRange("usb port", port, 1, pinout.NumUSBPorts); err != nil {
		return
	}
	err = d.do(ctx, "usb enabled", func() error {
		on = d.board.USBEnabled(port - 1)
		return nil
	})
	return
}
