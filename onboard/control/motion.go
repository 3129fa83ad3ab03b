package control

import (
	"context"

	"github.com/CodedInternet/mirrorctl/onboard/board"
	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
)

func (d *Dispatcher) SetMicrostep(ctx context.Context, mode int) error {
	switch mode {
	case 1, 2, 4, 8:
	default:
		return berrors.ArgumentError{Name: "microstep mode", Value: mode, Want: "1, 2, 4 or 8"}
	}
	return d.do(ctx, "set microstep", func() error {
		return d.board.SetMicrostep(mode)
	})
}

func (d *Dispatcher) Microstep(ctx context.Context) (mode int, err error) {
	err = d.do(ctx, "microstep", func() error {
		mode = d.board.Microstep()
		return nil
	})
	return
}

func (d *Dispatcher) checkMove(drive int, hz float64) error {
	if err := checkRange("drive", drive, 1, pinout.NumDrives); err != nil {
		return err
	}
	if !(hz > 0 && hz <= d.cfg.MaxStepHz) {
		return berrors.ArgumentError{Name: "step frequency", Value: hz, Want: "above 0 and at most the configured maximum"}
	}
	return nil
}

// Step moves drive 1..6 by count pulses at hz. A positive count extends, a negative count
// retracts. Cancelling ctx stops the move between pulses; done is the number of pulses sent.
func (d *Dispatcher) Step(ctx context.Context, drive, count int, hz float64) (done int, err error) {
	if err = d.checkMove(drive, hz); err != nil {
		return
	}
	dir := board.DirExtend
	if count < 0 {
		dir = board.DirRetract
		count = -count
	}
	err = d.do(ctx, "step", func() error {
		return d.pulses(ctx, drive-1, dir, count, hz, &done)
	})
	return
}

// Pulse sends count pulses without touching the direction line, for calibration.
func (d *Dispatcher) Pulse(ctx context.Context, drive, count int, hz float64) (done int, err error) {
	if err = d.checkMove(drive, hz); err != nil {
		return
	}
	if count < 0 {
		return 0, berrors.ArgumentError{Name: "pulse count", Value: count, Want: "not negative"}
	}
	err = d.do(ctx, "pulse", func() error {
		return d.pulses(ctx, drive-1, board.DirNone, count, hz, &done)
	})
	return
}

func (d *Dispatcher) pulses(ctx context.Context, drive int, dir board.Direction, count int, hz float64, done *int) error {
	for *done < count {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.board.Step(drive, dir, hz); err != nil {
			return err
		}
		*done++
	}
	return nil
}

func (d *Dispatcher) ResetPhase(ctx context.Context) error {
	return d.do(ctx, "reset phase", func() error {
		d.board.ResetPhase()
		return nil
	})
}
