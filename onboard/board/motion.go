package board

import (
	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
	"github.com/CodedInternet/mirrorctl/onboard/realtime"
)

// Direction of a step pulse. DirNone leaves the direction line as it is.
type Direction int

const (
	DirNone Direction = iota
	DirExtend
	DirRetract
)

func (d Direction) String() string {
	switch d {
	case DirExtend:
		return "extend"
	case DirRetract:
		return "retract"
	}
	return "none"
}

// Microstep modes as levels of MS1 and MS2.
var microsteps = []struct {
	mode     int
	ms1, ms2 bool
}{
	{1, false, false},
	{2, true, false},
	{4, false, true},
	{8, true, true},
}

func (b *Board) SetMicrostep(mode int) error {
	for _, m := range microsteps {
		if m.mode == mode {
			b.gpio.WriteLevel(pinout.MS1Line, m.ms1)
			b.gpio.WriteLevel(pinout.MS2Line, m.ms2)
			b.log.V(1).Info("set microstep", "mode", mode)
			return nil
		}
	}
	return berrors.ErrBadMicrostep
}

// Microstep reads the mode back from the lines. Something else may have set them, so there is
// no cached value.
func (b *Board) Microstep() int {
	ms1 := b.gpio.ReadLevel(pinout.MS1Line)
	ms2 := b.gpio.ReadLevel(pinout.MS2Line)
	for _, m := range microsteps {
		if m.ms1 == ms1 && m.ms2 == ms2 {
			return m.mode
		}
	}
	panic("unreachable")
}

// Step emits a single pulse on drive d at hz. Moves of more than one step are a loop of calls.
func (b *Board) Step(d int, dir Direction, hz float64) error {
	if !(hz > 0) {
		return berrors.ErrBadFrequency
	}
	step := pinout.StepLine(d)
	dirLine := pinout.DirLine(d)
	half := realtime.HalfPeriod(hz)

	b.critical(func() {
		switch dir {
		case DirExtend:
			b.gpio.WriteLevel(dirLine, true)
		case DirRetract:
			b.gpio.WriteLevel(dirLine, false)
		}
		b.gpio.WriteLevel(step, true)
		realtime.BusyWait(b.Clock, half)
		b.gpio.WriteLevel(step, false)
		realtime.BusyWait(b.Clock, half)
	})
	return nil
}

// ResetPhase pulses the shared reset line, returning every drive to its home commutation phase.
func (b *Board) ResetPhase() {
	b.gpio.WriteLevel(pinout.PhaseResetLine, false)
	realtime.BusyWait(b.Clock, realtime.HalfPeriod(b.cfg.PhaseResetHz))
	b.gpio.WriteLevel(pinout.PhaseResetLine, true)
	b.log.V(1).Info("reset drive phase")
}
