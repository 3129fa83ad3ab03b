// Package board drives the mirror control board: power rails, stepper drives, USB ports and
// the ADC bank. Every index is zero based; the control package converts from the numbers
// operators use.
package board

import (
	"errors"

	"github.com/go-logr/logr"

	"github.com/CodedInternet/mirrorctl/onboard/adc"
	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
	"github.com/CodedInternet/mirrorctl/onboard/realtime"
	"github.com/CodedInternet/mirrorctl/onboard/spi"
)

const (
	DefaultFullScale    = 4.096
	DefaultPhaseResetHz = 100
)

// GPIO is the register access the board needs. *gpio.Controller implements it.
type GPIO interface {
	ReadLevel(pin int) bool
	WriteLevel(pin int, high bool)
}

type Config struct {
	FullScale    float64 // ADC reference in volts
	PhaseResetHz float64
}

func (c Config) WithDefaults() Config {
	if c.FullScale <= 0 {
		c.FullScale = DefaultFullScale
	}
	if c.PhaseResetHz <= 0 {
		c.PhaseResetHz = DefaultPhaseResetHz
	}
	return c
}

type Board struct {
	gpio GPIO
	spi  spi.Transport
	log  logr.Logger
	cfg  Config

	Clock realtime.Clock
	Sched realtime.Scheduler
}

func New(gpio GPIO, bus spi.Transport, log logr.Logger, cfg Config) *Board {
	return &Board{
		gpio:  gpio,
		spi:   bus,
		log:   log,
		cfg:   cfg.WithDefaults(),
		Clock: realtime.SystemClock{},
		Sched: realtime.NewOSScheduler(log),
	}
}

func (b *Board) Config() Config {
	return b.cfg
}

// Volts converts a raw ADC code using the board's reference.
func (b *Board) Volts(raw uint16) float64 {
	return adc.RawToVoltage(raw, b.cfg.FullScale)
}

func (b *Board) exchange(op string, word uint32) (uint32, error) {
	reply, err := b.spi.WriteRead(word)
	if err != nil {
		if errors.Is(err, berrors.ErrDeviceFault) {
			return 0, err
		}
		return 0, berrors.DeviceFault{Op: op, Err: err}
	}
	return reply, nil
}

// critical runs fn elevated, yielding once it returns.
func (b *Board) critical(fn func()) {
	release := b.Sched.Elevate()
	defer b.Sched.Yield()
	defer release()
	fn()
}
