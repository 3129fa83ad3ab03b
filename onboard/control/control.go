// Package control is the operator facing boundary of the board. Drives, USB ports and ADC
// devices are numbered from one here, and every call is serialised so only one operation
// touches the hardware at a time.
package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/CodedInternet/mirrorctl/onboard/board"
	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
)

const (
	DefaultSamples   = 64
	DefaultSettle    = 10 * time.Microsecond
	DefaultMaxStepHz = 5000
)

type Config struct {
	Samples   int           // conversions per measurement
	Settle    time.Duration // wait before each conversion
	MaxStepHz float64
}

func (c Config) WithDefaults() Config {
	if c.Samples <= 0 {
		c.Samples = DefaultSamples
	}
	if c.Settle < 0 {
		c.Settle = 0
	}
	if c.MaxStepHz <= 0 {
		c.MaxStepHz = DefaultMaxStepHz
	}
	return c
}

type Dispatcher struct {
	board *board.Board
	sem   *semaphore.Weighted
	log   logr.Logger
	cfg   Config
}

func New(b *board.Board, log logr.Logger, cfg Config) *Dispatcher {
	return &Dispatcher{
		board: b,
		sem:   semaphore.NewWeighted(1),
		log:   log,
		cfg:   cfg.WithDefaults(),
	}
}

func (d *Dispatcher) Config() Config {
	return d.cfg
}

// do runs fn with exclusive use of the board. Argument errors pass through; anything the
// hardware reports, including a panic from the core, becomes ErrDeviceFault. An IndexError is
// a wiring bug in the tables and keeps panicking.
func (d *Dispatcher) do(ctx context.Context, op string, fn func() error) (err error) {
	if err = d.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer d.sem.Release(1)

	log := d.log.WithValues("op", op, "id", uuid.New().String())
	log.V(1).Info("start")
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(berrors.IndexError); ok {
				log.Error(ie, "line table index out of range")
				panic(ie)
			}
			err = berrors.DeviceFault{Op: op, Err: fmt.Errorf("%v", r)}
		}
		switch {
		case err == nil:
			log.V(1).Info("done", "took", time.Since(start).String())
		case errors.Is(err, berrors.ErrDeviceFault):
			log.Error(err, "hardware fault")
			err = berrors.ErrDeviceFault
		default:
			log.V(1).Info("failed", "error", err.Error())
		}
	}()

	return fn()
}

func checkRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return berrors.ArgumentError{Name: name, Value: v, Want: fmt.Sprintf("%d..%d", lo, hi)}
	}
	return nil
}
