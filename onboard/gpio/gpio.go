// Package gpio gives bit level access to the six memory mapped GPIO banks of the processor.
//
// Lines are addressed by logical GPIO number (0..191); the bank, register and bit mask are
// resolved here. The hardware has no set/clear registers in use: level and direction changes
// are a read-modify-write of the whole 32-bit register, so the other 31 lines pass through
// unchanged.
package gpio

import (
	"sync"

	"github.com/go-logr/logr"

	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
)

const DefaultDevice = "/dev/mem"

// Physical base address of each bank, GPIO1..GPIO6.
var bankBases = [pinout.NumBanks]int64{
	0x48310000,
	0x49050000,
	0x49052000,
	0x49054000,
	0x49056000,
	0x49058000,
}

type Controller struct {
	banks   [pinout.NumBanks]Window
	log     logr.Logger
	release func() error
	once    sync.Once
	err     error
}

func NewController(banks [pinout.NumBanks]Window, log logr.Logger) *Controller {
	for i, b := range banks {
		if b == nil {
			panic(berrors.IndexError{Kind: "unmapped bank", Index: i, Limit: pinout.NumBanks})
		}
	}
	return &Controller{banks: banks, log: log}
}

// NewSimulated returns a controller over six loopback banks, plus the banks so tests can
// drive input levels.
func NewSimulated(log logr.Logger) (*Controller, [pinout.NumBanks]*Loopback) {
	var sims [pinout.NumBanks]*Loopback
	var banks [pinout.NumBanks]Window
	for i := range banks {
		sims[i] = NewLoopback()
		banks[i] = sims[i]
	}
	return NewController(banks, log), sims
}

func (c *Controller) resolve(pin int) (Window, uint32) {
	if !pinout.ValidGPIO(pin) {
		panic(berrors.IndexError{Kind: "gpio", Index: pin, Limit: pinout.NumGPIO})
	}
	return c.banks[pinout.Bank(pin)], 1 << pinout.Bit(pin)
}

func (c *Controller) modify(w Window, off uintptr, mask uint32, set bool) {
	v := w.Load(off)
	if set {
		v |= mask
	} else {
		v &^= mask
	}
	w.Store(off, v)
}

// ReadLevel returns the pad level of a line, whatever its direction.
func (c *Controller) ReadLevel(pin int) bool {
	w, mask := c.resolve(pin)
	return w.Load(RegDataIn)&mask != 0
}

func (c *Controller) WriteLevel(pin int, high bool) {
	w, mask := c.resolve(pin)
	c.modify(w, RegDataOut, mask, high)
}

// IsInput reports the configured direction of a line.
func (c *Controller) IsInput(pin int) bool {
	w, mask := c.resolve(pin)
	return w.Load(RegOE)&mask != 0
}

func (c *Controller) SetDirection(pin int, input bool) {
	w, mask := c.resolve(pin)
	c.modify(w, RegOE, mask, input)
}

// ConfigureAll applies the board's default direction to every line. Untouched lines are
// never written, so it is safe to call repeatedly.
func (c *Controller) ConfigureAll() (outputs, inputs int) {
	for pin := 0; pin < pinout.NumGPIO; pin++ {
		switch pinout.DefaultDirection(pin) {
		case pinout.Output:
			c.SetDirection(pin, false)
			outputs++
		case pinout.Input:
			c.SetDirection(pin, true)
			inputs++
		}
	}
	c.log.V(1).Info("configured gpio directions", "outputs", outputs, "inputs", inputs)
	return
}

// Close releases the bank mappings. Only the first call has any effect.
func (c *Controller) Close() error {
	c.once.Do(func() {
		if c.release != nil {
			c.err = c.release()
		}
	})
	return c.err
}
