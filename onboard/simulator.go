package onboard

import (
	"math/rand"
	"time"

	"github.com/go-logr/logr"

	"github.com/CodedInternet/mirrorctl/onboard/adc"
	"github.com/CodedInternet/mirrorctl/onboard/board"
	"github.com/CodedInternet/mirrorctl/onboard/gpio"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
)

const SIM_NOISE = 4 // codes either side of the nominal level

// DeviceSource answers a conversion on one of the ADC devices.
type DeviceSource func(device, channel int) uint16

// MuxSource routes conversions to the device selected on the mux lines. With nothing selected
// the bus floats and reads zero.
func MuxSource(g board.GPIO, src DeviceSource) adc.Source {
	return func(ch int) uint16 {
		for dev := 0; dev < pinout.NumADCMux; dev++ {
			if !g.ReadLevel(pinout.MuxSelectLine(dev)) {
				return src(dev, ch)
			}
		}
		return 0
	}
}

// NoisySignals produces steady levels with a little noise: the references at their nominal
// codes, temperatures near 0.75V and each encoder at its own level.
func NoisySignals(rng *rand.Rand) DeviceSource {
	return func(device, channel int) uint16 {
		switch channel {
		case adc.RefLow:
			return 0
		case adc.RefMid:
			return adc.FullCode / 2
		case adc.RefHigh:
			return adc.FullCode - 1
		}

		level := 750
		if device == 1 {
			level = 400 + 400*channel
		}
		level += rng.Intn(2*SIM_NOISE+1) - SIM_NOISE
		if level < 0 {
			level = 0
		}
		return uint16(level)
	}
}

// SimulatedHardware is a Hardware on loopback registers and a simulated converter. Every drive
// reports healthy and every active low line starts released.
func SimulatedHardware(log logr.Logger) (*Hardware, *adc.Simulator) {
	ctrl, banks := gpio.NewSimulated(log)
	releaseLines(ctrl)
	ctrl.ConfigureAll()

	for d := 0; d < pinout.NumDrives; d++ {
		line := pinout.FaultLine(d)
		banks[pinout.Bank(line)].Drive(pinout.Bit(line), true)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sim := adc.NewSimulator(MuxSource(ctrl, NoisySignals(rng)))

	log.Info("running on simulated hardware")
	return &Hardware{GPIO: ctrl, SPI: sim, log: log}, sim
}
