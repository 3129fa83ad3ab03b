package control

import (
	"context"

	"github.com/CodedInternet/mirrorctl/onboard/adc"
	"github.com/CodedInternet/mirrorctl/onboard/board"
	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
)

// Reading is a measurement in volts.
type Reading struct {
	Mean   float64         `json:"mean"`
	StdDev float64         `json:"stddev"`
	Min    float64         `json:"min"`
	Max    float64         `json:"max"`
	Home   board.HomeState `json:"home"`
}

func reading(st board.Stats) Reading {
	return Reading{Mean: st.MeanV, StdDev: st.StdDevV, Min: st.MinV, Max: st.MaxV, Home: st.Home}
}

type TempSensor int

const (
	TempOnboard TempSensor = iota
	TempExternal
)

type Reference int

const (
	RefLow Reference = iota
	RefMid
	RefHigh
)

// Board wiring of the measured quantities, in device and channel numbers from zero.
const (
	tempDevice    = 0
	encoderDevice = 1
	refDevice     = 0
)

var (
	tempChannels = map[TempSensor]int{TempOnboard: 6, TempExternal: 7}
	refChannels  = map[Reference]int{RefLow: adc.RefLow, RefMid: adc.RefMid, RefHigh: adc.RefHigh}
)

func (d *Dispatcher) sample(device, channel, n int) (Reading, error) {
	st, err := d.board.MeasureWithStats(device, channel, n, d.cfg.Settle)
	if err != nil {
		return Reading{}, err
	}
	return reading(st), nil
}

func (d *Dispatcher) measure(ctx context.Context, op string, device, channel, n int) (r Reading, err error) {
	err = d.do(ctx, op, func() (err error) {
		r, err = d.sample(device, channel, n)
		return
	})
	return
}

func (d *Dispatcher) Temperature(ctx context.Context, sensor TempSensor) (Reading, error) {
	ch, ok := tempChannels[sensor]
	if !ok {
		return Reading{}, berrors.ArgumentError{Name: "temperature sensor", Value: int(sensor), Want: "onboard or external"}
	}
	return d.measure(ctx, "temperature", tempDevice, ch, d.cfg.Samples)
}

// Encoder reads encoder 1..8.
func (d *Dispatcher) Encoder(ctx context.Context, n int) (Reading, error) {
	if err := checkRange("encoder", n, 1, adc.Inputs); err != nil {
		return Reading{}, err
	}
	return d.measure(ctx, "encoder", encoderDevice, n-1, d.cfg.Samples)
}

func (d *Dispatcher) Reference(ctx context.Context, ref Reference) (Reading, error) {
	ch, ok := refChannels[ref]
	if !ok {
		return Reading{}, berrors.ArgumentError{Name: "reference", Value: int(ref), Want: "low, mid or high"}
	}
	return d.measure(ctx, "reference", refDevice, ch, d.cfg.Samples)
}

// ReadADC measures channel 1..8 of ADC device 1..2, or all eight inputs for channel 0. n of
// zero uses the configured sample count.
func (d *Dispatcher) ReadADC(ctx context.Context, device, channel, n int) ([]Reading, error) {
	if err := checkRange("adc device", device, 1, pinout.NumADCMux); err != nil {
		return nil, err
	}
	if err := checkRange("adc channel", channel, 0, adc.Inputs); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, berrors.ArgumentError{Name: "sample count", Value: n, Want: "not negative"}
	}
	if n == 0 {
		n = d.cfg.Samples
	}

	channels := []int{channel - 1}
	if channel == 0 {
		channels = channels[:0]
		for ch := 0; ch < adc.Inputs; ch++ {
			channels = append(channels, ch)
		}
	}

	// one operation for the whole sweep, nothing runs between channels
	readings := make([]Reading, 0, len(channels))
	err := d.do(ctx, "read adc", func() error {
		for _, ch := range channels {
			r, err := d.sample(device-1, ch, n)
			if err != nil {
				return err
			}
			readings = append(readings, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return readings, nil
}
