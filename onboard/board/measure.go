package board

import (
	"time"

	"github.com/CodedInternet/mirrorctl/onboard/adc"
	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
	"github.com/CodedInternet/mirrorctl/onboard/realtime"
)

// selectDevice routes the bus chip select to one ADC. The mux lines are one hot, active low;
// a device of -1 releases both.
func (b *Board) selectDevice(device int) {
	for i := 0; i < pinout.NumADCMux; i++ {
		b.gpio.WriteLevel(pinout.MuxSelectLine(i), i != device)
	}
}

// MeasureWithStats captures n conversions of channel on ADC device, waiting settle before each
// capture, and returns their statistics.
func (b *Board) MeasureWithStats(device, channel, n int, settle time.Duration) (st Stats, err error) {
	if device < 0 || device >= pinout.NumADCMux {
		panic(berrors.IndexError{Kind: "adc device", Index: device, Limit: pinout.NumADCMux})
	}
	if !adc.ValidChannel(channel) {
		panic(berrors.IndexError{Kind: "adc channel", Index: channel, Limit: adc.Channels})
	}
	if n < 1 {
		return st, berrors.ArgumentError{Name: "sample count", Value: n, Want: "at least 1"}
	}

	samples := make([]uint16, n)
	b.critical(func() {
		b.selectDevice(device)
		defer func() {
			if err != nil {
				// best effort, the first error is the one reported
				b.spi.WriteRead(adc.EncodePowerDown())
				b.selectDevice(-1)
			}
		}()

		if _, err = b.exchange("adc initialize", adc.EncodeInitialize()); err != nil {
			return
		}
		if _, err = b.exchange("adc configure", adc.EncodeConfig()); err != nil {
			return
		}
		// the first reply belongs to whatever was converted before
		if _, err = b.exchange("adc select", adc.EncodeSelect(channel)); err != nil {
			return
		}

		for i := range samples {
			realtime.BusyWait(b.Clock, settle)
			cmd := adc.EncodeSelect(channel)
			if i == n-1 {
				cmd = adc.EncodeReadFIFO()
			}
			var reply uint32
			if reply, err = b.exchange("adc capture", cmd); err != nil {
				return
			}
			samples[i] = adc.DecodeSample(reply)
		}

		_, err = b.exchange("adc power down", adc.EncodePowerDown())
	})
	if err != nil {
		b.log.Error(err, "adc measurement failed", "device", device, "channel", channel)
		return Stats{}, err
	}

	st = ComputeStats(samples, b.cfg.FullScale)
	b.log.V(1).Info("measured", "device", device, "channel", channel, "n", n,
		"mean", st.MeanV, "stddev", st.StdDevV, "home", st.Home.String())
	return st, nil
}
