package onboard

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/go-logr/zapr"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zaptest"

	"github.com/CodedInternet/mirrorctl/onboard/adc"
	"github.com/CodedInternet/mirrorctl/onboard/control"
	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
	"github.com/CodedInternet/mirrorctl/onboard/gpio"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
	"github.com/CodedInternet/mirrorctl/onboard/realtime"
)

func testConfig() BoardConfig {
	config, err := ParseConfig([]byte("version: 1\nrevision: 1.2.0\nadc:\n  samples: 8\n  settle_us: 1\n"))
	if err != nil {
		panic(err)
	}
	return config
}

func TestOpenHardware(t *testing.T) {
	Convey("a missing register device is an init fault", t, func() {
		config := testConfig()
		config.GPIO.Device = "/nonexistent/mem"
		_, err := OpenHardware(config, zapr.NewLogger(zaptest.NewLogger(t)))
		var fault berrors.InitFault
		So(errors.As(err, &fault), ShouldBeTrue)
	})
}

func TestMuxSource(t *testing.T) {
	Convey("Given simulated registers", t, func() {
		ctrl, _ := gpio.NewSimulated(zapr.NewLogger(zaptest.NewLogger(t)))
		ctrl.ConfigureAll()
		src := MuxSource(ctrl, func(device, channel int) uint16 {
			return uint16(device*10 + channel)
		})

		Convey("each device answers when selected", func() {
			ctrl.WriteLevel(pinout.MuxSelectLine(0), false)
			ctrl.WriteLevel(pinout.MuxSelectLine(1), true)
			So(src(3), ShouldEqual, uint16(3))
			ctrl.WriteLevel(pinout.MuxSelectLine(0), true)
			ctrl.WriteLevel(pinout.MuxSelectLine(1), false)
			So(src(3), ShouldEqual, uint16(13))
		})

		Convey("nothing selected reads zero", func() {
			ctrl.WriteLevel(pinout.MuxSelectLine(0), true)
			ctrl.WriteLevel(pinout.MuxSelectLine(1), true)
			So(src(3), ShouldEqual, uint16(0))
		})
	})
}

func TestNoisySignals(t *testing.T) {
	Convey("references are exact and inputs stay near their level", t, func() {
		src := NoisySignals(rand.New(rand.NewSource(7)))
		So(src(0, adc.RefMid), ShouldEqual, uint16(2048))
		So(src(1, adc.RefHigh), ShouldEqual, uint16(4095))
		for i := 0; i < 100; i++ {
			So(int(src(0, 6)), ShouldBeBetweenOrEqual, 750-SIM_NOISE, 750+SIM_NOISE)
			So(int(src(1, 2)), ShouldBeBetweenOrEqual, 1200-SIM_NOISE, 1200+SIM_NOISE)
		}
	})
}

func TestSimulatedHardware(t *testing.T) {
	Convey("Given simulated hardware", t, func() {
		log := zapr.NewLogger(zaptest.NewLogger(t))
		hw, _ := SimulatedHardware(log)
		config := testConfig()
		b := hw.NewBoard(config)
		b.Sched = realtime.NopScheduler{}
		d := control.New(b, log, config.Control())
		ctx := context.Background()

		Convey("everything starts switched off", func() {
			st, err := d.Status(ctx)
			So(err, ShouldBeNil)
			for _, on := range st.Rails {
				So(on, ShouldBeFalse)
			}
			for _, drive := range st.Drives {
				So(drive.Enabled, ShouldBeFalse)
			}
			for _, on := range st.USB {
				So(on, ShouldBeFalse)
			}
			So(hw.GPIO.ReadLevel(pinout.PhaseResetLine), ShouldBeTrue)
			So(hw.GPIO.ReadLevel(pinout.MuxSelectLine(0)), ShouldBeTrue)
			So(hw.GPIO.ReadLevel(pinout.MuxSelectLine(1)), ShouldBeTrue)
		})

		Convey("drives start healthy", func() {
			st, err := d.Status(ctx)
			So(err, ShouldBeNil)
			for _, drive := range st.Drives {
				So(drive.Fault, ShouldBeFalse)
			}
		})

		Convey("temperatures read near 0.75V", func() {
			r, err := d.Temperature(ctx, control.TempOnboard)
			So(err, ShouldBeNil)
			So(r.Mean, ShouldAlmostEqual, 0.75, 0.01)
			So(r.StdDev, ShouldBeLessThan, 0.01)
		})

		Convey("the mid reference reads half scale", func() {
			r, err := d.Reference(ctx, control.RefMid)
			So(err, ShouldBeNil)
			So(r.Mean, ShouldAlmostEqual, 2.048, 1e-9)
		})

		Convey("closing releases everything once", func() {
			So(hw.Close(), ShouldBeNil)
			So(hw.Close(), ShouldBeNil)
		})
	})
}
