package control

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/zapr"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zaptest"

	"github.com/CodedInternet/mirrorctl/onboard/adc"
	"github.com/CodedInternet/mirrorctl/onboard/board"
	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
	"github.com/CodedInternet/mirrorctl/onboard/gpio"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
	"github.com/CodedInternet/mirrorctl/onboard/realtime"
)

type tickClock struct {
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.now = c.now.Add(time.Microsecond)
	return c.now
}

type fixture struct {
	d    *Dispatcher
	b    *board.Board
	ctrl *gpio.Controller
	sim  *adc.Simulator
}

// newFixture wires a dispatcher to simulated registers and a converter answering
// device*1000 + channel*100 for the inputs.
func newFixture(t *testing.T) *fixture {
	log := zapr.NewLogger(zaptest.NewLogger(t))
	ctrl, _ := gpio.NewSimulated(log)
	ctrl.ConfigureAll()

	sim := adc.NewSimulator(func(ch int) uint16 {
		if ch >= adc.Inputs {
			return uint16(ch * 100)
		}
		dev := 0
		if !ctrl.ReadLevel(pinout.MuxSelectLine(1)) {
			dev = 1
		}
		return uint16(dev*1000 + ch*100)
	})

	b := board.New(ctrl, sim, log, board.Config{})
	b.Clock = &tickClock{}
	b.Sched = realtime.NopScheduler{}
	return &fixture{
		d:    New(b, log, Config{Samples: 4, MaxStepHz: 10000}),
		b:    b,
		ctrl: ctrl,
		sim:  sim,
	}
}

func isArgumentError(err error) bool {
	var arg berrors.ArgumentError
	return errors.As(err, &arg)
}

func TestValidation(t *testing.T) {
	Convey("Given a dispatcher", t, func() {
		f := newFixture(t)
		ctx := context.Background()

		Convey("drives are numbered 1..6", func() {
			So(isArgumentError(f.d.SetDrive(ctx, 0, true)), ShouldBeTrue)
			So(isArgumentError(f.d.SetDrive(ctx, 7, true)), ShouldBeTrue)
			_, err := f.d.Step(ctx, 0, 1, 100)
			So(isArgumentError(err), ShouldBeTrue)
			_, err = f.d.Drive(ctx, 7)
			So(isArgumentError(err), ShouldBeTrue)
		})

		Convey("usb ports are numbered 1..7 with 0 for all", func() {
			So(isArgumentError(f.d.SetUSB(ctx, 8, true)), ShouldBeTrue)
			So(isArgumentError(f.d.SetUSB(ctx, -1, true)), ShouldBeTrue)
			_, err := f.d.USBEnabled(ctx, 0)
			So(isArgumentError(err), ShouldBeTrue)
		})

		Convey("adc arguments", func() {
			_, err := f.d.ReadADC(ctx, 0, 1, 1)
			So(isArgumentError(err), ShouldBeTrue)
			_, err = f.d.ReadADC(ctx, 3, 1, 1)
			So(isArgumentError(err), ShouldBeTrue)
			_, err = f.d.ReadADC(ctx, 1, 9, 1)
			So(isArgumentError(err), ShouldBeTrue)
			_, err = f.d.Encoder(ctx, 0)
			So(isArgumentError(err), ShouldBeTrue)
			_, err = f.d.Temperature(ctx, TempSensor(5))
			So(isArgumentError(err), ShouldBeTrue)
		})

		Convey("motion arguments", func() {
			So(isArgumentError(f.d.SetMicrostep(ctx, 3)), ShouldBeTrue)
			_, err := f.d.Step(ctx, 1, 1, 0)
			So(isArgumentError(err), ShouldBeTrue)
			_, err = f.d.Step(ctx, 1, 1, 20000)
			So(isArgumentError(err), ShouldBeTrue)
			_, err = f.d.Pulse(ctx, 1, -1, 100)
			So(isArgumentError(err), ShouldBeTrue)
		})

		Convey("rejected calls never reach the converter", func() {
			f.d.ReadADC(ctx, 3, 1, 1)
			f.d.Encoder(ctx, 9)
			So(f.sim.Sent(), ShouldBeEmpty)
		})

		Convey("rails resolve by name", func() {
			r, err := RailByName("encoders")
			So(err, ShouldBeNil)
			So(r, ShouldEqual, board.RailEncoders)
			_, err = RailByName("flux")
			So(isArgumentError(err), ShouldBeTrue)
			So(isArgumentError(f.d.SetRail(ctx, board.Rail(42), true)), ShouldBeTrue)
		})
	})
}

func TestPower(t *testing.T) {
	Convey("Given a dispatcher", t, func() {
		f := newFixture(t)
		ctx := context.Background()

		Convey("drive numbers are one based", func() {
			So(f.d.SetDrive(ctx, 1, true), ShouldBeNil)
			So(f.b.DriveEnabled(0), ShouldBeTrue)
			So(f.d.SetDrive(ctx, 6, true), ShouldBeNil)
			So(f.b.DriveEnabled(5), ShouldBeTrue)
			So(f.d.SetDrive(ctx, 1, false), ShouldBeNil)
			So(f.b.DriveEnabled(0), ShouldBeFalse)
		})

		Convey("usb 0 switches every port", func() {
			So(f.d.SetUSB(ctx, 0, true), ShouldBeNil)
			for p := 1; p <= pinout.NumUSBPorts; p++ {
				on, err := f.d.USBEnabled(ctx, p)
				So(err, ShouldBeNil)
				So(on, ShouldBeTrue)
			}
			So(f.d.SetUSB(ctx, 3, false), ShouldBeNil)
			So(f.b.USBEnabled(2), ShouldBeFalse)
			So(f.b.USBEnabled(3), ShouldBeTrue)
		})

		Convey("rails", func() {
			So(f.d.SetRail(ctx, board.RailHighCurrent, true), ShouldBeNil)
			on, err := f.d.RailEnabled(ctx, board.RailHighCurrent)
			So(err, ShouldBeNil)
			So(on, ShouldBeTrue)
		})

		Convey("status reflects the board", func() {
			f.d.SetDrive(ctx, 2, true)
			f.d.SetUSB(ctx, 7, true)
			f.d.SetMicrostep(ctx, 4)
			f.d.SetRail(ctx, board.RailSyncRect, true)

			st, err := f.d.Status(ctx)
			So(err, ShouldBeNil)
			So(st.Drives, ShouldHaveLength, pinout.NumDrives)
			So(st.Drives[1].Enabled, ShouldBeTrue)
			So(st.USB[6], ShouldBeTrue)
			So(st.Microstep, ShouldEqual, 4)
			So(st.Rails["syncrect"], ShouldBeTrue)
		})
	})
}

func TestMotion(t *testing.T) {
	Convey("Given a dispatcher", t, func() {
		f := newFixture(t)
		ctx := context.Background()

		Convey("a positive count extends", func() {
			done, err := f.d.Step(ctx, 2, 3, 1000)
			So(err, ShouldBeNil)
			So(done, ShouldEqual, 3)
			So(f.ctrl.ReadLevel(pinout.DirLine(1)), ShouldBeTrue)
		})

		Convey("a negative count retracts", func() {
			f.d.Step(ctx, 2, 1, 1000)
			done, err := f.d.Step(ctx, 2, -5, 1000)
			So(err, ShouldBeNil)
			So(done, ShouldEqual, 5)
			So(f.ctrl.ReadLevel(pinout.DirLine(1)), ShouldBeFalse)
		})

		Convey("pulses keep the direction", func() {
			f.d.Step(ctx, 1, 1, 1000)
			done, err := f.d.Pulse(ctx, 1, 2, 1000)
			So(err, ShouldBeNil)
			So(done, ShouldEqual, 2)
			So(f.ctrl.ReadLevel(pinout.DirLine(0)), ShouldBeTrue)
		})

		Convey("a cancelled move sends nothing", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			done, err := f.d.Step(cctx, 1, 10, 1000)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(done, ShouldEqual, 0)
		})

		Convey("microstep round trips", func() {
			So(f.d.SetMicrostep(ctx, 8), ShouldBeNil)
			m, err := f.d.Microstep(ctx)
			So(err, ShouldBeNil)
			So(m, ShouldEqual, 8)
		})

		Convey("phase reset finishes with the line released", func() {
			So(f.d.ResetPhase(ctx), ShouldBeNil)
			So(f.ctrl.ReadLevel(pinout.PhaseResetLine), ShouldBeTrue)
		})
	})
}

func TestMeasurement(t *testing.T) {
	Convey("Given a dispatcher", t, func() {
		f := newFixture(t)
		ctx := context.Background()

		Convey("temperatures come from ADC 1 channels 7 and 8", func() {
			r, err := f.d.Temperature(ctx, TempOnboard)
			So(err, ShouldBeNil)
			So(r.Mean, ShouldAlmostEqual, 0.6, 1e-9)
			r, _ = f.d.Temperature(ctx, TempExternal)
			So(r.Mean, ShouldAlmostEqual, 0.7, 1e-9)
			So(r.StdDev, ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("encoders come from ADC 2", func() {
			r, err := f.d.Encoder(ctx, 3)
			So(err, ShouldBeNil)
			So(r.Mean, ShouldAlmostEqual, 1.2, 1e-9)
			So(r.Min, ShouldAlmostEqual, 1.2, 1e-9)
			So(r.Max, ShouldAlmostEqual, 1.2, 1e-9)
		})

		Convey("references", func() {
			r, err := f.d.Reference(ctx, RefHigh)
			So(err, ShouldBeNil)
			So(r.Mean, ShouldAlmostEqual, 1.1, 1e-9)
			r, _ = f.d.Reference(ctx, RefLow)
			So(r.Mean, ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("channel 0 reads every input", func() {
			rs, err := f.d.ReadADC(ctx, 2, 0, 2)
			So(err, ShouldBeNil)
			So(rs, ShouldHaveLength, adc.Inputs)
			So(rs[0].Mean, ShouldAlmostEqual, 1.0, 1e-9)
			So(rs[7].Mean, ShouldAlmostEqual, 1.7, 1e-9)
		})

		Convey("a single channel is one based", func() {
			rs, err := f.d.ReadADC(ctx, 1, 1, 0)
			So(err, ShouldBeNil)
			So(rs, ShouldHaveLength, 1)
			So(rs[0].Mean, ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("bus failures collapse to the device fault", func() {
			f.sim.Fail(errors.New("EIO"))
			_, err := f.d.Encoder(ctx, 1)
			So(err, ShouldEqual, berrors.ErrDeviceFault)
		})
	})
}

func TestSerialisation(t *testing.T) {
	Convey("a call waits for the one in flight", t, func() {
		f := newFixture(t)
		f.b.DisableDrive(0)
		So(f.b.DriveEnabled(0), ShouldBeFalse)
		So(f.d.sem.Acquire(context.Background(), 1), ShouldBeNil)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := f.d.SetDrive(ctx, 1, true)
		So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		So(f.b.DriveEnabled(0), ShouldBeFalse)

		f.d.sem.Release(1)
		So(f.d.SetDrive(context.Background(), 1, true), ShouldBeNil)
	})

	Convey("a panic in the core is a device fault", t, func() {
		f := newFixture(t)
		err := f.d.do(context.Background(), "boom", func() error {
			panic("bus wedged")
		})
		So(err, ShouldEqual, berrors.ErrDeviceFault)
		// the semaphore was released
		So(f.d.SetDrive(context.Background(), 1, true), ShouldBeNil)
	})

	Convey("an index out of the line tables keeps panicking", t, func() {
		f := newFixture(t)
		So(func() {
			f.d.do(context.Background(), "wiring", func() error {
				panic(berrors.IndexError{Kind: "drive", Index: 9, Limit: 6})
			})
		}, ShouldPanicWith, berrors.IndexError{Kind: "drive", Index: 9, Limit: 6})
		So(f.d.SetDrive(context.Background(), 1, true), ShouldBeNil)
	})

	Convey("an all channel read is one operation", t, func() {
		f := newFixture(t)
		var (
			mu     sync.Mutex
			events []string
			once   sync.Once
		)
		record := func(e string) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		}
		done := make(chan struct{})

		f.sim.Source = func(ch int) uint16 {
			record("convert")
			once.Do(func() {
				go func() {
					f.d.SetDrive(context.Background(), 1, true)
					record("drive")
					close(done)
				}()
			})
			return uint16(ch * 100)
		}

		rs, err := f.d.ReadADC(context.Background(), 1, 0, 2)
		So(err, ShouldBeNil)
		So(rs, ShouldHaveLength, adc.Inputs)
		<-done

		mu.Lock()
		defer mu.Unlock()
		So(events[len(events)-1], ShouldEqual, "drive")
		So(len(events), ShouldEqual, adc.Inputs*2+1)
	})
}
