package adc

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
)

func TestEncode(t *testing.T) {
	Convey("fixed commands", t, func() {
		So(EncodeInitialize(), ShouldEqual, uint32(0xA0000000))
		So(EncodeConfig(), ShouldEqual, uint32(0xA2080000))
		So(EncodeReadFIFO(), ShouldEqual, uint32(0xE0000000))
		So(EncodePowerDown(), ShouldEqual, uint32(0x80000000))
		So(EncodeReadConfig(), ShouldEqual, uint32(0x90000000))
	})

	Convey("selecting inputs puts the channel in the command nibble", t, func() {
		for ch := 0; ch < Inputs; ch++ {
			So(EncodeSelect(ch), ShouldEqual, uint32(ch)<<28)
		}
	})

	Convey("selecting references", t, func() {
		So(EncodeSelect(RefMid), ShouldEqual, uint32(0xB0000000))
		So(EncodeSelect(RefLow), ShouldEqual, uint32(0xC0000000))
		So(EncodeSelect(RefHigh), ShouldEqual, uint32(0xD0000000))
	})

	Convey("channel 8 and anything past the references panic", t, func() {
		for _, ch := range []int{-1, 8, 12, 15} {
			So(ValidChannel(ch), ShouldBeFalse)
			So(func() { EncodeSelect(ch) }, ShouldPanic)
		}
	})
}

func TestDecode(t *testing.T) {
	Convey("samples come from bits 31..20", t, func() {
		So(DecodeSample(0xFFF00000), ShouldEqual, uint16(4095))
		So(DecodeSample(0x000FFFFF), ShouldEqual, uint16(0))
		So(DecodeSample(encodeSample(1750)), ShouldEqual, uint16(1750))
	})

	Convey("voltage conversion", t, func() {
		So(RawToVoltage(1750, 4.096), ShouldAlmostEqual, 1.75, 1e-9)
		So(RawToVoltage(0, 4.096), ShouldEqual, 0.0)
		So(VoltageToRaw(1.75, 4.096), ShouldEqual, uint16(1750))
		So(VoltageToRaw(-1, 4.096), ShouldEqual, uint16(0))
		So(VoltageToRaw(10, 4.096), ShouldEqual, uint16(4095))
	})
}

func TestSimulator(t *testing.T) {
	Convey("Given a simulator answering channel*100", t, func() {
		sim := NewSimulator(func(ch int) uint16 { return uint16(ch * 100) })

		Convey("a conversion is answered one exchange late", func() {
			r, err := sim.WriteRead(EncodeSelect(3))
			So(err, ShouldBeNil)
			So(DecodeSample(r), ShouldEqual, uint16(0))

			r, _ = sim.WriteRead(EncodeSelect(5))
			So(DecodeSample(r), ShouldEqual, uint16(300))

			r, _ = sim.WriteRead(EncodeReadFIFO())
			So(DecodeSample(r), ShouldEqual, uint16(500))

			r, _ = sim.WriteRead(EncodeReadFIFO())
			So(DecodeSample(r), ShouldEqual, uint16(0))
		})

		Convey("configuration is kept and can be read back", func() {
			sim.WriteRead(EncodeConfig())
			So(sim.Config(), ShouldEqual, uint32(boardCFR))
			r, _ := sim.WriteRead(EncodeReadConfig())
			So(r>>sampleLSB, ShouldEqual, uint32(boardCFR))
		})

		Convey("power down clears the pipeline", func() {
			sim.WriteRead(EncodeSelect(2))
			So(sim.Powered(), ShouldBeTrue)
			sim.WriteRead(EncodePowerDown())
			So(sim.Powered(), ShouldBeFalse)
			r, _ := sim.WriteRead(EncodeReadFIFO())
			So(DecodeSample(r), ShouldEqual, uint16(0))
		})

		Convey("every word sent is recorded", func() {
			sim.WriteRead(EncodeInitialize())
			sim.WriteRead(EncodeSelect(1))
			So(sim.Sent(), ShouldResemble, []uint32{EncodeInitialize(), EncodeSelect(1)})
		})

		Convey("only the most recent words are kept", func() {
			for i := 0; i < SentLimit+10; i++ {
				sim.WriteRead(EncodeSelect(i % Inputs))
			}
			sim.WriteRead(EncodePowerDown())
			sent := sim.Sent()
			So(sent, ShouldHaveLength, SentLimit)
			So(sent[len(sent)-1], ShouldEqual, EncodePowerDown())
			So(sent[0], ShouldEqual, EncodeSelect(10%Inputs))
		})

		Convey("an injected failure is a device fault", func() {
			sim.Fail(errors.New("bus stuck"))
			_, err := sim.WriteRead(EncodeSelect(1))
			So(errors.Is(err, berrors.ErrDeviceFault), ShouldBeTrue)
			sim.Fail(nil)
			_, err = sim.WriteRead(EncodeSelect(1))
			So(err, ShouldBeNil)
		})
	})

	Convey("the default source answers the references", t, func() {
		sim := NewSimulator(nil)
		sim.WriteRead(EncodeSelect(RefHigh))
		r, _ := sim.WriteRead(EncodeReadFIFO())
		So(DecodeSample(r), ShouldEqual, uint16(4095))
	})
}
