package pinout

import (
	"fmt"

	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
)

const (
	NumDrives   = 6
	NumUSBPorts = 7
	NumADCMux   = 2
)

// Direction is the configuration policy applied to a GPIO line at start up.
type Direction int8

const (
	Untouched Direction = -1
	Output    Direction = 0
	Input     Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Output:
		return "output"
	case Input:
		return "input"
	default:
		return "untouched"
	}
}

// Signal binds a board signal name to the connector pin it is routed to.
type Signal struct {
	Name      string
	Connector int
	Direction Direction
}

// Connector pins of the board signals. Drive and USB tables are indexed from zero.
var (
	driveStepPins   = [NumDrives]int{73, 74, 75, 76, 77, 78}
	driveDirPins    = [NumDrives]int{79, 80, 81, 82, 83, 84}
	driveEnablePins = [NumDrives]int{105, 106, 107, 108, 109, 110}
	driveFaultPins  = [NumDrives]int{85, 86, 87, 88, 89, 90}
	usbOffPins      = [NumUSBPorts]int{120, 121, 122, 123, 124, 125, 126}
	adcMuxPins      = [NumADCMux]int{30, 31}

	// single signals
	ms1Pin        = 111
	ms2Pin        = 112
	phaseResetPin = 113
	highCurOffPin = 114
	srOffPin      = 115
	drivesOffPin  = 117
	encodersOff   = 118
	auxOffPin     = 127
	boardOffPin   = 128
	testPointPins = [4]int{131, 132, 133, 134}
	consolePins   = [2]int{19, 20}
)

// Resolved GPIO numbers, filled once by init.
var (
	stepLines   [NumDrives]int
	dirLines    [NumDrives]int
	enableLines [NumDrives]int
	faultLines  [NumDrives]int
	usbOffLines [NumUSBPorts]int
	muxLines    [NumADCMux]int

	MS1Line         int
	MS2Line         int
	PhaseResetLine  int
	HighCurrentLine int
	SyncRectLine    int
	DrivesOffLine   int
	EncodersOffLine int
	AuxOffLine      int
	BoardOffLine    int
	TestPointLines  [4]int
	ConsoleLines    [2]int

	signals    []Signal
	directions [NumGPIO]Direction
)

func init() {
	add := func(name string, pin int, dir Direction) int {
		gpio, ok := ConnectorToGPIO(pin)
		if !ok {
			panic(fmt.Sprintf("pinout: signal %s on connector pin %d is not a GPIO", name, pin))
		}
		signals = append(signals, Signal{Name: name, Connector: pin, Direction: dir})
		return gpio
	}

	for i := 0; i < NumDrives; i++ {
		stepLines[i] = add(fmt.Sprintf("DRV%d_STEP", i+1), driveStepPins[i], Output)
		dirLines[i] = add(fmt.Sprintf("DRV%d_DIR", i+1), driveDirPins[i], Output)
		enableLines[i] = add(fmt.Sprintf("DRV%d_nEN", i+1), driveEnablePins[i], Output)
		faultLines[i] = add(fmt.Sprintf("DRV%d_nFAULT", i+1), driveFaultPins[i], Input)
	}
	for i := 0; i < NumUSBPorts; i++ {
		usbOffLines[i] = add(fmt.Sprintf("USB%d_OFF", i+1), usbOffPins[i], Output)
	}
	for i := 0; i < NumADCMux; i++ {
		muxLines[i] = add(fmt.Sprintf("ADC_MUX_SEL%d", i), adcMuxPins[i], Output)
	}

	MS1Line = add("MS1", ms1Pin, Output)
	MS2Line = add("MS2", ms2Pin, Output)
	PhaseResetLine = add("DRV_nRESET", phaseResetPin, Output)
	HighCurrentLine = add("HICUR_OFF", highCurOffPin, Output)
	SyncRectLine = add("SR_OFF", srOffPin, Output)
	DrivesOffLine = add("DRV_OFF", drivesOffPin, Output)
	EncodersOffLine = add("ENC_OFF", encodersOff, Output)
	AuxOffLine = add("AUX_OFF", auxOffPin, Output)
	BoardOffLine = add("BOARD_OFF", boardOffPin, Output)
	for i, pin := range testPointPins {
		TestPointLines[i] = add(fmt.Sprintf("TP%d", i+1), pin, Output)
	}
	// the kernel owns the console UART
	for i, pin := range consolePins {
		ConsoleLines[i] = add(fmt.Sprintf("CONSOLE_%d", i), pin, Untouched)
	}

	for i := range directions {
		directions[i] = Untouched
	}
	for _, s := range signals {
		gpio, _ := ConnectorToGPIO(s.Connector)
		if directions[gpio] != Untouched {
			panic(fmt.Sprintf("pinout: GPIO %d assigned twice (%s)", gpio, s.Name))
		}
		directions[gpio] = s.Direction
	}
}

// DefaultDirection returns the policy for a GPIO line. Lines outside 0..191 are Untouched.
func DefaultDirection(gpio int) Direction {
	if !ValidGPIO(gpio) {
		return Untouched
	}
	return directions[gpio]
}

// Signals returns the named board signals in declaration order.
func Signals() []Signal {
	out := make([]Signal, len(signals))
	copy(out, signals)
	return out
}

func checkIndex(kind string, i, limit int) {
	if i < 0 || i >= limit {
		panic(berrors.IndexError{Kind: kind, Index: i, Limit: limit})
	}
}

func StepLine(drive int) int {
	checkIndex("drive", drive, NumDrives)
	return stepLines[drive]
}

func DirLine(drive int) int {
	checkIndex("drive", drive, NumDrives)
	return dirLines[drive]
}

// EnableLine returns the active-low enable of a drive.
func EnableLine(drive int) int {
	checkIndex("drive", drive, NumDrives)
	return enableLines[drive]
}

// FaultLine returns the active-low fault output of a drive.
func FaultLine(drive int) int {
	checkIndex("drive", drive, NumDrives)
	return faultLines[drive]
}

func USBOffLine(usb int) int {
	checkIndex("usb", usb, NumUSBPorts)
	return usbOffLines[usb]
}

func MuxSelectLine(mux int) int {
	checkIndex("adc mux", mux, NumADCMux)
	return muxLines[mux]
}

// IdleHighLines lists the active low outputs. Driving them high releases every rail, drive,
// port and mux select.
func IdleHighLines() []int {
	lines := []int{PhaseResetLine, HighCurrentLine, SyncRectLine, DrivesOffLine, EncodersOffLine, AuxOffLine, BoardOffLine}
	lines = append(lines, enableLines[:]...)
	lines = append(lines, usbOffLines[:]...)
	lines = append(lines, muxLines[:]...)
	return lines
}
