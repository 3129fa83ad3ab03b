package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceFault is the single condition hardware faults are reported as at the control boundary.
	ErrDeviceFault = errors.New("device fault")

	ErrBadMicrostep = errors.New("microstep mode must be 1, 2, 4 or 8")
	ErrBadFrequency = errors.New("step frequency must be positive")
)

// InitFault is returned when the register windows or device nodes cannot be established.
// There is no degraded mode, callers are expected to exit.
type InitFault struct {
	Resource string
	Err      error
}

func (err InitFault) Error() string {
	return fmt.Sprintf("unable to initialise %s: %v", err.Resource, err.Err)
}

func (err InitFault) Unwrap() error {
	return err.Err
}

// ConfigFault is returned when a bus setting cannot be applied or does not read back.
type ConfigFault struct {
	Setting string
	Want    uint32
	Got     uint32
	Err     error
}

func (err ConfigFault) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("unable to configure %s: %v", err.Setting, err.Err)
	}
	return fmt.Sprintf("unable to configure %s: wrote %d, read back %d", err.Setting, err.Want, err.Got)
}

func (err ConfigFault) Unwrap() error {
	return err.Err
}

// DeviceFault wraps an OS level failure of a single transfer or register access.
type DeviceFault struct {
	Op  string
	Err error
}

func (err DeviceFault) Error() string {
	if len(err.Op) == 0 {
		err.Op = "UNKNOWN"
	}
	return fmt.Sprintf("device fault during %s: %v", err.Op, err.Err)
}

func (err DeviceFault) Unwrap() error {
	return err.Err
}

func (err DeviceFault) Is(target error) bool {
	return target == ErrDeviceFault
}

// IndexError is the panic value for an out of range pin, drive, USB port or ADC index.
// It indicates a wiring or programming bug, not a runtime condition.
type IndexError struct {
	Kind  string
	Index int
	Limit int
}

func (err IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0,%d)", err.Kind, err.Index, err.Limit)
}

// ArgumentError is returned by the control boundary when a caller supplied value is rejected
// before it reaches the hardware.
type ArgumentError struct {
	Name  string
	Value interface{}
	Want  string
}

func (err ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %v: want %s", err.Name, err.Value, err.Want)
}
