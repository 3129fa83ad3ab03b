package control

import (
	"context"

	"github.com/CodedInternet/mirrorctl/onboard/board"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
)

type DriveStatus struct {
	Enabled bool `json:"enabled"`
	Fault   bool `json:"fault"`
}

// Status is a snapshot of everything readable without the ADC. Slices are indexed from zero,
// so Drives[0] is drive 1.
type Status struct {
	Drives    []DriveStatus   `json:"drives"`
	USB       []bool          `json:"usb"`
	Microstep int             `json:"microstep"`
	Rails     map[string]bool `json:"rails"`
}

func (d *Dispatcher) Drive(ctx context.Context, drive int) (st DriveStatus, err error) {
	if err = checkRange("drive", drive, 1, pinout.NumDrives); err != nil {
		return
	}
	err = d.do(ctx, "drive status", func() error {
		st = d.driveStatus(drive - 1)
		return nil
	})
	return
}

func (d *Dispatcher) driveStatus(i int) DriveStatus {
	return DriveStatus{Enabled: d.board.DriveEnabled(i), Fault: d.board.DriveFault(i)}
}

func (d *Dispatcher) Status(ctx context.Context) (st Status, err error) {
	err = d.do(ctx, "status", func() error {
		st.Drives = make([]DriveStatus, pinout.NumDrives)
		for i := range st.Drives {
			st.Drives[i] = d.driveStatus(i)
		}
		st.USB = make([]bool, pinout.NumUSBPorts)
		for i := range st.USB {
			st.USB[i] = d.board.USBEnabled(i)
		}
		st.Microstep = d.board.Microstep()
		st.Rails = make(map[string]bool)
		for _, r := range board.Rails() {
			st.Rails[r.String()] = d.board.RailEnabled(r)
		}
		return nil
	})
	return
}
