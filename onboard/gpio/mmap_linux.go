package gpio

import (
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/sys/unix"

	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
)

// Open maps the six GPIO banks from the physical memory device. Any failure leaves nothing
// mapped and is an InitFault; the board cannot be driven without every bank.
func Open(device string, log logr.Logger) (c *Controller, err error) {
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, berrors.InitFault{Resource: device, Err: err}
	}

	var regions [][]byte
	unmap := func() (err error) {
		for _, mem := range regions {
			if e := unix.Munmap(mem); e != nil && err == nil {
				err = e
			}
		}
		if e := unix.Close(fd); e != nil && err == nil {
			err = e
		}
		return
	}

	var banks [pinout.NumBanks]Window
	for i, base := range bankBases {
		mem, err := unix.Mmap(fd, base, BankSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			unmap()
			return nil, berrors.InitFault{Resource: fmt.Sprintf("gpio bank %d at %#x", i+1, base), Err: err}
		}
		regions = append(regions, mem)
		banks[i] = NewRegion(mem)
	}

	log.Info("mapped gpio banks", "device", device, "banks", len(regions))
	c = NewController(banks, log)
	c.release = unmap
	return c, nil
}
