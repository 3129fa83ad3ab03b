//go:build !linux

package gpio

import (
	"errors"

	"github.com/go-logr/logr"

	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
)

func Open(device string, log logr.Logger) (*Controller, error) {
	return nil, berrors.InitFault{Resource: device, Err: errors.New("physical memory mapping is only supported on linux")}
}
