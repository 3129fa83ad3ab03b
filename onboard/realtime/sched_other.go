//go:build !linux

package realtime

import (
	"runtime"

	"github.com/go-logr/logr"
)

type OSScheduler struct {
	Log logr.Logger
}

func NewOSScheduler(log logr.Logger) *OSScheduler {
	return &OSScheduler{Log: log}
}

func (s *OSScheduler) Elevate() func() {
	runtime.LockOSThread()
	return runtime.UnlockOSThread
}

func (s *OSScheduler) Yield() {
	runtime.Gosched()
}
