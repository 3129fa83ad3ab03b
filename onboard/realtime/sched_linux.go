package realtime

import (
	"runtime"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/sys/unix"
)

// OSScheduler switches the thread to SCHED_FIFO at the highest priority the kernel allows.
// Lacking the privilege is not fatal; the section then runs at normal priority.
type OSScheduler struct {
	Log logr.Logger

	warned sync.Once
}

func NewOSScheduler(log logr.Logger) *OSScheduler {
	return &OSScheduler{Log: log}
}

func (s *OSScheduler) Elevate() func() {
	runtime.LockOSThread()

	prev, err := unix.SchedGetAttr(0, 0)
	if err != nil {
		s.failed(err)
		return runtime.UnlockOSThread
	}

	prio, _, e1 := unix.RawSyscall(unix.SYS_SCHED_GET_PRIORITY_MAX, unix.SCHED_FIFO, 0, 0)
	if e1 != 0 {
		s.failed(e1)
		return runtime.UnlockOSThread
	}

	attr := unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_FIFO,
		Priority: uint32(prio),
	}
	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		s.failed(err)
		return runtime.UnlockOSThread
	}

	return func() {
		prev.Size = unix.SizeofSchedAttr
		if err := unix.SchedSetAttr(0, prev, 0); err != nil {
			s.Log.Error(err, "unable to restore scheduling policy")
		}
		runtime.UnlockOSThread()
	}
}

func (s *OSScheduler) failed(err error) {
	first := false
	s.warned.Do(func() {
		first = true
		s.Log.Error(err, "unable to raise thread priority, timing will be best effort")
	})
	if !first {
		s.Log.V(1).Info("priority elevation failed", "error", err.Error())
	}
}

func (s *OSScheduler) Yield() {
	unix.Syscall(unix.SYS_SCHED_YIELD, 0, 0, 0)
}
