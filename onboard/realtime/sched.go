package realtime

// Scheduler raises the calling goroutine's thread to real time priority for the duration of a
// timing critical section.
type Scheduler interface {
	// Elevate locks the goroutine to its thread and raises it. The returned func restores the
	// previous policy and must be called from the same goroutine.
	Elevate() (release func())
	// Yield gives the processor up once the critical section is done.
	Yield()
}

// NopScheduler does nothing, for tests and simulation.
type NopScheduler struct{}

func (NopScheduler) Elevate() func() { return func() {} }

func (NopScheduler) Yield() {}
