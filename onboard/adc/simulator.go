package adc

import (
	"errors"
	"sync"

	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
)

// SentLimit is how many of the most recent words a Simulator remembers.
const SentLimit = 1024

// Source produces the result of converting channel.
type Source func(channel int) uint16

// References answers the internal reference channels and leaves the inputs at zero.
func References(channel int) uint16 {
	switch channel {
	case RefMid:
		return FullCode / 2
	case RefHigh:
		return codeMask
	}
	return 0
}

// Simulator behaves like a converter on the other end of the bus, including the one
// conversion pipeline delay: a result is only answered by the exchange after the one that
// started it.
type Simulator struct {
	Source Source

	mu      sync.Mutex
	pending uint16
	cfr     uint32
	powered bool
	fault   error
	sent    []uint32
}

func NewSimulator(src Source) *Simulator {
	if src == nil {
		src = References
	}
	return &Simulator{Source: src}
}

// Fail makes every following exchange fail with err until called with nil.
func (s *Simulator) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = err
}

func (s *Simulator) WriteRead(word uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fault != nil {
		return 0, berrors.DeviceFault{Op: "spi transfer", Err: s.fault}
	}
	if len(s.sent) == SentLimit {
		copy(s.sent, s.sent[1:])
		s.sent = s.sent[:SentLimit-1]
	}
	s.sent = append(s.sent, word)

	reply := encodeSample(s.pending)
	cmd := word >> cmdShift
	data := (word >> dataShift) & codeMask

	switch {
	case cmd < Inputs:
		s.convert(int(cmd))
	case cmd == cmdRefMid:
		s.convert(RefMid)
	case cmd == cmdRefLow:
		s.convert(RefLow)
	case cmd == cmdRefHigh:
		s.convert(RefHigh)
	case cmd == cmdReadFIFO:
		s.pending = 0
	case cmd == cmdWriteCFR:
		s.cfr = data
		s.pending = 0
		reply = 0
	case cmd == cmdReadCFR:
		reply = s.cfr << sampleLSB
	case cmd == cmdPowerDown:
		s.powered = false
		s.pending = 0
	default:
		return 0, berrors.DeviceFault{Op: "adc command", Err: errors.New("unknown command nibble")}
	}
	return reply, nil
}

func (s *Simulator) convert(ch int) {
	s.powered = true
	s.pending = s.Source(ch) & codeMask
}

// Sent returns the words written so far, at most the last SentLimit of them.
func (s *Simulator) Sent() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint32(nil), s.sent...)
}

// Powered reports whether a conversion has run since the last power down.
func (s *Simulator) Powered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.powered
}

func (s *Simulator) Config() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfr
}
