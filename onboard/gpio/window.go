package gpio

import (
	"sync/atomic"
	"unsafe"

	berrors "github.com/CodedInternet/mirrorctl/onboard/errors"
)

// Register offsets inside a bank window.
const (
	BankSize = 0x1000

	RegOE      = 0x034 // output enable, a set bit makes the line an input
	RegDataIn  = 0x038
	RegDataOut = 0x03C
)

// Window is a single 4 KiB register bank. Offsets are validated, callers never see an address.
type Window interface {
	Load(off uintptr) uint32
	Store(off uintptr, v uint32)
}

// Region is a Window over a byte region, either a mapping of physical memory or plain memory.
// Every access is a single 32-bit atomic load or store, so the compiler can neither split,
// merge nor elide it.
type Region struct {
	mem []byte
}

func NewRegion(mem []byte) *Region {
	if len(mem) != BankSize {
		panic(berrors.IndexError{Kind: "bank size", Index: len(mem), Limit: BankSize + 1})
	}
	return &Region{mem: mem}
}

func (r *Region) word(off uintptr) *uint32 {
	if off%4 != 0 || off+4 > uintptr(len(r.mem)) {
		panic(berrors.IndexError{Kind: "register offset", Index: int(off), Limit: len(r.mem)})
	}
	return (*uint32)(unsafe.Pointer(&r.mem[off]))
}

func (r *Region) Load(off uintptr) uint32 {
	return atomic.LoadUint32(r.word(off))
}

func (r *Region) Store(off uintptr, v uint32) {
	atomic.StoreUint32(r.word(off), v)
}

// Loopback simulates a bank whose pads read back what is driven: after any write to OE or
// DATAOUT, the DATAIN bits of output lines follow DATAOUT. Input lines keep the level last
// set with Drive.
type Loopback struct {
	*Region
}

func NewLoopback() *Loopback {
	lb := &Loopback{NewRegion(make([]byte, BankSize))}
	// lines come out of reset as inputs
	lb.Region.Store(RegOE, 0xFFFFFFFF)
	return lb
}

func (lb *Loopback) Store(off uintptr, v uint32) {
	lb.Region.Store(off, v)
	if off == RegOE || off == RegDataOut {
		lb.reflect()
	}
}

// Drive sets the external level seen on an input line.
func (lb *Loopback) Drive(bit uint, high bool) {
	in := lb.Region.Load(RegDataIn)
	if high {
		in |= 1 << bit
	} else {
		in &^= 1 << bit
	}
	lb.Region.Store(RegDataIn, in)
	lb.reflect()
}

func (lb *Loopback) reflect() {
	oe := lb.Region.Load(RegOE)
	in := lb.Region.Load(RegDataIn)
	out := lb.Region.Load(RegDataOut)
	lb.Region.Store(RegDataIn, (in&oe)|(out&^oe))
}
