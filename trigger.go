package yosim

import (
	"math"
	"strconv"
)

// Forever is the deadline, in base units, of a timer that never fires. Timer
// deadlines that do not fit in a uint64 are clamped to it.
//
const Forever uint64 = math.MaxUint64

// Kind is the kind of a Trigger.
//
type Kind uint8

// Trigger kinds. The numeric values are part of the native ABI.
//
const (
	KindOther Kind = iota
	KindTimer
	KindEdge
	KindRisingEdge
	KindFallingEdge
)

var kindNames = [...]string{"other", "timer", "edge", "rising_edge", "falling_edge"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// A Trigger describes the condition a task waits on. Arg is a duration for
// timers and a signal id for edges.
//
type Trigger struct {
	Kind Kind
	Arg  uint64
}

// Timer returns a trigger that fires d time units after it is committed. The
// unit is the simulator's precision.
//
func Timer(d uint64) Trigger { return Trigger{KindTimer, d} }

// Edge returns a trigger that fires on any change of signal id.
//
func Edge(id int) Trigger { return Trigger{KindEdge, uint64(id)} }

// RisingEdge returns a trigger that fires when signal id goes from zero to
// non-zero.
//
func RisingEdge(id int) Trigger { return Trigger{KindRisingEdge, uint64(id)} }

// FallingEdge returns a trigger that fires when signal id goes from non-zero
// to zero.
//
func FallingEdge(id int) Trigger { return Trigger{KindFallingEdge, uint64(id)} }

// Other returns a trigger that fires on the next time step. It gives polling
// tasks like Join a cadence. It does not resolve immediately: a task polling
// on Other would otherwise keep the core from ever advancing time towards the
// timers other tasks wait on.
//
func Other() Trigger { return Trigger{} }

// Signal returns the signal id of an edge trigger.
//
func (t Trigger) Signal() int { return int(t.Arg) }

func (t Trigger) isEdge() bool {
	return t.Kind >= KindEdge && t.Kind <= KindFallingEdge
}

// match reports whether a change from old to new satisfies t.
func (t Trigger) match(old, new uint64) bool {
	switch t.Kind {
	case KindRisingEdge:
		return old == 0 && new != 0
	case KindFallingEdge:
		return old != 0 && new == 0
	}
	return old != new
}

func (t Trigger) String() string {
	switch t.Kind {
	case KindOther:
		return "other"
	case KindTimer:
		return "timer(" + strconv.FormatUint(t.Arg, 10) + ")"
	}
	return t.Kind.String() + "(" + strconv.FormatUint(t.Arg, 10) + ")"
}
