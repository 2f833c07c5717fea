// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package engine is a pure Go simulation core implementing yosim.Core.
//
// A design is a set of signals and a list of components. Each evaluation
// pass runs every component, which read current signal values and write next
// values; the pass is followed by a commit that makes next values current.
// Passes are repeated until no signal changes (delta cycles). Simulated time
// only moves when the scheduler asks the engine to advance.
//
package engine

import (
	"runtime"
	"sync"

	"github.com/db47h/yosim"
	"github.com/pkg/errors"
)

// MaxDeltas is the maximum number of evaluation passes per settle before
// ErrUnstable is returned.
//
var MaxDeltas = 1000

// ErrUnstable is returned when a design does not settle within MaxDeltas
// evaluation passes, e.g. a combinational loop.
//
var ErrUnstable = errors.New("design does not settle")

// A Component is a component in a design. It reads current values with Get
// and writes next values with Set.
//
type Component func(e *Engine)

type wait struct {
	tr     yosim.Trigger
	active bool
	fired  bool
	start  uint64 // time at commit
	snap   uint64 // value at commit, for edges
}

// Engine is a runnable design simulation.
//
type Engine struct {
	names  []string
	widths []int
	masks  []uint64

	curr []uint64 // committed values
	next []uint64 // values written during the current pass
	prev []uint64 // values at the end of the previous pass, for edge detection
	cs   []Component

	time   uint64
	scale  uint64
	deltas uint64
	tasks  []wait

	wc []chan struct{}
	wg sync.WaitGroup
}

// New builds a new engine from d.
//
// workers is the number of goroutines used to run components during an
// evaluation pass. If 0, the value of GOMAXPROCS is used. If negative,
// components run sequentially on the calling goroutine.
//
// Callers must call Dispose once the engine is no longer needed in order to
// release worker goroutines.
//
func New(workers int, d *Design) (*Engine, error) {
	if len(d.names) == 0 {
		return nil, errors.New("empty design")
	}
	n := len(d.names)
	e := &Engine{
		names:  d.names,
		widths: d.widths,
		masks:  make([]uint64, n),
		curr:   make([]uint64, n),
		next:   make([]uint64, n),
		prev:   make([]uint64, n),
		cs:     d.cs,
		scale:  1,
	}
	for i, w := range d.widths {
		e.masks[i] = mask(w)
	}

	if workers == 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers > 1 {
		cs := e.cs
		for len(cs) > 0 {
			size := len(cs) / workers
			if size*workers < len(cs) {
				size++
			}
			wc := make(chan struct{}, 1)
			e.wc = append(e.wc, wc)
			go worker(e, cs[:size], wc)
			cs = cs[size:]
		}
	}
	return e, nil
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}

// Dispose stops worker goroutines.
//
func (e *Engine) Dispose() {
	e.wg.Add(len(e.wc))
	for _, wc := range e.wc {
		close(wc)
	}
	e.wg.Wait()
	e.wc = nil
}

func worker(e *Engine, cs []Component, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			e.wg.Done()
			return
		}
		for _, f := range cs {
			f(e)
		}
		e.wg.Done()
	}
}

// NumSignals returns the signal count.
//
func (e *Engine) NumSignals() int { return len(e.names) }

// SignalName returns the hierarchical name of signal id.
//
func (e *Engine) SignalName(id int) string { return e.names[id] }

// SignalWidth returns the width of signal id.
//
func (e *Engine) SignalWidth(id int) int { return e.widths[id] }

// Get returns the current value of signal id.
//
func (e *Engine) Get(id int) uint64 { return e.curr[id] }

// Set sets the next value of signal id. The value becomes current after the
// next evaluation pass.
//
func (e *Engine) Set(id int, v uint64) { e.next[id] = v & e.masks[id] }

// Rose returns true if signal id went from zero to non-zero during the last
// commit. Components use it to detect clock edges.
//
func (e *Engine) Rose(id int) bool { return e.prev[id] == 0 && e.curr[id] != 0 }

// Fell returns true if signal id went from non-zero to zero during the last
// commit.
//
func (e *Engine) Fell(id int) bool { return e.prev[id] != 0 && e.curr[id] == 0 }

// Time returns the simulated time in base units.
//
func (e *Engine) Time() uint64 { return e.time }

// Deltas returns the total number of evaluation passes run so far.
//
func (e *Engine) Deltas() uint64 { return e.deltas }

// SetPrecision sets the length of a time step.
//
func (e *Engine) SetPrecision(scale uint64) {
	if scale == 0 {
		scale = 1
	}
	e.scale = scale
}

// eval runs all components once.
func (e *Engine) eval() {
	if len(e.wc) == 0 {
		for _, f := range e.cs {
			f(e)
		}
		return
	}
	e.wg.Add(len(e.wc))
	for _, wc := range e.wc {
		wc <- struct{}{}
	}
	e.wg.Wait()
}

// commit makes next values current and reports whether anything changed.
func (e *Engine) commit() bool {
	copy(e.prev, e.curr)
	changed := false
	for i, v := range e.next {
		if e.curr[i] != v {
			e.curr[i] = v
			changed = true
		}
	}
	return changed
}

// Settle runs evaluation passes until the design is stable.
//
func (e *Engine) Settle() error {
	// apply pending writes from outside the design first.
	changed := e.commit()
	for i := 0; ; i++ {
		if i >= MaxDeltas {
			return errors.Wrapf(ErrUnstable, "after %d passes at time %d", MaxDeltas, e.time)
		}
		e.eval()
		e.deltas++
		c := e.commit()
		if !c && !changed {
			return nil
		}
		changed = c
	}
}

// AddTask registers a task slot.
//
func (e *Engine) AddTask() int {
	e.tasks = append(e.tasks, wait{})
	return len(e.tasks) - 1
}

// ClearTasks removes all task slots.
//
func (e *Engine) ClearTasks() { e.tasks = e.tasks[:0] }

// Commit makes task wait on tr. Timer durations are in base units. A timer
// whose deadline reaches yosim.Forever never fires.
//
func (e *Engine) Commit(task int, tr yosim.Trigger) {
	w := wait{tr: tr, active: true, start: e.time}
	switch tr.Kind {
	case yosim.KindTimer:
		if tr.Arg > yosim.Forever-w.start {
			w.start = yosim.Forever
		} else {
			w.start += tr.Arg
		}
	case yosim.KindEdge, yosim.KindRisingEdge, yosim.KindFallingEdge:
		w.snap = e.curr[tr.Signal()]
	}
	e.tasks[task] = w
}

// Fired reports whether the trigger of task has fired.
//
func (e *Engine) Fired(task int) bool { return e.tasks[task].fired }

// check updates the fired state of all waits and reports whether any fired.
func (e *Engine) check() bool {
	fired := false
	for i := range e.tasks {
		w := &e.tasks[i]
		if !w.active {
			continue
		}
		switch w.tr.Kind {
		case yosim.KindTimer:
			w.fired = w.start != yosim.Forever && e.time >= w.start
		case yosim.KindOther:
			w.fired = e.time > w.start
		case yosim.KindEdge:
			w.fired = e.curr[w.tr.Signal()] != w.snap
		case yosim.KindRisingEdge:
			w.fired = w.snap == 0 && e.curr[w.tr.Signal()] != 0
		case yosim.KindFallingEdge:
			w.fired = w.snap != 0 && e.curr[w.tr.Signal()] == 0
		}
		if w.fired {
			w.active = false
			fired = true
		}
	}
	return fired
}

// nextTime returns the time of the next step at which a committed trigger may
// fire. Components are not time dependent, so nothing changes in between.
func (e *Engine) nextTime() (uint64, bool) {
	t, ok := uint64(0), false
	for _, w := range e.tasks {
		if !w.active {
			continue
		}
		var at uint64
		switch w.tr.Kind {
		case yosim.KindTimer:
			if w.start == yosim.Forever {
				continue
			}
			at = w.start
		case yosim.KindOther:
			at = e.time + e.scale
		default:
			continue
		}
		if !ok || at < t {
			t, ok = at, true
		}
	}
	return t, ok
}

// Advance settles the design, then moves time forward until at least one
// committed trigger fires.
//
func (e *Engine) Advance() error {
	for i := range e.tasks {
		e.tasks[i].fired = false
	}
	for {
		if err := e.Settle(); err != nil {
			return err
		}
		if e.check() {
			return nil
		}
		t, ok := e.nextTime()
		if !ok {
			return errors.Wrapf(yosim.ErrStalled, "at time %d", e.time)
		}
		if t <= e.time {
			t = e.time + e.scale
		}
		e.time = t
	}
}
