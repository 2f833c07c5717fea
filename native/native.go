// Package native loads simulation libraries compiled from the glue rendered
// by package gen.
//
// A Library implements yosim.Core on top of the C ABI of the glue. The
// simulation state lives in the library itself: opening the same file twice
// yields two handles on the same design.
//
package native

import (
	"github.com/db47h/yosim"
	"github.com/pkg/errors"
)

// Status codes returned by yosim_advance.
//
const (
	statusOK = iota
	statusStalled
	statusUnstable
)

// ErrUnstable is returned by Advance when the design does not settle.
//
var ErrUnstable = errors.New("design does not settle")

// ErrNoWaveform is returned by DumpVCD when the library was compiled without
// waveform support.
//
var ErrNoWaveform = errors.New("library compiled without waveform support")

var _ yosim.Core = (*Library)(nil)

// Library is a loaded simulation library.
//
type Library struct {
	path   string
	handle uintptr

	numSignals   func() int32
	signalName   func(int32) string
	signalWidth  func(int32) int32
	get          func(int32) uint64
	set          func(int32, uint64)
	time         func() uint64
	setPrecision func(uint64)
	addTask      func() int32
	commit       func(int32, int32, uint64)
	fired        func(int32) int32
	advance      func() int32
	clearTasks   func()
	vcdOpen      func(string) int32
}

// Path returns the path the library was loaded from.
//
func (l *Library) Path() string { return l.path }

func (l *Library) NumSignals() int          { return int(l.numSignals()) }
func (l *Library) SignalName(id int) string { return l.signalName(int32(id)) }
func (l *Library) SignalWidth(id int) int   { return int(l.signalWidth(int32(id))) }
func (l *Library) Get(id int) uint64        { return l.get(int32(id)) }
func (l *Library) Set(id int, v uint64)     { l.set(int32(id), v) }
func (l *Library) Time() uint64             { return l.time() }
func (l *Library) SetPrecision(s uint64)    { l.setPrecision(s) }
func (l *Library) AddTask() int             { return int(l.addTask()) }
func (l *Library) Fired(task int) bool      { return l.fired(int32(task)) != 0 }
func (l *Library) ClearTasks()              { l.clearTasks() }

// Commit commits trigger t for task. The trigger kind is passed as is: the
// numeric values of yosim.Kind match the glue's trigger table.
//
func (l *Library) Commit(task int, t yosim.Trigger) {
	l.commit(int32(task), int32(t.Kind), t.Arg)
}

// Advance runs the design until a committed trigger fires.
//
func (l *Library) Advance() error {
	switch rc := l.advance(); rc {
	case statusOK:
		return nil
	case statusStalled:
		return errors.Wrapf(yosim.ErrStalled, "at time %d", l.time())
	case statusUnstable:
		return errors.Wrapf(ErrUnstable, "at time %d", l.time())
	default:
		return errors.Errorf("yosim_advance: unexpected status %d", rc)
	}
}

// DumpVCD makes the library write its own waveform to path. The library must
// have been compiled with waveform support.
//
func (l *Library) DumpVCD(path string) error {
	if l.vcdOpen == nil {
		return ErrNoWaveform
	}
	switch l.vcdOpen(path) {
	case 0:
		return nil
	case -1:
		return ErrNoWaveform
	default:
		return errors.Errorf("failed to open waveform file %s", path)
	}
}
