package yosim

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/db47h/yosim/dut"
	"github.com/db47h/yosim/internal/ctxlog"
	"github.com/db47h/yosim/vcd"
	"github.com/pkg/errors"
)

// Errors returned by Simulator methods.
//
var (
	ErrStarted     = errors.New("simulation already started")
	ErrRunning     = errors.New("simulation running")
	ErrMissingPort = errors.New("missing port")
)

// Waveform records signal values. Callback is called once per run with the
// complete list of signals; the returned function is called with no
// arguments whenever values may have changed.
//
type Waveform interface {
	Callback(signals []*dut.Signal) (func(), error)
}

// Config is the simulator configuration.
//
type Config struct {
	// Ports are signal names that must exist directly under the root
	// module.
	Ports []string
	// Waveform, if not empty, is the path of a VCD file to write.
	Waveform string
	// Recorder, if not nil, is used instead of a VCD file.
	Recorder Waveform
	// Precision defaults to DefaultPrecision.
	Precision Precision
	// Debug enables logging of every committed trigger.
	Debug bool
	// Logger, if nil, is taken from the context passed to Run.
	Logger *slog.Logger
}

// Simulator runs tasks against a Core.
//
type Simulator struct {
	core   Core
	dut    *dut.Module
	scale  uint64
	prec   Precision
	debug  bool
	logger *slog.Logger
	log    *slog.Logger // logger of the current run

	rec     Waveform
	sample  func()
	file    io.Closer
	flusher interface{ Flush() error }

	main     []*Task
	children []*Task
	free     []int // core slots released by finished children
	rounds   int
	started  bool
	running  bool
}

// New returns a new simulator for core. Configuration errors are reported
// before anything runs.
//
func New(core Core, cfg Config) (*Simulator, error) {
	if cfg.Precision == (Precision{}) {
		cfg.Precision = DefaultPrecision
	}
	scale, err := cfg.Precision.Scale()
	if err != nil {
		return nil, errors.Wrap(err, "precision")
	}
	root, err := dut.Build(core)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build design tree")
	}
	for _, p := range cfg.Ports {
		if root.Signal(p) == nil {
			return nil, errors.Wrapf(ErrMissingPort, "%q", p)
		}
	}
	s := &Simulator{
		core:   core,
		dut:    root,
		scale:  scale,
		prec:   cfg.Precision,
		debug:  cfg.Debug,
		logger: cfg.Logger,
		rec:    cfg.Recorder,
	}
	if s.rec == nil && cfg.Waveform != "" {
		f, err := os.Create(cfg.Waveform)
		if err != nil {
			return nil, errors.Wrap(err, "waveform")
		}
		w := vcd.NewWriter(f, core.Time, "1ps")
		s.rec, s.file, s.flusher = w, f, w
	}
	core.SetPrecision(scale)
	return s, nil
}

// Close flushes and closes the waveform file, if any.
//
func (s *Simulator) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.flusher.Flush()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file = nil
	return err
}

// SetPrecision changes the length of a time step. It fails once the
// simulation has started.
//
func (s *Simulator) SetPrecision(p Precision) error {
	if s.started {
		return ErrStarted
	}
	scale, err := p.Scale()
	if err != nil {
		return err
	}
	s.scale, s.prec = scale, p
	s.core.SetPrecision(scale)
	return nil
}

// Precision returns the current precision.
//
func (s *Simulator) Precision() Precision { return s.prec }

// Dut returns the root module of the design.
//
func (s *Simulator) Dut() *dut.Module { return s.dut }

// Time returns the current simulated time in base units (ps).
//
func (s *Simulator) Time() uint64 { return s.core.Time() }

// Rounds returns the number of rounds executed by the last run.
//
func (s *Simulator) Rounds() int { return s.rounds }

// Fork adds t to the child tasks and returns it. A child task is resumed at
// most once per round, after the main tasks, when its trigger has fired. Its
// trigger wakes the core up but a run never waits on a child. A child that
// fails is removed like one that returned; its error is available from
// t.Err(). The core slot of a finished child is reused by the next fork.
//
func (s *Simulator) Fork(t *Task) *Task {
	s.children = append(s.children, t)
	if s.running {
		s.addTask(t)
	}
	return t
}

func (s *Simulator) addTask(t *Task) {
	if n := len(s.free); n > 0 {
		t.slot, s.free = s.free[n-1], s.free[:n-1]
	} else {
		t.slot = s.core.AddTask()
	}
	t.waiting = false
}

// Join returns a task that returns once t is neither a main nor a child task.
//
func (s *Simulator) Join(t *Task) *Task {
	return NewTask("join("+t.name+")", func(c *Ctx) error {
		return c.Join(t)
	})
}

func (s *Simulator) active(t *Task) bool {
	for _, m := range s.main {
		if m == t {
			return true
		}
	}
	for _, c := range s.children {
		if c == t {
			return true
		}
	}
	return false
}

// Run runs tasks as main tasks, in order, until one of them returns. It
// returns the number of rounds executed and the error returned by that task,
// as is. The error of the context is returned if it is done before.
//
func (s *Simulator) Run(ctx context.Context, tasks ...*Task) (rounds int, err error) {
	if s.running {
		return 0, ErrRunning
	}
	if len(tasks) == 0 {
		return 0, errors.New("no main task")
	}
	logger := s.logger
	if logger == nil {
		logger = ctxlog.FromContext(ctx)
	}
	s.log = logger
	s.running, s.started = true, true
	s.rounds = 0
	s.free = s.free[:0]
	s.core.ClearTasks()
	s.main = tasks
	for _, t := range tasks {
		s.addTask(t)
	}
	for _, t := range s.children {
		s.addTask(t)
	}
	defer s.cleanup()

	if s.rec != nil && s.sample == nil {
		// the signal list is walked once and reused for every sample.
		s.sample, err = s.rec.Callback(s.dut.Signals(true))
		if err != nil {
			return 0, errors.Wrap(err, "waveform")
		}
	}
	sample := s.sample
	if sample != nil {
		sample()
	}

	logger.Info("simulation started", "tasks", len(tasks), "precision", s.prec.String(), "time", s.core.Time())
	for {
		if err = ctx.Err(); err != nil {
			return s.rounds, err
		}
		s.rounds++
		for _, t := range s.main {
			if !s.ready(t) {
				continue
			}
			tr, ok := t.resume(s)
			if !ok {
				logger.Info("simulation finished", "task", t.name, "rounds", s.rounds, "time", s.core.Time())
				return s.rounds, t.err
			}
			s.commit(t, tr)
		}

		if len(s.children) > 0 {
			s.runChildren()
		}

		if err = s.core.Advance(); err != nil {
			return s.rounds, errors.Wrapf(err, "round %d at time %d", s.rounds, s.core.Time())
		}
		if sample != nil {
			sample()
		}
	}
}

func (s *Simulator) runChildren() {
	snap := make([]*Task, len(s.children))
	copy(snap, s.children)
	for _, t := range snap {
		if !s.ready(t) {
			continue
		}
		tr, ok := t.resume(s)
		if !ok {
			if t.err != nil {
				s.log.Debug("child task failed", "task", t.name, "err", t.err)
			}
			s.removeChild(t)
			continue
		}
		s.commit(t, tr)
	}
}

func (s *Simulator) removeChild(t *Task) {
	for i, c := range s.children {
		if c == t {
			s.children = append(s.children[:i], s.children[i+1:]...)
			s.free = append(s.free, t.slot)
			return
		}
	}
}

// cleanup abandons all tasks left at the end of a run.
func (s *Simulator) cleanup() {
	main, children := s.main, s.children
	s.main, s.children = nil, nil
	for _, t := range main {
		t.abandon()
	}
	for _, t := range children {
		t.abandon()
	}
	s.core.ClearTasks()
	s.free = s.free[:0]
	s.running = false
}

// commit records tr as the trigger t waits on and commits it to the core.
// Timers are committed in base units, rising and falling edges as plain
// edges.
func (s *Simulator) commit(t *Task, tr Trigger) {
	t.pending, t.waiting = tr, true
	switch {
	case tr.Kind == KindTimer:
		tr.Arg = s.duration(tr.Arg)
	case tr.isEdge():
		t.old = s.core.Get(tr.Signal())
		tr.Kind = KindEdge
	}
	if s.debug {
		s.log.Debug("commit trigger", "task", t.name, "trigger", tr.String(), "time", s.core.Time())
	}
	s.core.Commit(t.slot, tr)
}

// duration converts d precision units to base units. The result is clamped so
// that the deadline saturates at Forever instead of wrapping around.
func (s *Simulator) duration(d uint64) uint64 {
	room := Forever - s.core.Time()
	if d > room/s.scale {
		return room
	}
	return d * s.scale
}

// ready reports whether t must be resumed this round.
func (s *Simulator) ready(t *Task) bool {
	if !t.waiting {
		return true
	}
	if !s.core.Fired(t.slot) {
		return false
	}
	tr := t.pending
	if tr.Kind != KindRisingEdge && tr.Kind != KindFallingEdge {
		return true
	}
	v := s.core.Get(tr.Signal())
	if tr.match(t.old, v) {
		return true
	}
	// wrong direction: wait for the next edge.
	t.old = v
	s.core.Commit(t.slot, Edge(tr.Signal()))
	return false
}
