// Package vcd writes signal values in Value Change Dump format.
//
// A Writer is a yosim.Waveform: the simulator hands it the complete signal
// list once and calls the returned sampling function whenever values may have
// changed.
//
package vcd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/db47h/yosim/dut"
	"github.com/pkg/errors"
)

// Writer is a VCD writer.
//
type Writer struct {
	w         *bufio.Writer
	now       func() uint64
	timescale string
	sigs      []*dut.Signal
	ids       []string
	last      []uint64
	time      uint64
	started   bool
	err       error
}

// NewWriter returns a new writer. now returns the current simulated time, in
// timescale units.
//
func NewWriter(w io.Writer, now func() uint64, timescale string) *Writer {
	return &Writer{w: bufio.NewWriter(w), now: now, timescale: timescale}
}

// Callback writes the VCD header for sigs and returns a function that dumps
// the values that changed since its last call. Signals are declared in list
// order; dotted names become nested scopes.
//
func (w *Writer) Callback(sigs []*dut.Signal) (func(), error) {
	if w.sigs != nil {
		return nil, errors.New("vcd header already written")
	}
	if len(sigs) == 0 {
		return nil, errors.New("no signals to dump")
	}
	w.sigs = sigs
	w.ids = make([]string, len(sigs))
	w.last = make([]uint64, len(sigs))
	for i := range sigs {
		w.ids[i] = ident(i)
	}
	w.header()
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return w.sample, nil
}

func (w *Writer) header() {
	w.printf("$timescale %s $end\n", w.timescale)
	var scope []string
	for i, s := range w.sigs {
		path := strings.Split(s.Name(), dut.Separator)
		dirs := path[:len(path)-1]
		n := 0
		for n < len(scope) && n < len(dirs) && scope[n] == dirs[n] {
			n++
		}
		for len(scope) > n {
			w.printf("$upscope $end\n")
			scope = scope[:len(scope)-1]
		}
		for _, d := range dirs[n:] {
			w.printf("$scope module %s $end\n", d)
			scope = append(scope, d)
		}
		w.printf("$var wire %d %s %s $end\n", s.Width(), w.ids[i], path[len(path)-1])
	}
	for range scope {
		w.printf("$upscope $end\n")
	}
	w.printf("$enddefinitions $end\n")
}

func (w *Writer) sample() {
	if w.err != nil {
		return
	}
	t := w.now()
	if !w.started {
		w.started, w.time = true, t
		w.printf("#%d\n$dumpvars\n", t)
		for i, s := range w.sigs {
			v := s.Value()
			w.last[i] = v
			w.value(i, v)
		}
		w.printf("$end\n")
		return
	}
	stamped := t == w.time
	for i, s := range w.sigs {
		v := s.Value()
		if v == w.last[i] {
			continue
		}
		if !stamped {
			w.printf("#%d\n", t)
			w.time, stamped = t, true
		}
		w.last[i] = v
		w.value(i, v)
	}
}

func (w *Writer) value(i int, v uint64) {
	if w.sigs[i].Width() == 1 {
		w.printf("%d%s\n", v&1, w.ids[i])
		return
	}
	w.printf("b%s %s\n", strconv.FormatUint(v, 2), w.ids[i])
}

func (w *Writer) printf(format string, args ...interface{}) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

// Flush writes any buffered data to the underlying writer.
//
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}

// Err returns the first error that occurred while writing.
//
func (w *Writer) Err() error { return w.err }

// ident returns the VCD identifier code of the i-th signal, in base 94 over
// the printable ASCII characters.
func ident(i int) string {
	var b []byte
	for {
		b = append(b, byte('!'+i%94))
		i /= 94
		if i == 0 {
			break
		}
		i--
	}
	return string(b)
}
