// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package engine

import "github.com/db47h/yosim/dut"

// A Design collects the signals and components of a circuit before it is
// turned into an Engine.
//
type Design struct {
	names  []string
	widths []int
	cs     []Component
	index  map[string]int
}

// NewDesign returns an empty design.
//
func NewDesign() *Design {
	return &Design{index: make(map[string]int)}
}

// Top returns the scope of the root module.
//
func (d *Design) Top() *Scope {
	return &Scope{d: d, path: dut.RootName}
}

// Add adds components to the design.
//
func (d *Design) Add(cs ...Component) {
	d.cs = append(d.cs, cs...)
}

// Len returns the signal count.
//
func (d *Design) Len() int { return len(d.names) }

// alloc allocates a signal and returns its id.
//
func (d *Design) alloc(name string, width int) int {
	if _, ok := d.index[name]; ok {
		panic("signal " + name + " already exists")
	}
	if width <= 0 {
		panic("signal " + name + " has invalid width")
	}
	id := len(d.names)
	d.names = append(d.names, name)
	d.widths = append(d.widths, width)
	d.index[name] = id
	return id
}

// A Scope allocates signals under a module path.
//
type Scope struct {
	d    *Design
	path string
}

// Path returns the hierarchical path of the scope.
//
func (s *Scope) Path() string { return s.path }

// Sub returns the scope of sub-module name.
//
func (s *Scope) Sub(name string) *Scope {
	return &Scope{d: s.d, path: s.path + dut.Separator + name}
}

// Signal allocates a new signal and returns its id. It panics if the signal
// already exists.
//
func (s *Scope) Signal(name string, width int) int {
	return s.d.alloc(s.path+dut.Separator+name, width)
}

// Pin returns the id of the given signal.
// This function panics if the signal does not exist.
//
func (s *Scope) Pin(name string) int {
	n, ok := s.d.index[s.path+dut.Separator+name]
	if !ok {
		panic("signal " + s.path + dut.Separator + name + " does not exist")
	}
	return n
}

// PinOrNew returns the id of the given signal. If no such signal exists a new
// one is allocated.
//
func (s *Scope) PinOrNew(name string, width int) int {
	if n, ok := s.d.index[s.path+dut.Separator+name]; ok {
		return n
	}
	return s.Signal(name, width)
}

// Add adds components to the design.
//
func (s *Scope) Add(cs ...Component) { s.d.Add(cs...) }
