// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package dut exposes the signals of a simulation core as a tree of modules
// and signals addressable by hierarchical path and by integer id.
//
// The tree is built once from the flat signal table of a Backend and its shape
// never changes afterwards. Signal values are always read from and written to
// the backend.
//
package dut

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Separator is the hierarchy separator in signal names.
//
const Separator = "."

// RootName is the name of the root module. A leading RootName segment in a
// signal name refers to the root itself.
//
const RootName = "top"

// A Backend is the flat signal table of a simulation core. Ids are dense, from
// 0 to NumSignals()-1, and stable for the lifetime of the backend.
//
type Backend interface {
	NumSignals() int
	SignalName(id int) string
	SignalWidth(id int) int
	// Get returns the most recently committed value of signal id.
	Get(id int) uint64
	// Set requests that the backend apply value v to signal id. When the
	// new value becomes visible to Get is up to the backend.
	Set(id int, v uint64)
}

// Signal is a leaf of the module tree.
//
type Signal struct {
	b     Backend
	id    int
	name  string
	local string
	width int
}

// NewSignal returns a handle for signal id of b.
//
func NewSignal(b Backend, id int) *Signal {
	name := b.SignalName(id)
	local := name
	if i := strings.LastIndex(name, Separator); i >= 0 {
		local = name[i+1:]
	}
	return &Signal{b: b, id: id, name: name, local: local, width: b.SignalWidth(id)}
}

// ID returns the signal id.
//
func (s *Signal) ID() int { return s.id }

// Name returns the full hierarchical name, as reported by the backend.
//
func (s *Signal) Name() string { return s.name }

// Local returns the last segment of the signal name.
//
func (s *Signal) Local() string { return s.local }

// Width returns the bit width of the signal.
//
func (s *Signal) Width() int { return s.width }

// Value returns the current value of the signal. Signals wider than 64 bits
// return their 64 least significant bits.
//
func (s *Signal) Value() uint64 { return s.b.Get(s.id) }

// Set requests a new value for the signal.
//
func (s *Signal) Set(v uint64) { s.b.Set(s.id, v) }

// Bool returns true if the signal value is non-zero.
//
func (s *Signal) Bool() bool { return s.Value() != 0 }

func (s *Signal) String() string { return strconv.FormatUint(s.Value(), 10) }

// a node is either a sub-module or a signal.
type node struct {
	name string
	mod  *Module
	sig  *Signal
}

// Module is an inner node of the tree. Children are kept in insertion order.
//
type Module struct {
	name  string
	path  string
	nodes []node
	index map[string]int
}

// NewModule returns an empty module. path is the hierarchical path of the
// module, used in error messages and by Path().
//
func NewModule(name, path string) *Module {
	return &Module{name: name, path: path, index: make(map[string]int)}
}

// Build enumerates the signals of b and returns the root module.
//
func Build(b Backend) (*Module, error) {
	root := NewModule(RootName, RootName)
	n := b.NumSignals()
	for id := 0; id < n; id++ {
		s := NewSignal(b, id)
		if s.name == "" {
			return nil, errors.Errorf("signal %d has no name", id)
		}
		if err := root.Insert(splitPath(s.name), s); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func splitPath(name string) []string {
	p := strings.Split(name, Separator)
	if len(p) > 1 && p[0] == RootName {
		p = p[1:]
	}
	return p
}

// Name returns the module name.
//
func (m *Module) Name() string { return m.name }

// Path returns the hierarchical path of the module.
//
func (m *Module) Path() string { return m.path }

// Len returns the number of direct children.
//
func (m *Module) Len() int { return len(m.nodes) }

// Insert attaches s at path, relative to m. All segments but the last are
// module names and intermediate modules are created as needed.
//
func (m *Module) Insert(path []string, s *Signal) error {
	if len(path) == 0 {
		return errors.New("empty signal path")
	}
	for _, seg := range path[:len(path)-1] {
		i, ok := m.index[seg]
		if !ok {
			sub := NewModule(seg, m.path+Separator+seg)
			m.add(node{name: seg, mod: sub})
			m = sub
			continue
		}
		if m.nodes[i].mod == nil {
			return errors.Errorf("%s%s%s is a signal, not a module", m.path, Separator, seg)
		}
		m = m.nodes[i].mod
	}
	name := path[len(path)-1]
	if _, ok := m.index[name]; ok {
		return errors.Errorf("duplicate name %s%s%s", m.path, Separator, name)
	}
	m.add(node{name: name, sig: s})
	return nil
}

func (m *Module) add(n node) {
	m.index[n.name] = len(m.nodes)
	m.nodes = append(m.nodes, n)
}

// Module returns the direct sub-module with the given name, or nil.
//
func (m *Module) Module(name string) *Module {
	if i, ok := m.index[name]; ok {
		return m.nodes[i].mod
	}
	return nil
}

// Signal returns the direct child signal with the given name, or nil.
//
func (m *Module) Signal(name string) *Signal {
	if i, ok := m.index[name]; ok {
		return m.nodes[i].sig
	}
	return nil
}

// Lookup returns the signal at the given dotted path, relative to m.
//
func (m *Module) Lookup(path string) (*Signal, bool) {
	p := strings.Split(path, Separator)
	for _, seg := range p[:len(p)-1] {
		if m = m.Module(seg); m == nil {
			return nil, false
		}
	}
	s := m.Signal(p[len(p)-1])
	return s, s != nil
}

// MustLookup is like Lookup but panics if the signal does not exist.
//
func (m *Module) MustLookup(path string) *Signal {
	s, ok := m.Lookup(path)
	if !ok {
		panic("signal " + m.path + Separator + path + " does not exist")
	}
	return s
}

// Modules returns the direct sub-modules of m.
//
func (m *Module) Modules() []*Module {
	var r []*Module
	for _, n := range m.nodes {
		if n.mod != nil {
			r = append(r, n.mod)
		}
	}
	return r
}

// Signals returns the signals directly under m or, if recursive is true, all
// signals in the subtree. The order is the construction order, depth first.
//
func (m *Module) Signals(recursive bool) []*Signal {
	var r []*Signal
	return m.signals(r, recursive)
}

func (m *Module) signals(r []*Signal, recursive bool) []*Signal {
	for _, n := range m.nodes {
		switch {
		case n.sig != nil:
			r = append(r, n.sig)
		case recursive:
			r = n.mod.signals(r, true)
		}
	}
	return r
}
