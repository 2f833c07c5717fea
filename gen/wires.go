package gen

import (
	"strings"

	"github.com/pkg/errors"
)

// Flatten errors.
//
var (
	ErrUnknownModule = errors.New("unknown module type")
	ErrCycle         = errors.New("module instantiates itself")
)

// Prefix is the prefix the synthesis tool adds to user visible names.
//
const Prefix = "p_"

// Wire is a wire of a module instance. Hierarchy lists the root module type
// name followed by the cell names leading to the instance.
//
type Wire struct {
	Name      string
	Width     int
	Hierarchy []string
}

// HostPath returns the dotted name of the wire as seen by testbenches, with
// Prefix removed from every segment.
//
//	[p_top p_adder] p_r -> top.adder.r
//
func (w *Wire) HostPath() string {
	var b strings.Builder
	for _, h := range w.Hierarchy {
		b.WriteString(strings.TrimPrefix(h, Prefix))
		b.WriteByte('.')
	}
	b.WriteString(strings.TrimPrefix(w.Name, Prefix))
	return b.String()
}

// NativePath returns the C++ member access expression of the wire, relative
// to a root instance named after the root type without its prefix.
//
//	[p_top p_adder] p_r -> top.cell_p_adder.p_r
//
func (w *Wire) NativePath() string {
	if len(w.Hierarchy) == 0 {
		return w.Name
	}
	return strings.TrimPrefix(strings.Join(w.Hierarchy, ".cell_"), Prefix) + "." + w.Name
}

// Flatten walks the module hierarchy from root depth first and returns every
// wire of every instance: first the wires declared in a module, then those of
// each of its cells, in declaration order.
//
func Flatten(mods map[string]*ModuleDesc, root string) ([]Wire, error) {
	m, ok := mods[root]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownModule, "root %s", root)
	}
	f := flattener{mods: mods, open: make(map[string]bool)}
	if err := f.walk(m, []string{root}); err != nil {
		return nil, err
	}
	return f.wires, nil
}

type flattener struct {
	mods  map[string]*ModuleDesc
	open  map[string]bool // module types on the current path
	wires []Wire
}

func (f *flattener) walk(m *ModuleDesc, hier []string) error {
	f.open[m.Name] = true
	for _, w := range m.Wires {
		f.wires = append(f.wires, Wire{Name: w.Name, Width: w.Width, Hierarchy: hier})
	}
	for _, c := range m.Cells {
		sub, ok := f.mods[c.Type]
		if !ok {
			return errors.Wrapf(ErrUnknownModule, "%s for cell %s in module %s", c.Type, c.Name, m.Name)
		}
		if f.open[sub.Name] {
			return errors.Wrapf(ErrCycle, "%s via cell %s in module %s", sub.Name, c.Name, m.Name)
		}
		h := make([]string, len(hier)+1)
		copy(h, hier)
		h[len(hier)] = c.Name
		if err := f.walk(sub, h); err != nil {
			return err
		}
	}
	f.open[m.Name] = false
	return nil
}
