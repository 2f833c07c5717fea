package gen

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Parse errors.
//
var (
	ErrUnterminated = errors.New("unterminated module")
	ErrDuplicate    = errors.New("duplicate module")
)

// WireDecl is a wire declared in a module.
//
type WireDecl struct {
	Name  string
	Width int
}

// Cell is a sub-module instance. Type is the module type name, without any
// namespace qualifier. Name is the instance name, without the cell_ prefix.
//
type Cell struct {
	Type string
	Name string
}

// ModuleDesc is the type level description of a module: the wires it
// declares and the cells it instantiates, in source order. A module type may
// be instantiated several times, all instances share the same description.
//
type ModuleDesc struct {
	Name  string
	Line  int
	Wires []WireDecl
	Cells []Cell
}

type state int

const (
	searching state = iota
	insideModule
)

var (
	reStart = regexp.MustCompile(`struct (\S+) : public module \{`)
	reWire  = regexp.MustCompile(`\bwire<(\d+)>\s+(\w+)[^;]*;`)
	reCell  = regexp.MustCompile(`(\S+)\s+cell_(\w+);`)
	reEnd   = regexp.MustCompile(`\}; // struct \S+`)
)

// maximum line length accepted by Parse.
const maxLine = 1 << 20

// Parse scans the C++ source emitted by the synthesis tool and returns the
// modules it declares, keyed by type name.
//
// Lines are classified against the module start, wire, cell and module end
// patterns; anything else is ignored. A module without an end marker yields
// ErrUnterminated and no module map at all.
//
func Parse(r io.Reader) (map[string]*ModuleDesc, error) {
	var (
		mods = make(map[string]*ModuleDesc)
		cur  *ModuleDesc
		st   = searching
		line int
	)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLine)
	for s.Scan() {
		line++
		l := s.Text()
		switch st {
		case searching:
			m := reStart.FindStringSubmatch(l)
			if m == nil {
				continue
			}
			if prev, ok := mods[m[1]]; ok {
				return nil, errors.Wrapf(ErrDuplicate, "line %d: %s, first declared at line %d", line, m[1], prev.Line)
			}
			cur = &ModuleDesc{Name: m[1], Line: line}
			mods[cur.Name] = cur
			st = insideModule
		case insideModule:
			if m := reWire.FindStringSubmatch(l); m != nil {
				w, err := strconv.Atoi(m[1])
				if err != nil || w <= 0 {
					return nil, errors.Errorf("line %d: invalid width %q for wire %s in module %s", line, m[1], m[2], cur.Name)
				}
				cur.Wires = append(cur.Wires, WireDecl{Name: m[2], Width: w})
			} else if m := reCell.FindStringSubmatch(l); m != nil {
				cur.Cells = append(cur.Cells, Cell{Type: unqualify(m[1]), Name: m[2]})
			} else if reEnd.MatchString(l) {
				cur = nil
				st = searching
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrapf(err, "line %d", line+1)
	}
	if st == insideModule {
		return nil, errors.Wrapf(ErrUnterminated, "%s, started at line %d", cur.Name, cur.Line)
	}
	return mods, nil
}

// unqualify strips any namespace qualifier from a C++ type name.
func unqualify(typ string) string {
	if i := strings.LastIndex(typ, "::"); i >= 0 {
		return typ[i+2:]
	}
	return typ
}
