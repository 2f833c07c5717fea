package toolchain

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/db47h/yosim"
	"github.com/pkg/errors"
)

// ErrNoModule is returned by Ports when the requested module is not found.
//
var ErrNoModule = errors.New("module not found")

// Port is a port of an RTLIL module.
//
type Port struct {
	Name   string
	Width  int
	Output bool
}

// Ports returns the ports of module top in the RTLIL text read from r, in
// declaration order.
//
func Ports(r io.Reader, top string) ([]Port, error) {
	var (
		ports  []Port
		inside bool
		found  bool
		line   int
	)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for s.Scan() {
		line++
		f := strings.Fields(s.Text())
		if len(f) == 0 {
			continue
		}
		switch {
		case !inside && f[0] == "module" && len(f) == 2 && f[1] == `\`+top:
			inside, found = true, true
		case inside && f[0] == "end" && !strings.HasPrefix(s.Text(), " ") && !strings.HasPrefix(s.Text(), "\t"):
			inside = false
		case inside && f[0] == "wire":
			p, ok, err := parseWire(f)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			if ok {
				ports = append(ports, p)
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrapf(err, "line %d", line+1)
	}
	if !found {
		return nil, errors.Wrapf(ErrNoModule, "%s", top)
	}
	return ports, nil
}

// parseWire parses a wire declaration:
//
//	wire [width N] [offset N] [input N | output N | inout N] [signed] \name
//
func parseWire(f []string) (p Port, ok bool, err error) {
	p.Width = 1
	name := f[len(f)-1]
	for i := 1; i < len(f)-1; i++ {
		switch f[i] {
		case "width":
			i++
			if i >= len(f)-1 {
				return p, false, errors.Errorf("missing width for wire %s", name)
			}
			w, err := strconv.Atoi(f[i])
			if err != nil || w <= 0 {
				return p, false, errors.Errorf("invalid width %q for wire %s", f[i], name)
			}
			p.Width = w
		case "input", "inout":
			ok = true
			i++
		case "output":
			ok, p.Output = true, true
			i++
		case "offset":
			i++
		}
	}
	p.Name = strings.TrimPrefix(name, `\`)
	return p, ok, nil
}

// CheckPorts verifies that every name in ports is a port of module top in the
// RTLIL text read from r. A missing port is reported as yosim.ErrMissingPort.
//
func CheckPorts(r io.Reader, top string, ports []string) error {
	ps, err := Ports(r, top)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(ps))
	for _, p := range ps {
		have[p.Name] = true
	}
	for _, name := range ports {
		if !have[name] {
			return errors.Wrapf(yosim.ErrMissingPort, "%q in module %s", name, top)
		}
	}
	return nil
}
