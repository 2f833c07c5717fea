package yosim

import (
	"strconv"

	"github.com/pkg/errors"
)

// ErrInvalidUnit is returned for time units other than ps, ns, us and s.
//
var ErrInvalidUnit = errors.New("invalid time unit")

// Unit is a time unit.
//
type Unit string

// Supported time units.
//
const (
	PS Unit = "ps"
	NS Unit = "ns"
	US Unit = "us"
	S  Unit = "s"
)

// multipliers to base units (ps).
var unitScale = map[Unit]uint64{
	PS: 1,
	NS: 1e3,
	US: 1e6,
	S:  1e12,
}

// ParseUnit checks that u is a supported unit.
//
func ParseUnit(u string) (Unit, error) {
	if _, ok := unitScale[Unit(u)]; !ok {
		return "", errors.Wrapf(ErrInvalidUnit, "%q", u)
	}
	return Unit(u), nil
}

// Scale returns the number of base units (ps) in one u.
//
func (u Unit) Scale() (uint64, error) {
	m, ok := unitScale[u]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidUnit, "%q", string(u))
	}
	return m, nil
}

// Precision is the length of one simulation time step. Timer durations are
// expressed in steps.
//
type Precision struct {
	Value uint64
	Unit  Unit
}

// DefaultPrecision is 1ps.
//
var DefaultPrecision = Precision{1, PS}

// Scale returns the length of a time step in base units.
//
func (p Precision) Scale() (uint64, error) {
	m, err := p.Unit.Scale()
	if err != nil {
		return 0, err
	}
	if p.Value == 0 {
		return 0, errors.New("zero precision")
	}
	return p.Value * m, nil
}

func (p Precision) String() string {
	return strconv.FormatUint(p.Value, 10) + string(p.Unit)
}
