package engine_test

import (
	"testing"
	"testing/quick"

	"github.com/db47h/yosim/engine"
	"github.com/db47h/yosim/engine/enginetest"
)

func Test_parts(t *testing.T) {
	two := func(f func(a, b, out int) engine.Component) func(in, out []int) engine.Component {
		return func(in, out []int) engine.Component { return f(in[0], in[1], out[0]) }
	}
	td := []struct {
		part enginetest.Part
		ref  func(in []uint64) []uint64
	}{
		{
			enginetest.Part{Name: "NOT", Inputs: []int{8}, Outputs: []int{8}, New: func(in, out []int) engine.Component { return engine.Not(in[0], out[0]) }},
			func(in []uint64) []uint64 { return []uint64{^in[0]} },
		},
		{
			enginetest.Part{Name: "AND", Inputs: []int{16, 16}, Outputs: []int{16}, New: two(engine.And)},
			func(in []uint64) []uint64 { return []uint64{in[0] & in[1]} },
		},
		{
			enginetest.Part{Name: "OR", Inputs: []int{16, 16}, Outputs: []int{16}, New: two(engine.Or)},
			func(in []uint64) []uint64 { return []uint64{in[0] | in[1]} },
		},
		{
			enginetest.Part{Name: "XOR", Inputs: []int{64, 64}, Outputs: []int{64}, New: two(engine.Xor)},
			func(in []uint64) []uint64 { return []uint64{in[0] ^ in[1]} },
		},
		{
			enginetest.Part{Name: "ADD", Inputs: []int{8, 8}, Outputs: []int{9}, New: two(engine.Add)},
			func(in []uint64) []uint64 { return []uint64{in[0] + in[1]} },
		},
		{
			enginetest.Part{Name: "ADD_TRUNC", Inputs: []int{8, 8}, Outputs: []int{8}, New: two(engine.Add)},
			func(in []uint64) []uint64 { return []uint64{in[0] + in[1]} },
		},
		{
			enginetest.Part{Name: "MUX", Inputs: []int{4, 4, 1}, Outputs: []int{4}, New: func(in, out []int) engine.Component { return engine.Mux(in[0], in[1], in[2], out[0]) }},
			func(in []uint64) []uint64 {
				if in[2] != 0 {
					return []uint64{in[1]}
				}
				return []uint64{in[0]}
			},
		},
	}
	for _, d := range td {
		t.Run(d.part.Name, func(t *testing.T) {
			enginetest.ComparePart(t, d.part, d.ref)
		})
	}
}

func TestInputOutput(t *testing.T) {
	var in, out uint64
	d := engine.NewDesign()
	w := d.Top().Signal("w", 16)
	d.Add(
		engine.Input(w, func() uint64 { return in }),
		engine.Output(w, func(v uint64) { out = v }),
	)
	e, err := engine.New(-1, d)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	f := func(x uint16) bool {
		in = uint64(x)
		if err := e.Settle(); err != nil {
			t.Fatal(err)
		}
		return out == in
	}
	if err = quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestDFF(t *testing.T) {
	d := engine.NewDesign()
	top := d.Top()
	clk, in, q, falls := top.Signal("clk", 1), top.Signal("d", 8), top.Signal("q", 8), top.Signal("falls", 8)
	d.Add(
		engine.DFF(clk, in, q),
		func(e *engine.Engine) {
			if e.Fell(clk) {
				e.Set(falls, e.Get(falls)+1)
			}
		},
	)
	e, err := engine.New(-1, d)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	td := []struct {
		clk, d   uint64
		q, falls uint64
	}{
		{0, 5, 0, 0},
		{1, 5, 5, 0},
		{1, 7, 5, 0},
		{0, 7, 5, 1},
		{0, 9, 5, 1},
		{1, 9, 9, 1},
		{0, 9, 9, 2},
	}
	for i, v := range td {
		e.Set(clk, v.clk)
		e.Set(in, v.d)
		if err = e.Settle(); err != nil {
			t.Fatal(err)
		}
		if got := e.Get(q); got != v.q {
			t.Errorf("step %d: q = %d, expected %d", i, got, v.q)
		}
		if got := e.Get(falls); got != v.falls {
			t.Errorf("step %d: falls = %d, expected %d", i, got, v.falls)
		}
	}
}
