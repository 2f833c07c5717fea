// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package enginetest provides utility functions for testing engine components.
//
package enginetest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/db47h/yosim/engine"
)

// Part describes a component under test: the widths of its inputs and
// outputs, and a function that builds it given signal ids for them.
//
type Part struct {
	Name    string
	Inputs  []int
	Outputs []int
	New     func(in, out []int) engine.Component
}

// Iterations is the number of random input sets tried by ComparePart.
//
var Iterations = 256

// ComparePart checks that the outputs of p match the values computed by ref
// for the same inputs: all zeroes, all ones, then random values. Outputs of
// ref are masked to the output widths.
//
func ComparePart(t *testing.T, p Part, ref func(in []uint64) []uint64) {
	t.Helper()

	d := engine.NewDesign()
	top := d.Top()
	inputs := make([]uint64, len(p.Inputs))
	outputs := make([]uint64, len(p.Outputs))
	in := make([]int, len(p.Inputs))
	out := make([]int, len(p.Outputs))
	for i, w := range p.Inputs {
		k := i
		in[i] = top.Signal(fmt.Sprintf("in%d", i), w)
		d.Add(engine.Input(in[i], func() uint64 { return inputs[k] }))
	}
	for i, w := range p.Outputs {
		k := i
		out[i] = top.Signal(fmt.Sprintf("out%d", i), w)
		d.Add(engine.Output(out[i], func(v uint64) { outputs[k] = v }))
	}
	d.Add(p.New(in, out))

	e, err := engine.New(-1, d)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	check := func() {
		t.Helper()
		if err := e.Settle(); err != nil {
			t.Fatal(err)
		}
		exp := ref(append([]uint64(nil), inputs...))
		for i := range outputs {
			if want := exp[i] & mask(p.Outputs[i]); outputs[i] != want {
				t.Fatal(errString(p, inputs, i, want, outputs[i]))
			}
		}
	}

	check()
	for i := range inputs {
		inputs[i] = mask(p.Inputs[i])
	}
	check()

	r := rand.New(rand.NewSource(int64(len(p.Name))))
	for n := 0; n < Iterations; n++ {
		for i := range inputs {
			inputs[i] = r.Uint64() & mask(p.Inputs[i])
		}
		check()
	}
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}

func errString(p Part, inputs []uint64, o int, ex, got uint64) string {
	var b strings.Builder
	for i, v := range inputs {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "in%d=%d", i, v)
	}
	return fmt.Sprintf("%s: expected %s => out%d=%d, got %d", p.Name, b.String(), o, ex, got)
}
