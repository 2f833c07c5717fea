// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package engine

// Not returns a bitwise NOT gate.
//
//	Function: out = ^in
//
func Not(in, out int) Component {
	return func(e *Engine) { e.Set(out, ^e.Get(in)) }
}

type gate func(a, b uint64) uint64

func (g gate) part(a, b, out int) Component {
	return func(e *Engine) { e.Set(out, g(e.Get(a), e.Get(b))) }
}

var (
	and = gate(func(a, b uint64) uint64 { return a & b })
	or  = gate(func(a, b uint64) uint64 { return a | b })
	xor = gate(func(a, b uint64) uint64 { return a ^ b })
	add = gate(func(a, b uint64) uint64 { return a + b })
)

// And returns a bitwise AND gate.
//
//	Function: out = a & b
//
func And(a, b, out int) Component { return and.part(a, b, out) }

// Or returns a bitwise OR gate.
//
//	Function: out = a | b
//
func Or(a, b, out int) Component { return or.part(a, b, out) }

// Xor returns a bitwise XOR gate.
//
//	Function: out = a ^ b
//
func Xor(a, b, out int) Component { return xor.part(a, b, out) }

// Add returns an adder. The result is truncated to the width of out.
//
//	Function: out = a + b
//
func Add(a, b, out int) Component { return add.part(a, b, out) }

// Mux returns a multiplexer.
//
//	Function: if sel == 0 { out = a } else { out = b }
//
func Mux(a, b, sel, out int) Component {
	return func(e *Engine) {
		if e.Get(sel) != 0 {
			e.Set(out, e.Get(b))
		} else {
			e.Set(out, e.Get(a))
		}
	}
}

// DFF returns a data flip flop clocked on the rising edge of clk.
//
//	Function: q(t) = d(t-1)
//
func DFF(clk, d, q int) Component {
	return func(e *Engine) {
		if e.Rose(clk) {
			e.Set(q, e.Get(d))
		}
	}
}

// DFFR returns a data flip flop with synchronous reset. rst is sampled on the
// rising edge of clk.
//
func DFFR(clk, rst, d, q int) Component {
	return func(e *Engine) {
		if !e.Rose(clk) {
			return
		}
		if e.Get(rst) != 0 {
			e.Set(q, 0)
		} else {
			e.Set(q, e.Get(d))
		}
	}
}

// Input returns a component that drives out with the value returned by f on
// every evaluation pass.
//
//	Function: out = f()
//
func Input(out int, f func() uint64) Component {
	return func(e *Engine) { e.Set(out, f()) }
}

// Output returns a probe. f is called with the current value of in on every
// evaluation pass.
//
//	Function: f(in)
//
func Output(in int, f func(uint64)) Component {
	return func(e *Engine) { f(e.Get(in)) }
}
