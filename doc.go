/*
Package yosim runs testbench procedures against a compiled, cycle-accurate
simulation model of a hardware design.

The simulation model is reached through the Core interface: a flat table of
signals addressed by integer id, a simulated clock, and a small trigger
protocol. Signals are exposed as a tree of modules by package dut. Native
cores are produced from the C++ output of a synthesis tool by the glue code
generator in package gen, and loaded by package native. Package engine
provides a pure Go core.

Testbench procedures are ordinary Go functions of type Func. A procedure
suspends by waiting on a Trigger:

	func reset(c *yosim.Ctx) error {
		rst.Set(1)
		if err := c.RisingEdge(clk); err != nil {
			return err
		}
		rst.Set(0)
		return c.RisingEdge(clk)
	}

A Simulator resumes its main tasks in lock-step with the core: each round,
every main task whose trigger fired runs until it waits again, then forked
child tasks get one chance to run, then the core advances simulated time until
one of the committed triggers fires. The run ends as soon as any main task
returns.
*/
package yosim
