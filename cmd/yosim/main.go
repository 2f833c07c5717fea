// Command yosim builds simulation libraries from RTLIL designs and inspects
// them.
//
//	yosim gen top.cc                 # print the glue for a synthesized design
//	yosim ports top.il               # list the ports of the top module
//	yosim build yosim.hcl            # synthesize, generate and compile
//	yosim signals yosim.hcl          # list the signals of a compiled design
//
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "yosim:", err)
		os.Exit(1)
	}
}
