// Package toolchain runs the external tools that turn a design into a
// loadable simulation library: the synthesis tool, which lowers RTLIL to C++,
// and the C++ compiler.
//
// Tools are run as plain processes. Their output is kept as is and returned
// in an *Error when they fail.
//
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/db47h/yosim/internal/ctxlog"
)

// Default tools.
//
const (
	DefaultYosys = "yosys"
	DefaultCXX   = "clang++"
)

// DefaultInclude are the include directories used when Options.Include is
// empty.
//
var DefaultInclude = []string{
	"/usr/local/share/yosys/include",
	"/usr/local/share/yosys/include/backends/cxxrtl",
}

// Options configures the tools.
//
type Options struct {
	Yosys   string   // synthesis tool, default DefaultYosys
	CXX     string   // C++ compiler, default DefaultCXX
	Include []string // include directories, default DefaultInclude
	LibDirs []string // library directories
	Flags   []string // extra compiler flags
	// Debug compiles the trigger tracing of the glue in.
	Debug bool
	// Waveform compiles the native waveform writer of the glue in.
	Waveform bool
}

func (o *Options) yosys() string {
	if o.Yosys == "" {
		return DefaultYosys
	}
	return o.Yosys
}

func (o *Options) cxx() string {
	if o.CXX == "" {
		return DefaultCXX
	}
	return o.CXX
}

// Error is returned when a tool fails. Output is the combined standard and
// error output of the tool.
//
type Error struct {
	Tool   string
	Args   []string
	Output []byte
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tool, e.Err)
	if out := bytes.TrimSpace(e.Output); len(out) > 0 {
		msg += "\n" + string(out)
	}
	return msg
}

// Cause returns the error returned by the process.
//
func (e *Error) Cause() error { return e.Err }

// Unwrap returns the error returned by the process.
//
func (e *Error) Unwrap() error { return e.Err }

// SynthArgs returns the synthesis tool arguments that lower il to C++ source
// src.
//
func SynthArgs(il, src string) []string {
	return []string{"-q", il, "-o", src}
}

// Synth lowers the RTLIL file il to C++ source src.
//
func Synth(ctx context.Context, il, src string, opts Options) error {
	return run(ctx, opts.yosys(), SynthArgs(il, src))
}

// CompileArgs returns the compiler arguments that build the shared library so
// from src.
//
func CompileArgs(src, so string, opts Options) []string {
	args := []string{"-shared", "-fPIC", "-O3", "-std=c++14"}
	inc := opts.Include
	if len(inc) == 0 {
		inc = DefaultInclude
	}
	for _, d := range inc {
		args = append(args, "-I"+d)
	}
	for _, d := range opts.LibDirs {
		args = append(args, "-L"+d)
	}
	if opts.Debug {
		args = append(args, "-DDEBUG")
	}
	if opts.Waveform {
		args = append(args, "-DVCD_DUMP")
	}
	args = append(args, opts.Flags...)
	return append(args, "-o", so, src)
}

// Compile builds the shared library so from src.
//
func Compile(ctx context.Context, src, so string, opts Options) error {
	return run(ctx, opts.cxx(), CompileArgs(src, so, opts))
}

func run(ctx context.Context, tool string, args []string) error {
	log := ctxlog.FromContext(ctx)
	log.Debug("running tool", "tool", tool, "args", strings.Join(args, " "))
	start := time.Now()
	cmd := exec.CommandContext(ctx, tool, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &Error{Tool: tool, Args: args, Output: out, Err: err}
	}
	log.Debug("tool done", "tool", tool, "elapsed", time.Since(start))
	return nil
}
