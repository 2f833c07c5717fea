package toolchain_test

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/yosim"
	"github.com/db47h/yosim/toolchain"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileArgs(t *testing.T) {
	data := []struct {
		name string
		opts toolchain.Options
		want []string
	}{
		{"default", toolchain.Options{}, []string{
			"-shared", "-fPIC", "-O3", "-std=c++14",
			"-I/usr/local/share/yosys/include", "-I/usr/local/share/yosys/include/backends/cxxrtl",
			"-o", "sim.so", "top.cc"}},
		{"all", toolchain.Options{
			Include:  []string{"/inc"},
			LibDirs:  []string{"/lib"},
			Flags:    []string{"-g"},
			Debug:    true,
			Waveform: true,
		}, []string{
			"-shared", "-fPIC", "-O3", "-std=c++14",
			"-I/inc", "-L/lib", "-DDEBUG", "-DVCD_DUMP", "-g",
			"-o", "sim.so", "top.cc"}},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			got := toolchain.CompileArgs("top.cc", "sim.so", d.opts)
			if diff := cmp.Diff(d.want, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
	assert.Equal(t, []string{"-q", "top.il", "-o", "top.cc"}, toolchain.SynthArgs("top.il", "top.cc"))
}

func TestRun_error(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no shell")
	}
	dir := t.TempDir()
	err = toolchain.Synth(context.Background(), filepath.Join(dir, "top.il"), filepath.Join(dir, "top.cc"), toolchain.Options{Yosys: sh})
	require.Error(t, err)
	var te *toolchain.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, sh, te.Tool)
	assert.Equal(t, toolchain.SynthArgs(filepath.Join(dir, "top.il"), filepath.Join(dir, "top.cc")), te.Args)
	assert.NotEmpty(t, te.Output)
	assert.Contains(t, err.Error(), strings.TrimSpace(string(te.Output)), "tool output must be kept as is")

	err = toolchain.Compile(context.Background(), "top.cc", "sim.so", toolchain.Options{CXX: filepath.Join(dir, "nope")})
	require.True(t, errors.As(err, &te))
	assert.Empty(t, te.Output)
}

const adderIL = `attribute \generator "nMigen"
attribute \top 1
module \top
  attribute \src "adder.py:12"
  wire width 1 input 0 \rst
  wire width 1 input 1 \clk
  wire width 64 input 2 \a
  wire width 64 input 3 \b
  wire width 65 output 4 \r
  wire width 65 \r$next
  cell \adder \adder
    connect \a \a
  end
  process $group_0
    assign \r$next \r
  end
end
module \adder
  wire width 64 input 0 \a
  wire width 64 input 1 \b
  wire width 65 output 2 \r
  wire upto offset 4 width 2 input 3 \x
end
`

func TestPorts(t *testing.T) {
	ps, err := toolchain.Ports(strings.NewReader(adderIL), "top")
	require.NoError(t, err)
	want := []toolchain.Port{
		{Name: "rst", Width: 1},
		{Name: "clk", Width: 1},
		{Name: "a", Width: 64},
		{Name: "b", Width: 64},
		{Name: "r", Width: 65, Output: true},
	}
	if diff := cmp.Diff(want, ps); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	ps, err = toolchain.Ports(strings.NewReader(adderIL), "adder")
	require.NoError(t, err)
	require.Len(t, ps, 4)
	assert.Equal(t, toolchain.Port{Name: "x", Width: 2}, ps[3])

	_, err = toolchain.Ports(strings.NewReader(adderIL), "nope")
	assert.Equal(t, toolchain.ErrNoModule, errors.Cause(err))

	_, err = toolchain.Ports(strings.NewReader("module \\top\n  wire width x input 1 \\a\nend\n"), "top")
	assert.Error(t, err)
}

func TestCheckPorts(t *testing.T) {
	require.NoError(t, toolchain.CheckPorts(strings.NewReader(adderIL), "top", []string{"clk", "r"}))
	err := toolchain.CheckPorts(strings.NewReader(adderIL), "top", []string{"clk", "x"})
	require.Error(t, err)
	assert.Equal(t, yosim.ErrMissingPort, errors.Cause(err))
	assert.Contains(t, err.Error(), `"x"`)
}
