package bench_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/yosim"
	"github.com/db47h/yosim/bench"
	"github.com/db47h/yosim/gen"
	"github.com/db47h/yosim/toolchain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adderIL = `module \top
  wire width 1 input 0 \clk
  wire width 8 input 1 \a
  wire width 8 input 2 \b
  wire width 9 output 3 \r
end
`

const adderCC = `namespace cxxrtl_design {
struct p_top : public module {
	wire<1> p_clk;
	wire<8> p_a;
	wire<8> p_b;
	wire<9> p_r;
}; // struct p_top
} // namespace cxxrtl_design
`

func writeFile(t *testing.T, name, content string, perm os.FileMode) string {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), perm))
	return name
}

func TestConfig_Validate(t *testing.T) {
	dir := t.TempDir()
	il := writeFile(t, filepath.Join(dir, "top.il"), adderIL, 0644)
	tmpl := writeFile(t, filepath.Join(dir, "bad.tmpl"), "{{.Nope", 0644)

	data := []struct {
		name  string
		cfg   bench.Config
		cause error
	}{
		{"ok", bench.Config{Design: il, Ports: []string{"clk", "r"}}, nil},
		{"no_design", bench.Config{}, nil},
		{"missing_design", bench.Config{Design: filepath.Join(dir, "nope.il")}, nil},
		{"unit", bench.Config{Design: il, Precision: yosim.Precision{Value: 1, Unit: "ms"}}, yosim.ErrInvalidUnit},
		{"port", bench.Config{Design: il, Ports: []string{"clk", "rst"}}, yosim.ErrMissingPort},
		{"top", bench.Config{Design: il, Top: "adder"}, toolchain.ErrNoModule},
		{"template", bench.Config{Design: il, Template: tmpl}, nil},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			err := d.cfg.Validate()
			if d.name == "ok" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if d.cause != nil {
				assert.Equal(t, d.cause, errors.Cause(err))
			}
		})
	}
}

// fakeTools writes shell scripts standing in for the synthesis tool and the
// compiler. The synthesis tool copies cc to its output; the compiler copies
// its input to dir/compiled.cc.
func fakeTools(t *testing.T, dir, cc string) toolchain.Options {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no shell")
	}
	src := writeFile(t, filepath.Join(dir, "synth.cc"), cc, 0644)
	yosys := writeFile(t, filepath.Join(dir, "yosys"), "#!/bin/sh\ncp '"+src+"' \"$4\"\n", 0755)
	cxx := writeFile(t, filepath.Join(dir, "cxx"), "#!/bin/sh\nfor last; do :; done\ncp \"$last\" '"+filepath.Join(dir, "compiled.cc")+"'\n", 0755)
	return toolchain.Options{Yosys: yosys, CXX: cxx}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	require.NoError(t, os.Mkdir(work, 0755))
	cfg := &bench.Config{
		Design:    writeFile(t, filepath.Join(dir, "top.il"), adderIL, 0644),
		Ports:     []string{"clk", "a", "b", "r"},
		Toolchain: fakeTools(t, dir, adderCC),
	}
	so, err := bench.Build(context.Background(), cfg, work)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(work, "simulation.so"), so)

	b, err := os.ReadFile(filepath.Join(dir, "compiled.cc"))
	require.NoError(t, err)
	src := string(b)
	require.True(t, strings.HasPrefix(src, adderCC), "glue must be appended to the synthesized source")
	glue, err := gen.Generate(strings.NewReader(adderCC), nil, "")
	require.NoError(t, err)
	assert.Equal(t, adderCC+string(glue), src)
}

func TestBuild_errors(t *testing.T) {
	dir := t.TempDir()
	il := writeFile(t, filepath.Join(dir, "top.il"), adderIL, 0644)
	compiled := filepath.Join(dir, "compiled.cc")

	// configuration errors are reported before any tool runs.
	cfg := &bench.Config{
		Design:    il,
		Ports:     []string{"rst"},
		Toolchain: toolchain.Options{Yosys: filepath.Join(dir, "nope"), CXX: filepath.Join(dir, "nope")},
	}
	_, err := bench.Build(context.Background(), cfg, dir)
	require.Error(t, err)
	assert.Equal(t, yosim.ErrMissingPort, errors.Cause(err))

	// generation errors abort before compiling.
	cfg = &bench.Config{
		Design:    il,
		Toolchain: fakeTools(t, dir, "struct p_top : public module {\n\tp_gone cell_p_x;\n}; // struct p_top\n"),
	}
	_, err = bench.Build(context.Background(), cfg, dir)
	require.Error(t, err)
	assert.Equal(t, gen.ErrUnknownModule, errors.Cause(err))
	assert.NoFileExists(t, compiled)

	// tool failures carry the tool output.
	cfg.Toolchain.Yosys = writeFile(t, filepath.Join(dir, "yosys-fail"), "#!/bin/sh\necho 'ERROR: syntax error' >&2\nexit 1\n", 0755)
	_, err = bench.Build(context.Background(), cfg, dir)
	var te *toolchain.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "ERROR: syntax error\n", string(te.Output))
}

func TestOpen_error(t *testing.T) {
	_, err := bench.Open(context.Background(), &bench.Config{})
	assert.Error(t, err)
}

func TestBuild_nativeWaveform(t *testing.T) {
	dir := t.TempDir()
	args := filepath.Join(dir, "args")
	cfg := &bench.Config{
		Design:         writeFile(t, filepath.Join(dir, "top.il"), adderIL, 0644),
		NativeWaveform: filepath.Join(dir, "deltas.vcd"),
		Toolchain:      fakeTools(t, dir, adderCC),
	}
	cfg.Toolchain.CXX = writeFile(t, filepath.Join(dir, "cxx-args"), "#!/bin/sh\necho \"$@\" > '"+args+"'\n", 0755)
	_, err := bench.Build(context.Background(), cfg, dir)
	require.NoError(t, err)
	b, err := os.ReadFile(args)
	require.NoError(t, err)
	assert.Contains(t, string(b), "-DVCD_DUMP")
	assert.NotContains(t, string(b), "-DDEBUG")
}
