package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/db47h/yosim"
	"github.com/db47h/yosim/bench"
	"github.com/db47h/yosim/internal/config"
	"github.com/db47h/yosim/toolchain"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const full = `
design   = "${env.BUILD}/top.il"
top      = "top"
ports    = ["clk", "rst"]
waveform = "dump.vcd"
native_waveform = "/tmp/deltas.vcd"
debug    = true
work_dir = "/tmp/work"
root     = "p_top"

precision {
  value = 5
  unit  = "ns"
}

toolchain {
  yosys    = "/opt/yosys/bin/yosys"
  cxx      = "g++"
  include  = ["/opt/yosys/share/include"]
  lib_dirs = ["/opt/lib"]
  flags    = ["-g"]
}
`

func TestDecode(t *testing.T) {
	cfg, err := config.Decode(context.Background(), []byte(full), "/bench/yosim.hcl", map[string]string{"BUILD": "build"})
	require.NoError(t, err)
	want := &bench.Config{
		Design:         "/bench/build/top.il",
		Top:            "top",
		Ports:          []string{"clk", "rst"},
		Waveform:       "/bench/dump.vcd",
		NativeWaveform: "/tmp/deltas.vcd",
		Debug:          true,
		WorkDir:        "/tmp/work",
		Root:           "p_top",
		Precision:      yosim.Precision{Value: 5, Unit: yosim.NS},
		Toolchain: toolchain.Options{
			Yosys:   "/opt/yosys/bin/yosys",
			CXX:     "g++",
			Include: []string{"/opt/yosys/share/include"},
			LibDirs: []string{"/opt/lib"},
			Flags:   []string{"-g"},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_minimal(t *testing.T) {
	cfg, err := config.Decode(context.Background(), []byte(`design = "top.il"`), "yosim.hcl", nil)
	require.NoError(t, err)
	assert.Equal(t, "top.il", cfg.Design)
	assert.Equal(t, yosim.Precision{}, cfg.Precision)
	assert.Empty(t, cfg.Ports)
}

func TestDecode_errors(t *testing.T) {
	data := []struct {
		name  string
		src   string
		cause error
	}{
		{"syntax", `design = `, nil},
		{"missing_design", `ports = ["clk"]`, nil},
		{"unknown_attr", "design = \"a\"\nfoo = 1\n", nil},
		{"unit", "design = \"a\"\nprecision {\n value = 1\n unit = \"ms\"\n}\n", yosim.ErrInvalidUnit},
		{"zero", "design = \"a\"\nprecision {\n value = 0\n unit = \"ns\"\n}\n", nil},
		{"env", `design = "${env.NOPE}"`, nil},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			cfg, err := config.Decode(context.Background(), []byte(d.src), "yosim.hcl", nil)
			require.Error(t, err)
			assert.Nil(t, cfg)
			if d.cause != nil {
				assert.Equal(t, d.cause, errors.Cause(err))
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "yosim.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`design = "${env.YOSIM_TEST_DESIGN}"`), 0644))
	t.Setenv("YOSIM_TEST_DESIGN", "/abs/top.il")
	cfg, err := config.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "/abs/top.il", cfg.Design)

	_, err = config.Load(context.Background(), filepath.Join(dir, "nope.hcl"))
	assert.Error(t, err)
}
