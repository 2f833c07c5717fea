// Package config loads test bench configuration files.
//
// Configuration files are written in HCL. String expressions can refer to
// environment variables as env.NAME:
//
//	design = "${env.BUILD}/top.il"
//	ports  = ["clk", "rst"]
//
//	precision {
//	  value = 1
//	  unit  = "ns"
//	}
//
//	toolchain {
//	  cxx     = "g++"
//	  include = ["/opt/yosys/share/include"]
//	}
//
// Relative paths are relative to the directory of the configuration file.
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/db47h/yosim"
	"github.com/db47h/yosim/bench"
	"github.com/db47h/yosim/internal/ctxlog"
	"github.com/db47h/yosim/toolchain"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
)

type fileConfig struct {
	Design    string          `hcl:"design"`
	Top       string          `hcl:"top,optional"`
	Ports     []string        `hcl:"ports,optional"`
	Waveform  string          `hcl:"waveform,optional"`
	NativeVCD string          `hcl:"native_waveform,optional"`
	Debug     bool            `hcl:"debug,optional"`
	WorkDir   string          `hcl:"work_dir,optional"`
	Template  string          `hcl:"template,optional"`
	Root      string          `hcl:"root,optional"`
	Precision *precisionBlock `hcl:"precision,block"`
	Toolchain *toolchainBlock `hcl:"toolchain,block"`
}

type precisionBlock struct {
	Value uint64 `hcl:"value"`
	Unit  string `hcl:"unit"`
}

type toolchainBlock struct {
	Yosys   string   `hcl:"yosys,optional"`
	CXX     string   `hcl:"cxx,optional"`
	Include []string `hcl:"include,optional"`
	LibDirs []string `hcl:"lib_dirs,optional"`
	Flags   []string `hcl:"flags,optional"`
}

// Load reads the configuration file at path. Environment variables are taken
// from the process environment.
//
func Load(ctx context.Context, path string) (*bench.Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return Decode(ctx, src, path, environ())
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Decode decodes the configuration src. filename is used in error messages
// and to resolve relative paths.
//
func Decode(ctx context.Context, src []byte, filename string, env map[string]string) (*bench.Config, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("decoding configuration", "path", filename)

	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("failed to parse %s: %s", filename, diags.Error())
	}
	var fc fileConfig
	if diags = gohcl.DecodeBody(f.Body, evalContext(env), &fc); diags.HasErrors() {
		return nil, errors.Errorf("failed to decode %s: %s", filename, diags.Error())
	}

	dir := filepath.Dir(filename)
	cfg := &bench.Config{
		Design:         resolve(dir, fc.Design),
		Top:            fc.Top,
		Ports:          fc.Ports,
		Waveform:       resolve(dir, fc.Waveform),
		NativeWaveform: resolve(dir, fc.NativeVCD),
		Debug:          fc.Debug,
		WorkDir:        resolve(dir, fc.WorkDir),
		Template:       resolve(dir, fc.Template),
		Root:           fc.Root,
	}
	if p := fc.Precision; p != nil {
		u, err := yosim.ParseUnit(p.Unit)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: precision", filename)
		}
		if p.Value == 0 {
			return nil, errors.Errorf("%s: precision: zero value", filename)
		}
		cfg.Precision = yosim.Precision{Value: p.Value, Unit: u}
	}
	if t := fc.Toolchain; t != nil {
		cfg.Toolchain = toolchain.Options{
			Yosys:   t.Yosys,
			CXX:     t.CXX,
			Include: t.Include,
			LibDirs: t.LibDirs,
			Flags:   t.Flags,
		}
	}
	logger.Debug("configuration decoded", "path", filename, "design", cfg.Design, "ports", len(cfg.Ports))
	return cfg, nil
}

func evalContext(env map[string]string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
