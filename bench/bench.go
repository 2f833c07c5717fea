// Package bench assembles a simulator from a design file: it validates the
// configuration, runs the synthesis tool, appends the generated glue to its
// output, compiles the result and loads it.
//
package bench

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"text/template"

	"github.com/db47h/yosim"
	"github.com/db47h/yosim/gen"
	"github.com/db47h/yosim/internal/ctxlog"
	"github.com/db47h/yosim/native"
	"github.com/db47h/yosim/toolchain"
	"github.com/pkg/errors"
)

// DefaultTop is the name of the top module in the design file.
//
const DefaultTop = "top"

// Config is the configuration of a test bench.
//
type Config struct {
	// Design is the path of the RTLIL file of the design.
	Design string
	// Top is the name of the top module, default DefaultTop.
	Top string
	// Ports are the names of ports that must exist in the top module.
	Ports []string
	// Waveform is the path of a VCD file to write, if any.
	Waveform string
	// NativeWaveform is the path of a VCD file written by the compiled
	// library itself, sampled on every delta cycle. Setting it compiles
	// waveform support in.
	NativeWaveform string
	// Precision of timers, default yosim.DefaultPrecision.
	Precision yosim.Precision
	// Debug enables trigger logging and compiles the glue's tracing in.
	Debug bool
	// WorkDir holds the generated files. If empty, a temporary directory is
	// created and removed by Close.
	WorkDir string
	// Template is the path of a glue template, default gen.DefaultTemplate.
	Template string
	// Root is the type name of the root module in the C++ source, default
	// gen.DefaultRoot.
	Root string
	// Toolchain configures the external tools.
	Toolchain toolchain.Options
}

func (c *Config) top() string {
	if c.Top == "" {
		return DefaultTop
	}
	return c.Top
}

func (c *Config) precision() yosim.Precision {
	if c.Precision == (yosim.Precision{}) {
		return yosim.DefaultPrecision
	}
	return c.Precision
}

// Validate checks the configuration. It reads the design file but does not
// run any external tool.
//
func (c *Config) Validate() error {
	if c.Design == "" {
		return errors.New("no design file")
	}
	if _, err := c.precision().Scale(); err != nil {
		return errors.Wrap(err, "precision")
	}
	f, err := os.Open(c.Design)
	if err != nil {
		return errors.Wrap(err, "design")
	}
	defer f.Close()
	if err = toolchain.CheckPorts(f, c.top(), c.Ports); err != nil {
		return errors.Wrap(err, c.Design)
	}
	if c.Template != "" {
		if _, err = c.template(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) template() (*template.Template, error) {
	if c.Template == "" {
		return gen.DefaultTemplate, nil
	}
	b, err := os.ReadFile(c.Template)
	if err != nil {
		return nil, errors.Wrap(err, "template")
	}
	return gen.ParseTemplate(filepath.Base(c.Template), string(b))
}

// Build validates cfg and builds the simulation library in dir. It returns
// the path of the library.
//
func Build(ctx context.Context, cfg *Config, dir string) (string, error) {
	log := ctxlog.FromContext(ctx)
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	tmpl, err := cfg.template()
	if err != nil {
		return "", err
	}
	var (
		src = filepath.Join(dir, cfg.top()+".cc")
		so  = filepath.Join(dir, "simulation.so")
	)

	log.Info("synthesizing", "design", cfg.Design, "output", src)
	if err = toolchain.Synth(ctx, cfg.Design, src, cfg.Toolchain); err != nil {
		return "", err
	}
	b, err := os.ReadFile(src)
	if err != nil {
		return "", errors.WithStack(err)
	}
	glue, err := gen.Generate(bytes.NewReader(b), tmpl, cfg.Root)
	if err != nil {
		return "", errors.Wrap(err, "generate glue")
	}
	if err = appendFile(src, glue); err != nil {
		return "", err
	}

	opts := cfg.Toolchain
	opts.Debug = opts.Debug || cfg.Debug
	opts.Waveform = opts.Waveform || cfg.NativeWaveform != ""
	log.Info("compiling", "source", src, "output", so)
	if err = toolchain.Compile(ctx, src, so, opts); err != nil {
		return "", err
	}
	return so, nil
}

func appendFile(name string, b []byte) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err = f.Write(b); err != nil {
		f.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(f.Close())
}

// Bench is a simulator running a compiled design.
//
type Bench struct {
	*yosim.Simulator
	lib *native.Library
	tmp string // temporary work directory
}

// Open builds the design described by cfg, loads it and returns a simulator
// for it.
//
func Open(ctx context.Context, cfg *Config) (*Bench, error) {
	b := new(Bench)
	dir := cfg.WorkDir
	if dir == "" {
		var err error
		if dir, err = os.MkdirTemp("", "yosim-"); err != nil {
			return nil, errors.WithStack(err)
		}
		b.tmp = dir
	}
	if err := b.open(ctx, cfg, dir); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bench) open(ctx context.Context, cfg *Config, dir string) error {
	so, err := Build(ctx, cfg, dir)
	if err != nil {
		return err
	}
	if b.lib, err = native.Open(so); err != nil {
		return err
	}
	if cfg.NativeWaveform != "" {
		if err = b.lib.DumpVCD(cfg.NativeWaveform); err != nil {
			return errors.Wrap(err, "native waveform")
		}
	}
	b.Simulator, err = yosim.New(b.lib, yosim.Config{
		Ports:     cfg.Ports,
		Waveform:  cfg.Waveform,
		Precision: cfg.precision(),
		Debug:     cfg.Debug,
	})
	return err
}

// Close closes the waveform file, unloads the library and removes the
// temporary work directory.
//
func (b *Bench) Close() error {
	var err error
	if b.Simulator != nil {
		err = b.Simulator.Close()
		b.Simulator = nil
	}
	if b.lib != nil {
		if cerr := b.lib.Close(); err == nil {
			err = cerr
		}
		b.lib = nil
	}
	if b.tmp != "" {
		if rerr := os.RemoveAll(b.tmp); err == nil {
			err = errors.WithStack(rerr)
		}
		b.tmp = ""
	}
	return err
}
