//go:build darwin || freebsd || linux

package native

import (
	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

// Open loads the simulation library at path and binds its C ABI.
//
func Open(path string) (l *Library, err error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	defer func() {
		if err != nil {
			purego.Dlclose(h)
		}
	}()
	l = &Library{path: path, handle: h}
	syms := []struct {
		fptr interface{}
		name string
	}{
		{&l.numSignals, "yosim_num_signals"},
		{&l.signalName, "yosim_signal_name"},
		{&l.signalWidth, "yosim_signal_width"},
		{&l.get, "yosim_get"},
		{&l.set, "yosim_set"},
		{&l.time, "yosim_time"},
		{&l.setPrecision, "yosim_set_precision"},
		{&l.addTask, "yosim_add_task"},
		{&l.commit, "yosim_commit"},
		{&l.fired, "yosim_fired"},
		{&l.advance, "yosim_advance"},
		{&l.clearTasks, "yosim_clear_tasks"},
	}
	for _, s := range syms {
		if err = register(s.fptr, h, s.name); err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
	}
	// optional
	if _, err := purego.Dlsym(h, "yosim_vcd_open"); err == nil {
		purego.RegisterLibFunc(&l.vcdOpen, h, "yosim_vcd_open")
	}
	return l, nil
}

// register binds symbol name. purego panics on missing symbols.
func register(fptr interface{}, h uintptr, name string) (err error) {
	if _, err = purego.Dlsym(h, name); err != nil {
		return errors.Wrapf(err, "symbol %s", name)
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("symbol %s: %v", name, r)
		}
	}()
	purego.RegisterLibFunc(fptr, h, name)
	return nil
}

// Close unloads the library. The library must not be used afterwards.
//
func (l *Library) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	return errors.Wrapf(err, "unload %s", l.path)
}
