// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package dut

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

var signalType = reflect.TypeOf((*Signal)(nil))

// Bind fills the fields of the struct pointed to by v with signals and
// sub-modules of m. Fields are identified by field tags.
//
// A field of type *Signal tagged `dut:""` or `dut:"name"` receives the signal
// with that name (by default the field name in lowercase). A struct field
// with the same tag is bound recursively to the sub-module of that name. A
// field of type *Module receives the sub-module itself.
//
//	var top struct {
//		Clk   *dut.Signal `dut:"clk"`
//		Adder struct {
//			A *dut.Signal `dut:"a"`
//		} `dut:"adder"`
//	}
//	err := dut.Bind(root, &top)
//
func Bind(m *Module, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errors.Errorf("unsupported type %T, need a pointer to a struct", v)
	}
	return bind(m, rv.Elem())
}

func bind(m *Module, v reflect.Value) error {
	typ := v.Type()
	n := typ.NumField()
	for i := 0; i < n; i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("dut")
		if !ok {
			continue
		}
		name := strings.ToLower(f.Name)
		if tag != "" {
			name = tag
		}
		fv := v.Field(i)
		if !fv.CanSet() {
			return errors.Errorf("field %q in %q is not exported", f.Name, typ.Name())
		}
		switch {
		case f.Type == signalType:
			s := m.Signal(name)
			if s == nil {
				return errors.Errorf("no signal %s%s%s for field %q", m.path, Separator, name, f.Name)
			}
			fv.Set(reflect.ValueOf(s))
		case f.Type == reflect.TypeOf(m):
			sub := m.Module(name)
			if sub == nil {
				return errors.Errorf("no module %s%s%s for field %q", m.path, Separator, name, f.Name)
			}
			fv.Set(reflect.ValueOf(sub))
		case f.Type.Kind() == reflect.Struct:
			sub := m.Module(name)
			if sub == nil {
				return errors.Errorf("no module %s%s%s for field %q", m.path, Separator, name, f.Name)
			}
			if err := bind(sub, fv); err != nil {
				return err
			}
		default:
			return errors.Errorf("unsupported type %q for field %q in %q", f.Type, f.Name, typ.Name())
		}
	}
	return nil
}
