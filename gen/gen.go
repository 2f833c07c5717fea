// Package gen generates the C++ glue that turns the output of the synthesis
// tool into a loadable simulation library.
//
// The synthesis tool emits one C++ struct per module type. Parse extracts the
// wires and cells of each type, Flatten expands the instance hierarchy from
// the root type, and the glue template renders one signal table entry per
// wire. The ids of the signal table are the indices returned by Flatten.
//
package gen

import (
	"bytes"
	_ "embed"
	"io"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

// DefaultRoot is the type name of the root module.
//
const DefaultRoot = "p_top"

//go:embed wrapper.cc.tmpl
var wrapperText string

// DefaultTemplate exposes the signal table through the C ABI loaded by package
// native.
//
var DefaultTemplate = template.Must(ParseTemplate("wrapper.cc", wrapperText))

// ParseTemplate parses a glue template. Templates are executed with a *Data.
//
func ParseTemplate(name, text string) (*template.Template, error) {
	t, err := template.New(name).Funcs(template.FuncMap{
		"cstring": cstring,
	}).Parse(text)
	return t, errors.Wrapf(err, "template %s", name)
}

// Signal is a signal table entry.
//
type Signal struct {
	ID     int
	Name   string // host path
	CPath  string // native path
	Width  int
	Chunks int // number of 32 bits chunks of the value
}

// Data is the data a glue template is executed with.
//
type Data struct {
	Root     string // root type name
	Instance string // name of the root instance
	Signals  []Signal
}

// NewData flattens mods from root and returns the template data.
//
func NewData(mods map[string]*ModuleDesc, root string) (*Data, error) {
	wires, err := Flatten(mods, root)
	if err != nil {
		return nil, err
	}
	d := &Data{
		Root:     root,
		Instance: strings.TrimPrefix(root, Prefix),
		Signals:  make([]Signal, len(wires)),
	}
	for i := range wires {
		w := &wires[i]
		d.Signals[i] = Signal{
			ID:     i,
			Name:   w.HostPath(),
			CPath:  w.NativePath(),
			Width:  w.Width,
			Chunks: (w.Width + 31) / 32,
		}
	}
	return d, nil
}

// Generate parses src and renders the glue for the hierarchy rooted at the
// module type root. A nil tmpl selects DefaultTemplate and an empty root
// selects DefaultRoot.
//
func Generate(src io.Reader, tmpl *template.Template, root string) ([]byte, error) {
	if tmpl == nil {
		tmpl = DefaultTemplate
	}
	if root == "" {
		root = DefaultRoot
	}
	mods, err := Parse(src)
	if err != nil {
		return nil, err
	}
	d, err := NewData(mods, root)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, d); err != nil {
		return nil, errors.Wrap(err, "render glue")
	}
	return buf.Bytes(), nil
}

// GenerateTo is like Generate but writes the glue to w. Nothing is written if
// generation fails.
//
func GenerateTo(w io.Writer, src io.Reader, tmpl *template.Template, root string) error {
	b, err := Generate(src, tmpl, root)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// cstring quotes s as a C string literal.
func cstring(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c >= 0x7f:
			b.WriteString(`\x`)
			b.WriteByte("0123456789abcdef"[c>>4])
			b.WriteByte("0123456789abcdef"[c&0xf])
			// a hex escape swallows following hex digits.
			if i+1 < len(s) && isHex(s[i+1]) {
				b.WriteString(`""`)
			}
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
