package vcd_test

import (
	"bytes"
	"testing"

	"github.com/db47h/yosim/dut"
	"github.com/db47h/yosim/vcd"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sig struct {
	name  string
	width int
	v     uint64
}

type table []sig

func (t table) NumSignals() int          { return len(t) }
func (t table) SignalName(id int) string { return t[id].name }
func (t table) SignalWidth(id int) int   { return t[id].width }
func (t table) Get(id int) uint64        { return t[id].v }
func (t table) Set(id int, v uint64)     { t[id].v = v }

func TestWriter(t *testing.T) {
	tb := table{
		{"top.clk", 1, 0},
		{"top.sub.a", 8, 0},
		{"top.sub.deep.x", 1, 0},
		{"top.b", 4, 0},
	}
	sigs := make([]*dut.Signal, len(tb))
	for i := range tb {
		sigs[i] = dut.NewSignal(tb, i)
	}

	var (
		buf bytes.Buffer
		now uint64
	)
	w := vcd.NewWriter(&buf, func() uint64 { return now }, "1ps")
	sample, err := w.Callback(sigs)
	require.NoError(t, err)
	want := `$timescale 1ps $end
$scope module top $end
$var wire 1 ! clk $end
$scope module sub $end
$var wire 8 " a $end
$scope module deep $end
$var wire 1 # x $end
$upscope $end
$upscope $end
$var wire 4 $ b $end
$upscope $end
$enddefinitions $end
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	sample()
	now = 10
	tb.Set(0, 1)
	tb.Set(1, 5)
	sample()
	now = 20
	sample()
	tb.Set(2, 1)
	sample()
	tb.Set(3, 9)
	sample()
	require.NoError(t, w.Flush())
	want = `#0
$dumpvars
0!
b0 "
0#
b0 $
$end
#10
1!
b101 "
#20
1#
b1001 $
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("dump mismatch (-want +got):\n%s", diff)
	}

	_, err = w.Callback(sigs)
	assert.Error(t, err, "header written twice")
	assert.NoError(t, w.Err())
}

func TestWriter_empty(t *testing.T) {
	var buf bytes.Buffer
	w := vcd.NewWriter(&buf, func() uint64 { return 0 }, "1ps")
	_, err := w.Callback(nil)
	assert.Error(t, err)
}
