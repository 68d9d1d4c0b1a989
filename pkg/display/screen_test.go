package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serialprint/pkg/protocol"
)

func fixedSize(cols, rows int) func() (int, int) {
	return func() (int, int) { return cols, rows }
}

func TestDrawFrame(t *testing.T) {
	var buf bytes.Buffer
	s := NewScreen(&buf, fixedSize(20, 10))

	s.Draw(Frame{
		Status: protocol.StatusPrinting,
		Telemetry: protocol.Telemetry{
			ExtruderTemp:   "200.0",
			ExtruderTarget: "210.0",
			BedTemp:        "60.0",
			BedTarget:      "60.0",
		},
		Elapsed:     61 * time.Second,
		Instruction: "G1 X10",
	})

	want := "\x1b[2J\x1b[H" +
		"===Serial Printer===\n" +
		"Status: Printing\n" +
		"Ext. Temp: 200.0/210.0°C\n" +
		"Bed Temp: 60.0/60.0°C\n" +
		"\n\n\n" +
		"Elapsed: 1 Minute, 1 Second\n" +
		"Inst: G1 X10\n" +
		"===================="
	assert.Equal(t, want, buf.String())
}

func TestDrawResizesPerFrame(t *testing.T) {
	var buf bytes.Buffer
	cols := 20
	s := NewScreen(&buf, func() (int, int) { return cols, 8 })

	s.Draw(Frame{Status: protocol.StatusDefault})
	first := buf.String()
	buf.Reset()

	cols = 30
	s.Draw(Frame{Status: protocol.StatusDefault})
	second := buf.String()

	assert.True(t, strings.HasSuffix(first, strings.Repeat("=", 20)))
	assert.True(t, strings.HasSuffix(second, strings.Repeat("=", 30)))
}

func TestDrawNonTerminalFallback(t *testing.T) {
	var buf bytes.Buffer
	s := NewScreen(&buf, nil)

	s.Draw(Frame{Status: protocol.StatusDefault})

	out := strings.TrimPrefix(buf.String(), "\x1b[2J\x1b[H")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 24)
	assert.Len(t, lines[0], 80)
	assert.Len(t, lines[23], 80)
}

func TestTitleBar(t *testing.T) {
	assert.Equal(t, "===Serial Printer===", titleBar(20))
	assert.Equal(t, "===Serial Printer====", titleBar(21))

	// Too narrow to pad: the bare title, no negative fills.
	assert.Equal(t, "Serial Printer", titleBar(10))

	for _, cols := range []int{14, 15, 20, 21, 79, 80} {
		assert.Len(t, titleBar(cols), cols, "cols %d", cols)
	}
}

func TestClear(t *testing.T) {
	var buf bytes.Buffer
	NewScreen(&buf, fixedSize(20, 10)).Clear()
	assert.Equal(t, "\x1b[2J\x1b[H", buf.String())
}
