// Package display renders the live print status view.
//
// Every frame is a complete fixed-layout redraw sized to the viewport's
// current dimensions: a centered title bar, status and temperature
// lines, vertical padding, then elapsed time, the in-flight instruction
// and a closing bar pinned to the bottom row. The previous frame is
// erased first so nothing accumulates in scrollback.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"serialprint/pkg/protocol"
)

const (
	title = "Serial Printer"
	fill  = "="

	// clearHome erases the viewport and homes the cursor.
	clearHome = "\x1b[2J\x1b[H"

	fallbackCols = 80
	fallbackRows = 24
)

// Frame is the data one status frame is drawn from.
type Frame struct {
	Status      protocol.PrinterStatus
	Telemetry   protocol.Telemetry
	Elapsed     time.Duration
	Instruction string
}

// Screen draws status frames to a terminal-like writer.
type Screen struct {
	w    io.Writer
	size func() (cols, rows int)
}

// NewScreen returns a Screen drawing to w. The size callback supplies
// the viewport dimensions per frame; pass nil to query w's terminal,
// falling back to 80x24 when w is not one.
func NewScreen(w io.Writer, size func() (cols, rows int)) *Screen {
	if size == nil {
		size = func() (int, int) { return viewportSize(w) }
	}
	return &Screen{w: w, size: size}
}

// Clear erases the viewport and homes the cursor.
func (s *Screen) Clear() {
	io.WriteString(s.w, clearHome)
}

// Draw renders one complete status frame. The viewport is measured on
// every call, so a resize between frames takes effect on the next draw.
// The frame is assembled off-screen and written in one call to keep
// flicker down.
func (s *Screen) Draw(f Frame) {
	cols, rows := s.size()

	var b strings.Builder
	b.WriteString(clearHome)

	b.WriteString(titleBar(cols))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Status: %s\n", f.Status)
	fmt.Fprintf(&b, "Ext. Temp: %s/%s°C\n", f.Telemetry.ExtruderTemp, f.Telemetry.ExtruderTarget)
	fmt.Fprintf(&b, "Bed Temp: %s/%s°C\n", f.Telemetry.BedTemp, f.Telemetry.BedTarget)
	for i := 0; i < rows-7; i++ {
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Elapsed: %s\n", FormatDuration(f.Elapsed))
	fmt.Fprintf(&b, "Inst: %s\n", f.Instruction)
	b.WriteString(strings.Repeat(fill, cols))

	io.WriteString(s.w, b.String())
}

// titleBar centers the title in a full-width bar of fill characters. On
// odd leftovers the extra fill lands on the right.
func titleBar(cols int) string {
	left := (cols - len(title)) / 2
	if left < 0 {
		left = 0
	}
	right := cols - left - len(title)
	if right < 0 {
		right = 0
	}
	return strings.Repeat(fill, left) + title + strings.Repeat(fill, right)
}

// viewportSize reports w's terminal dimensions. Non-terminal writers get
// the 80x24 fallback so frames stay well-formed when output is
// redirected.
func viewportSize(w io.Writer) (cols, rows int) {
	f, ok := w.(*os.File)
	if !ok {
		return fallbackCols, fallbackRows
	}
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 {
		return fallbackCols, fallbackRows
	}
	return int(ws.Col), int(ws.Row)
}
