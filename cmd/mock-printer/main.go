// mock-printer simulates a Marlin-style 3D printer on a pseudo
// terminal so serialprint can be exercised without hardware. It
// acknowledges every instruction with "ok", answers M105 with a
// temperature report, M115 with a firmware banner, and blocks on
// M109/M190 emitting the busy echo while heaters move toward their
// targets.
//
// Usage:
//
//	mock-printer [-ack-delay 50ms] [-heat-rate 20] [-verbose]
//
// The device path to connect to is printed on startup:
//
//	Mock printer listening on /dev/pts/3
//	Connect with: serialprint -device /dev/pts/3
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

const ambientTemp = 22.0

type printerState struct {
	mu sync.Mutex

	extruder       float64
	extruderTarget float64
	bed            float64
	bedTarget      float64
}

func newPrinterState() *printerState {
	return &printerState{extruder: ambientTemp, bed: ambientTemp}
}

// regulate walks the temperatures toward their targets, or back to
// ambient when a target is cleared.
func (p *printerState) regulate(rate float64) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	step := rate / 10
	for range ticker.C {
		p.mu.Lock()
		p.extruder = approach(p.extruder, heatGoal(p.extruderTarget), step)
		p.bed = approach(p.bed, heatGoal(p.bedTarget), step)
		p.mu.Unlock()
	}
}

func (p *printerState) report() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("T:%.1f /%.1f B:%.1f /%.1f", p.extruder, p.extruderTarget, p.bed, p.bedTarget)
}

func (p *printerState) setExtruderTarget(target float64) {
	p.mu.Lock()
	p.extruderTarget = target
	p.mu.Unlock()
}

func (p *printerState) setBedTarget(target float64) {
	p.mu.Lock()
	p.bedTarget = target
	p.mu.Unlock()
}

func (p *printerState) extruderAtTemp() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return math.Abs(p.extruder-heatGoal(p.extruderTarget)) < 1
}

func (p *printerState) bedAtTemp() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return math.Abs(p.bed-heatGoal(p.bedTarget)) < 1
}

func heatGoal(target float64) float64 {
	if target > 0 {
		return target
	}
	return ambientTemp
}

func approach(cur, goal, step float64) float64 {
	diff := goal - cur
	if math.Abs(diff) <= step {
		return goal
	}
	if diff > 0 {
		return cur + step
	}
	return cur - step
}

// word returns the leading command token of a line.
func word(line string) string {
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i]
	}
	return line
}

// floatArg extracts a "S123.4"-style argument value, 0 when absent.
func floatArg(line string, key byte) float64 {
	fields := strings.Fields(line)
	for _, field := range fields[1:] {
		if field[0] == key {
			if v, err := strconv.ParseFloat(field[1:], 64); err == nil {
				return v
			}
		}
	}
	return 0
}

// dwell maps G4's P (milliseconds) or S (seconds) argument onto a
// sleep duration.
func dwell(line string) time.Duration {
	if p := floatArg(line, 'P'); p > 0 {
		return time.Duration(p * float64(time.Millisecond))
	}
	if s := floatArg(line, 'S'); s > 0 {
		return time.Duration(s * float64(time.Second))
	}
	return 0
}

// waitForTemp blocks the command stream the way Marlin does, emitting
// the busy echo once a second until the heater reaches its target.
func waitForTemp(send func(string), atTemp func() bool) {
	for !atTemp() {
		send("echo:busy: processing")
		time.Sleep(time.Second)
	}
}

func serve(master *os.File, state *printerState, ackDelay time.Duration, verbose bool) {
	trace := func(dir, line string) {
		if verbose {
			fmt.Fprintf(os.Stderr, "%s %s\n", dir, line)
		}
	}
	send := func(line string) {
		trace("->", line)
		fmt.Fprintf(master, "%s\n", line)
	}

	sc := bufio.NewScanner(master)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		trace("<-", line)

		switch word(line) {
		case "M115":
			send("FIRMWARE_NAME:mock-printer 1.0 PROTOCOL_VERSION:1.0 MACHINE_TYPE:Mock EXTRUDER_COUNT:1")
			send("ok")
		case "M105":
			send("ok " + state.report())
		case "M104":
			state.setExtruderTarget(floatArg(line, 'S'))
			send("ok")
		case "M140":
			state.setBedTarget(floatArg(line, 'S'))
			send("ok")
		case "M109":
			state.setExtruderTarget(floatArg(line, 'S'))
			waitForTemp(send, state.extruderAtTemp)
			send("ok")
		case "M190":
			state.setBedTarget(floatArg(line, 'S'))
			waitForTemp(send, state.bedAtTemp)
			send("ok")
		case "G4":
			time.Sleep(dwell(line))
			send("ok")
		default:
			time.Sleep(ackDelay)
			send("ok")
		}
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Host disconnected: %v\n", err)
	}
}

func main() {
	ackDelay := flag.Duration("ack-delay", 50*time.Millisecond, "Delay before acknowledging an instruction")
	heatRate := flag.Float64("heat-rate", 20, "Heating rate in degrees per second")
	verbose := flag.Bool("verbose", false, "Trace every protocol line on stderr")
	flag.Parse()

	master, tty, err := pty.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening pty: %v\n", err)
		os.Exit(1)
	}
	defer master.Close()
	defer tty.Close()

	fmt.Printf("Mock printer listening on %s\n", tty.Name())
	fmt.Printf("Connect with: serialprint -device %s\n", tty.Name())
	fmt.Println("Press Ctrl+C to stop")

	state := newPrinterState()
	go state.regulate(*heatRate)
	go serve(master, state, *ackDelay, *verbose)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nShutting down...")
}
