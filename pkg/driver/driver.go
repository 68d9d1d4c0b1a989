// Package driver runs a print job over a line-oriented printer
// connection: wait for a device, load the instruction sequence,
// handshake, then stream each instruction and wait for its
// acknowledgment while polling temperatures and redrawing the status
// display on their own clocks.
package driver

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"serialprint/pkg/display"
	"serialprint/pkg/log"
	"serialprint/pkg/protocol"
)

// State identifies a phase of the print session.
type State string

const (
	StateAwaitingConnection State = "awaiting-connection"
	StateAwaitingInput      State = "awaiting-input"
	StateHandshaking        State = "handshaking"
	StateDispatching        State = "dispatching"
	StateAwaitingAck        State = "awaiting-ack"
	StateFinished           State = "finished"
)

// ackPollDelay caps busy-spin between acknowledgment reads.
const ackPollDelay = time.Millisecond

// Conn is a line-oriented connection to the printer. *serial.Port
// implements it.
type Conn interface {
	WriteLine(line string) error
	ReadLine() (string, error)
}

// Renderer draws the status display. *display.Screen implements it.
type Renderer interface {
	Draw(f display.Frame)
	Clear()
}

// Config wires a Session to its collaborators.
type Config struct {
	// Probe reports a candidate device path, or false while no device
	// is present.
	Probe func() (string, bool)

	// Connect opens the line channel to the probed device.
	Connect func(device string) (Conn, error)

	// Source produces the instruction sequence to print. It is retried
	// until it succeeds; an error wrapping io.EOF aborts the session
	// instead.
	Source func() ([]string, error)

	Renderer Renderer
	Clock    Clock

	// Console receives the interactive status messages. Defaults to
	// io.Discard.
	Console io.Writer

	Logger *log.Logger

	// PollInterval is the minimum spacing between temperature polls
	// (default 1s).
	PollInterval time.Duration

	// RefreshInterval is the minimum spacing between display redraws
	// while waiting for an acknowledgment (default 1s).
	RefreshInterval time.Duration

	// ProbeInterval is the delay between device probes while no device
	// is present (default 1s).
	ProbeInterval time.Duration
}

func (c *Config) validate() error {
	if c.Probe == nil {
		return errors.New("driver: Probe is required")
	}
	if c.Connect == nil {
		return errors.New("driver: Connect is required")
	}
	if c.Source == nil {
		return errors.New("driver: Source is required")
	}
	if c.Renderer == nil {
		return errors.New("driver: Renderer is required")
	}
	return nil
}

// Session drives one print job from device discovery to completion.
// All state lives here; a Session is single-threaded and not reusable
// after Run returns.
type Session struct {
	cfg    Config
	conn   Conn
	interp *protocol.Interpreter

	state State

	start       time.Time
	lastPoll    time.Time
	lastRefresh time.Time

	current string
	sent    int
	polls   int
	busy    int
	ignored int
}

// New prepares a Session. Zero-value intervals and a nil Clock,
// Console or Logger take their defaults.
func New(cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = WallClock{}
	}
	if cfg.Console == nil {
		cfg.Console = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger("driver")
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = time.Second
	}
	if cfg.ProbeInterval == 0 {
		cfg.ProbeInterval = time.Second
	}
	return &Session{
		cfg:    cfg,
		interp: protocol.NewInterpreter(),
		state:  StateAwaitingConnection,
	}
}

// State returns the session's current phase.
func (s *Session) State() State {
	return s.state
}

func (s *Session) setState(next State) {
	s.cfg.Logger.WithFields(log.Fields{"from": s.state, "to": next}).Debug("session state change")
	s.state = next
}

// Run executes the whole job and blocks until the print finishes or a
// connection-level error occurs.
func (s *Session) Run() error {
	if err := s.cfg.validate(); err != nil {
		return err
	}

	device := s.awaitConnection()

	conn, err := s.cfg.Connect(device)
	if err != nil {
		return fmt.Errorf("driver: connect %s: %w", device, err)
	}
	s.conn = conn

	instructions, err := s.awaitInput()
	if err != nil {
		return err
	}

	if err := s.handshake(); err != nil {
		return err
	}

	if err := s.stream(instructions); err != nil {
		return err
	}

	s.finish()
	return nil
}

// awaitConnection probes until a device shows up. Absence is expected
// rather than an error, so there is no timeout.
func (s *Session) awaitConnection() string {
	s.setState(StateAwaitingConnection)

	device, ok := s.cfg.Probe()
	if !ok {
		fmt.Fprintln(s.cfg.Console, "Printer port not found, is your printer connected?\nWaiting for printer...")
		for {
			if device, ok = s.cfg.Probe(); ok {
				break
			}
			s.cfg.Clock.Sleep(s.cfg.ProbeInterval)
		}
	}

	fmt.Fprintf(s.cfg.Console, "Found printer at port %s\n", device)
	return device
}

// awaitInput asks the source for instructions until it delivers.
// Invalid input is reported and retried; a closed input stream is
// fatal.
func (s *Session) awaitInput() ([]string, error) {
	s.setState(StateAwaitingInput)
	for {
		instructions, err := s.cfg.Source()
		if err == nil {
			s.cfg.Logger.WithField("instructions", len(instructions)).Info("instruction source loaded")
			return instructions, nil
		}
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("driver: instruction source closed: %w", err)
		}
		fmt.Fprintln(s.cfg.Console, "File not found")
	}
}

// handshake sends the identification command and echoes whatever the
// printer answers. One blocking read, no validation of the content.
func (s *Session) handshake() error {
	s.setState(StateHandshaking)
	fmt.Fprintln(s.cfg.Console, "Connected, sending test message")

	if err := s.conn.WriteLine(protocol.CmdFirmwareInfo); err != nil {
		return fmt.Errorf("driver: handshake write: %w", err)
	}
	resp, err := s.conn.ReadLine()
	if err != nil {
		return fmt.Errorf("driver: handshake read: %w", err)
	}
	fmt.Fprintf(s.cfg.Console, "Printer responds: %s\n", resp)
	s.cfg.Logger.WithField("firmware", resp).Info("printer identified")
	return nil
}

// stream sends every instruction in order. All three clocks start
// together when streaming begins.
func (s *Session) stream(instructions []string) error {
	now := s.cfg.Clock.Now()
	s.start = now
	s.lastPoll = now
	s.lastRefresh = now

	for _, instruction := range instructions {
		if err := s.dispatch(instruction); err != nil {
			return err
		}
		if err := s.awaitAck(); err != nil {
			return err
		}
	}
	return nil
}

// dispatch sends one instruction, preceded by a temperature poll when
// the poll interval has elapsed. At most one poll per instruction,
// always before the instruction itself, never mid-wait.
func (s *Session) dispatch(instruction string) error {
	s.setState(StateDispatching)

	now := s.cfg.Clock.Now()
	if now.Sub(s.lastPoll) > s.cfg.PollInterval {
		s.lastPoll = now
		if err := s.conn.WriteLine(protocol.CmdGetTemperature); err != nil {
			return fmt.Errorf("driver: poll write: %w", err)
		}
		s.polls++
		s.cfg.Logger.Debug("poll: %s", protocol.CmdGetTemperature)
	}

	s.current = instruction
	if err := s.conn.WriteLine(instruction); err != nil {
		return fmt.Errorf("driver: send %q: %w", instruction, err)
	}
	s.sent++
	s.cfg.Logger.Debug("send: %s", instruction)

	// The dispatch redraw does not touch the refresh clock.
	s.redraw()
	return nil
}

// awaitAck reads responses until the interpreter reports the printer
// ready for the next instruction. There is no timeout; an unresponsive
// printer stalls the session here.
func (s *Session) awaitAck() error {
	s.setState(StateAwaitingAck)
	for {
		now := s.cfg.Clock.Now()
		if now.Sub(s.lastRefresh) >= s.cfg.RefreshInterval {
			s.lastRefresh = now
			s.redraw()
		}

		line, err := s.conn.ReadLine()
		if err != nil {
			return fmt.Errorf("driver: read response: %w", err)
		}
		s.cfg.Logger.Debug("recv: %s", line)
		if s.interp.Interpret(line) {
			return nil
		}
		s.classify(line)
		s.cfg.Clock.Sleep(ackPollDelay)
	}
}

// classify tallies the not-ready lines for the session summary.
// Temperature reports count as neither busy nor ignored.
func (s *Session) classify(line string) {
	line = strings.TrimSpace(line)
	switch {
	case line == protocol.RespBusyHeating:
		s.busy++
	case strings.HasPrefix(line, protocol.RespTempPrefix),
		strings.HasPrefix(line, protocol.RespAckTempPrefix):
	default:
		s.ignored++
	}
}

func (s *Session) redraw() {
	s.cfg.Renderer.Draw(display.Frame{
		Status:      s.interp.Status,
		Telemetry:   s.interp.Telemetry,
		Elapsed:     s.cfg.Clock.Now().Sub(s.start),
		Instruction: s.current,
	})
}

// finish clears the display and reports the total print time.
func (s *Session) finish() {
	s.setState(StateFinished)
	s.cfg.Renderer.Clear()

	elapsed := s.cfg.Clock.Now().Sub(s.start)
	fmt.Fprintf(s.cfg.Console, "Print finished in %s\n", display.FormatDuration(elapsed))
	s.cfg.Logger.WithFields(log.Fields{
		"instructions": s.sent,
		"polls":        s.polls,
		"busy":         s.busy,
		"ignored":      s.ignored,
		"elapsed":      elapsed.String(),
	}).Info("print finished")
}
