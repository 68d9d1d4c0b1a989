package driver

import (
	"bufio"
	"bytes"
	"fmt"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serialprint/pkg/protocol"
	"serialprint/pkg/serial"
)

// TestRunOverPTY streams a whole job through a real serial port on a
// pseudo-terminal pair, with a minimal firmware answering from the
// master side. Timing assertions stay loose: the session runs on the
// wall clock here.
func TestRunOverPTY(t *testing.T) {
	master, tty, err := pty.Open()
	require.NoError(t, err)
	defer master.Close()
	defer tty.Close()

	go func() {
		sc := bufio.NewScanner(master)
		for sc.Scan() {
			switch sc.Text() {
			case protocol.CmdFirmwareInfo:
				fmt.Fprintf(master, "FIRMWARE_NAME:PTYMarlin 1.0\n")
			case protocol.CmdGetTemperature:
				fmt.Fprintf(master, "ok T:25.0 /0.0 B:25.0 /0.0\n")
			default:
				fmt.Fprintf(master, "ok\n")
			}
		}
	}()

	var port *serial.Port
	rec := &frameRecorder{}
	var console bytes.Buffer

	s := New(Config{
		Probe: func() (string, bool) { return tty.Name(), true },
		Connect: func(device string) (Conn, error) {
			cfg := serial.DefaultConfig()
			cfg.Device = device
			p, err := serial.Open(cfg)
			if err != nil {
				return nil, err
			}
			port = p
			return p, nil
		},
		Source:   func() ([]string, error) { return []string{"G28", "G1 X10", "M84"}, nil },
		Renderer: rec,
		Console:  &console,
		Logger:   quietLogger(),
	})

	require.NoError(t, s.Run())
	require.NotNil(t, port)
	defer port.Close()

	assert.Equal(t, StateFinished, s.State())
	assert.Equal(t, 3, s.sent)
	assert.GreaterOrEqual(t, len(rec.frames), 3)
	assert.Equal(t, 1, rec.clears)
	assert.Contains(t, console.String(), "Printer responds: FIRMWARE_NAME:PTYMarlin 1.0")
	assert.Contains(t, console.String(), "Print finished in")
}
