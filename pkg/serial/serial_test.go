package serial

import (
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// openTestPort opens a Port on the slave side of a pseudo-terminal and
// returns it with the master side, which stands in for the printer.
func openTestPort(t *testing.T, cfg Config) (*Port, *os.File) {
	t.Helper()

	master, tty, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close() })

	cfg.Device = tty.Name()
	port, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	// The port holds its own descriptor; the fd from pty.Open is
	// no longer needed.
	tty.Close()

	return port, master
}

func TestPortLineRoundTrip(t *testing.T) {
	port, master := openTestPort(t, DefaultConfig())

	_, err := master.WriteString("ok\n")
	require.NoError(t, err)

	line, err := port.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "ok", line)

	require.NoError(t, port.WriteLine("M105"))

	buf := make([]byte, 16)
	n, err := master.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "M105\n", string(buf[:n]))
}

func TestReadLineKeepsRemainder(t *testing.T) {
	port, master := openTestPort(t, DefaultConfig())

	// Two lines and a fragment arriving in one burst must come back as
	// two complete lines, with the fragment held for the next read.
	_, err := master.WriteString("ok\nT:1.0 /2.0 B:3.0 /4.0\nech")
	require.NoError(t, err)

	line, err := port.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "ok", line)

	line, err = port.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "T:1.0 /2.0 B:3.0 /4.0", line)

	_, err = master.WriteString("o:done\n")
	require.NoError(t, err)

	line, err = port.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "echo:done", line)
}

func TestReadLineCRLF(t *testing.T) {
	port, master := openTestPort(t, DefaultConfig())

	_, err := master.WriteString("ok\r\n")
	require.NoError(t, err)

	line, err := port.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "ok", line)
}

func TestReadTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReadTimeout = 50 * time.Millisecond
	port, _ := openTestPort(t, cfg)

	start := time.Now()
	_, err := port.ReadLine()
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFlushDiscardsPending(t *testing.T) {
	port, master := openTestPort(t, DefaultConfig())

	_, err := master.WriteString("boot noise")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond) // let the bytes reach the slave side

	require.NoError(t, port.Flush())

	_, err = master.WriteString("ok\n")
	require.NoError(t, err)

	line, err := port.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "ok", line)
}

func TestClosedPort(t *testing.T) {
	port, _ := openTestPort(t, DefaultConfig())
	require.NoError(t, port.Close())

	_, err := port.ReadLine()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, port.WriteLine("M105"), ErrClosed)

	// Double close is fine
	assert.NoError(t, port.Close())
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)

	_, err = Open(Config{Device: "/dev/does-not-exist"})
	require.Error(t, err)
}

func TestBaudRateToSpeed(t *testing.T) {
	speed, custom, err := baudRateToSpeed(115200)
	require.NoError(t, err)
	assert.Equal(t, uint32(unix.B115200), speed)
	assert.Zero(t, custom)

	if runtime.GOOS == "linux" {
		speed, custom, err = baudRateToSpeed(250000)
		require.NoError(t, err)
		assert.Equal(t, uint32(0x1003), speed)
		assert.Zero(t, custom)

		_, _, err = baudRateToSpeed(123456)
		require.Error(t, err)
	}
}
