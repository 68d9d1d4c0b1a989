package serial

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoosePortNone(t *testing.T) {
	_, err := ChoosePort(strings.NewReader(""), &bytes.Buffer{}, nil)
	require.ErrorIs(t, err, ErrNoPorts)
}

func TestChoosePortSingle(t *testing.T) {
	var out bytes.Buffer

	dev, err := ChoosePort(strings.NewReader(""), &out, []string{"/dev/ttyUSB0"})
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", dev)
	assert.Empty(t, out.String(), "a single device should be picked without prompting")
}

func TestChoosePortMenu(t *testing.T) {
	ports := []string{"/dev/ttyACM0", "/dev/ttyUSB0"}
	var out bytes.Buffer

	dev, err := ChoosePort(strings.NewReader("2\n"), &out, ports)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", dev)

	assert.Contains(t, out.String(), "Multiple serial devices found")
	assert.Contains(t, out.String(), "1: /dev/ttyACM0")
	assert.Contains(t, out.String(), "2: /dev/ttyUSB0")
}

func TestChoosePortRejectsBadInput(t *testing.T) {
	ports := []string{"/dev/ttyACM0", "/dev/ttyUSB0", "/dev/ttyUSB1"}
	var out bytes.Buffer

	// Garbage, zero and out-of-range answers first; the valid pick last.
	dev, err := ChoosePort(strings.NewReader("abc\n0\n9\n1\n"), &out, ports)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", dev)

	assert.Contains(t, out.String(), "Please input a number")
	assert.Contains(t, out.String(), "Number must be positive")
	assert.Contains(t, out.String(), "Number must be between 1 and 3")
}

func TestChoosePortInputClosed(t *testing.T) {
	_, err := ChoosePort(strings.NewReader("garbage\n"), &bytes.Buffer{}, []string{"a", "b"})
	require.Error(t, err)
}
