package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretAck(t *testing.T) {
	in := NewInterpreter()

	require.True(t, in.Interpret("ok"))
	assert.Equal(t, StatusPrinting, in.Status)
}

func TestInterpretPollReply(t *testing.T) {
	in := NewInterpreter()

	// The ok token on a poll reply must not be mistaken for an
	// instruction acknowledgment.
	ready := in.Interpret("ok T:200.0 /200.0 B:60.0 /60.0")

	require.False(t, ready)
	assert.Equal(t, "200.0", in.Telemetry.ExtruderTemp)
	assert.Equal(t, "200.0", in.Telemetry.ExtruderTarget)
	assert.Equal(t, "60.0", in.Telemetry.BedTemp)
	assert.Equal(t, "60.0", in.Telemetry.BedTarget)
	assert.Equal(t, StatusDefault, in.Status)
}

func TestInterpretBareReport(t *testing.T) {
	in := NewInterpreter()

	ready := in.Interpret("T:210.5 /210.0 B:55.0 /60.0")

	require.False(t, ready)
	assert.Equal(t, "210.5", in.Telemetry.ExtruderTemp)
	assert.Equal(t, "210.0", in.Telemetry.ExtruderTarget)
	assert.Equal(t, "55.0", in.Telemetry.BedTemp)
	assert.Equal(t, "60.0", in.Telemetry.BedTarget)
}

func TestInterpretBusyThenAck(t *testing.T) {
	in := NewInterpreter()

	require.False(t, in.Interpret("echo:busy: processing"))
	assert.Equal(t, StatusHeating, in.Status)

	// Status follows the most recent signal, so the eventual ack flips
	// it back.
	require.True(t, in.Interpret("ok"))
	assert.Equal(t, StatusPrinting, in.Status)
}

func TestInterpretIgnoresNoise(t *testing.T) {
	in := NewInterpreter()

	for _, line := range []string{
		"foo",
		"echo:Unknown command: \"M999\"",
		"start",
		"",
		"echo:busy: processing again", // busy echo must match exactly
	} {
		require.False(t, in.Interpret(line), "line %q", line)
	}

	assert.Equal(t, StatusDefault, in.Status)
	assert.Equal(t, "0", in.Telemetry.ExtruderTemp)
}

func TestInterpretShortReport(t *testing.T) {
	in := NewInterpreter()

	// Fewer than four readings is a malformed report; keep the old values.
	require.False(t, in.Interpret("ok T:12.0 /200.0"))
	assert.Equal(t, "0", in.Telemetry.ExtruderTemp)
	assert.Equal(t, "0", in.Telemetry.BedTarget)
}

func TestInterpretExtraReadings(t *testing.T) {
	in := NewInterpreter()

	// Some firmware appends more readings; only the first four count.
	require.False(t, in.Interpret("T:200.0 /200.0 B:60.0 /60.0 A:25.5"))
	assert.Equal(t, "200.0", in.Telemetry.ExtruderTemp)
	assert.Equal(t, "60.0", in.Telemetry.BedTarget)
}

func TestInterpretTrimsLineEndings(t *testing.T) {
	in := NewInterpreter()

	// Serial lines usually arrive CRLF-terminated.
	require.True(t, in.Interpret("ok\r"))
	require.False(t, in.Interpret("  ok T:180.0 /180.0 B:50.0 /50.0\r"))
	assert.Equal(t, "180.0", in.Telemetry.ExtruderTemp)
}

func TestTelemetryPersistsAcrossReads(t *testing.T) {
	in := NewInterpreter()

	in.Interpret("T:100.0 /200.0 B:40.0 /60.0")
	in.Interpret("ok")
	in.Interpret("echo:busy: processing")

	assert.Equal(t, "100.0", in.Telemetry.ExtruderTemp)
	assert.Equal(t, "200.0", in.Telemetry.ExtruderTarget)
	assert.Equal(t, "40.0", in.Telemetry.BedTemp)
	assert.Equal(t, "60.0", in.Telemetry.BedTarget)
}
