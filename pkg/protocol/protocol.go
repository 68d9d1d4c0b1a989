// Package protocol implements the textual wire protocol spoken by
// Marlin-class printer firmware: the command strings the host sends and
// the interpretation of the response lines the device emits.
//
// The protocol has no framing beyond newline-terminated lines and no
// sequence numbers. A bare "ok" acknowledges the instruction in flight,
// "T:" and "ok T:" lines carry temperature reports, and the busy echo is
// emitted while the device blocks on heating. Everything else is noise.
package protocol

import (
	"regexp"
	"strings"
)

// Commands the host sends, newline-terminated and case-sensitive.
const (
	// CmdFirmwareInfo requests the firmware identification string. Sent
	// once per session as the connection handshake.
	CmdFirmwareInfo = "M115"

	// CmdGetTemperature requests a temperature report. Sent by the driver
	// on its poll timer, never sourced from the instruction file.
	CmdGetTemperature = "M105"
)

// Response markers the device emits.
const (
	// RespAck acknowledges the in-flight instruction.
	RespAck = "ok"

	// RespTempPrefix starts an unsolicited or auto-reported temperature line.
	RespTempPrefix = "T:"

	// RespAckTempPrefix starts the reply to a temperature poll. It carries
	// an ok token, but that token answers the poll, not an instruction.
	RespAckTempPrefix = "ok T:"

	// RespBusyHeating is echoed while the device blocks on reaching a
	// target temperature.
	RespBusyHeating = "echo:busy: processing"
)

// tempPattern extracts the decimal readings from a temperature report.
// Reports look like "ok T:200.0 /200.0 B:60.0 /60.0 @:127"; the first
// four numbers are extruder temp, extruder target, bed temp, bed target.
var tempPattern = regexp.MustCompile(`\d*\.\d*`)

// Telemetry holds the most recently reported temperatures. Values keep
// the decimal text exactly as the device sent it so the display shows
// what the device said, not a reformatting of it.
type Telemetry struct {
	ExtruderTemp   string
	ExtruderTarget string
	BedTemp        string
	BedTarget      string
}

// PrinterStatus is the display label for the device's last observed state.
type PrinterStatus string

const (
	StatusDefault  PrinterStatus = "default"
	StatusPrinting PrinterStatus = "Printing"
	StatusHeating  PrinterStatus = "Heating"
)

// Interpreter consumes device response lines one at a time, accumulating
// telemetry and status across them. It is not safe for concurrent use;
// the driver owns exactly one per session.
type Interpreter struct {
	Telemetry Telemetry
	Status    PrinterStatus
}

// NewInterpreter returns an Interpreter with zeroed telemetry and the
// default status.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		Telemetry: Telemetry{
			ExtruderTemp:   "0",
			ExtruderTarget: "0",
			BedTemp:        "0",
			BedTarget:      "0",
		},
		Status: StatusDefault,
	}
}

// Interpret consumes one response line and reports whether the device
// acknowledged the in-flight instruction and is ready for the next one.
//
// Temperature-bearing lines update Telemetry as a side effect whether or
// not they acknowledge anything; a report with fewer than four readings
// is ignored. Unrecognized lines change nothing and never signal
// readiness.
func (in *Interpreter) Interpret(line string) bool {
	line = strings.TrimSpace(line)

	// Temperatures first, so a poll reply updates telemetry even though
	// it also carries an ok token.
	if strings.HasPrefix(line, RespTempPrefix) || strings.HasPrefix(line, RespAckTempPrefix) {
		if nums := tempPattern.FindAllString(line, -1); len(nums) >= 4 {
			in.Telemetry.ExtruderTemp = nums[0]
			in.Telemetry.ExtruderTarget = nums[1]
			in.Telemetry.BedTemp = nums[2]
			in.Telemetry.BedTarget = nums[3]
		}
	}

	// The ok on a poll reply answers the poll, not the instruction.
	if strings.HasPrefix(line, RespAckTempPrefix) {
		return false
	}

	if strings.HasPrefix(line, RespAck) {
		in.Status = StatusPrinting
		return true
	}

	if line == RespBusyHeating {
		in.Status = StatusHeating
	}

	return false
}
