// Package gcode loads and filters GCode programs for streaming.
//
// A program is an ordered sequence of instruction lines fixed at load
// time. Loading drops everything the streamer must not transmit: blank
// lines, whole-line comments, and temperature polls (the driver issues
// those on its own timer).
package gcode

import (
	"fmt"
	"os"
	"strings"

	"serialprint/pkg/protocol"
)

// commentMarker introduces a comment; it and everything after it is not
// part of the instruction.
const commentMarker = ';'

// Strip truncates an instruction at the first comment marker. The result
// is a prefix of the input, untrimmed, so an instruction that carried an
// inline comment keeps any spacing before the marker. Stripping an
// already-stripped instruction returns it unchanged.
func Strip(instruction string) string {
	if i := strings.IndexByte(instruction, commentMarker); i >= 0 {
		return instruction[:i]
	}
	return instruction
}

// Parse splits raw program text into the instruction sequence to
// transmit, in file order. Each line is trimmed of surrounding
// whitespace, then dropped if empty, a whole-line comment, or a
// temperature poll. Inline comments are stripped last, after the drop
// filters, so a line that survives them is kept even when stripping
// leaves nothing.
func Parse(text string) []string {
	var program []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line[0] == commentMarker {
			continue
		}
		if strings.HasPrefix(line, protocol.CmdGetTemperature) {
			continue
		}
		program = append(program, Strip(line))
	}
	return program
}

// LoadFile reads a GCode file and parses it into an instruction
// sequence. Read failures are returned wrapped so the caller can
// re-prompt for a usable path.
func LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gcode: read %s: %w", path, err)
	}
	return Parse(string(data)), nil
}
