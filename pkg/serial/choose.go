package serial

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ChoosePort picks one device from the candidates. A single candidate
// is selected automatically; several are presented as a numbered menu
// on out, reading selections from in until one lands in range.
// Non-numeric and out-of-range input is reported and re-prompted, never
// fatal. The error cases are an empty candidate list and in closing
// before a valid selection.
//
// Callers that read further prompts from the same stream should pass a
// shared *bufio.Reader so the menu does not buffer input meant for a
// later question.
func ChoosePort(in io.Reader, out io.Writer, ports []string) (string, error) {
	if len(ports) == 0 {
		return "", ErrNoPorts
	}
	if len(ports) == 1 {
		return ports[0], nil
	}

	fmt.Fprintln(out, "Multiple serial devices found")
	for i, dev := range ports {
		fmt.Fprintf(out, "%d: %s\n", i+1, dev)
	}

	r, ok := in.(*bufio.Reader)
	if !ok {
		r = bufio.NewReader(in)
	}
	for {
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return "", fmt.Errorf("serial: input closed before a device was chosen")
			}
			return "", fmt.Errorf("serial: read selection: %w", err)
		}
		choice, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil {
			fmt.Fprintln(out, "Please input a number")
			continue
		}
		if choice < 1 {
			fmt.Fprintln(out, "Number must be positive")
			continue
		}
		if choice > len(ports) {
			fmt.Fprintf(out, "Number must be between 1 and %d\n", len(ports))
			continue
		}
		return ports[choice-1], nil
	}
}
