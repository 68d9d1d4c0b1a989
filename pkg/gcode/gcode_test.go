package gcode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrip(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"G1 X10 Y20", "G1 X10 Y20"},
		{"G1 X10 ; move right", "G1 X10 "},
		{"G28;home", "G28"},
		{";whole line comment", ""},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Strip(c.in), "input %q", c.in)
	}
}

func TestStripIdempotent(t *testing.T) {
	for _, in := range []string{
		"G1 X10 ; move",
		"M104 S200",
		";comment",
		"",
	} {
		once := Strip(in)
		assert.Equal(t, once, Strip(once), "input %q", in)
	}
}

func TestParse(t *testing.T) {
	text := `; generated by slicer
M140 S60
  G28

M105
G1 X10 ; first move
;layer 1
M105 T0
G1 Y20`

	assert.Equal(t, []string{
		"M140 S60",
		"G28",
		"G1 X10 ",
		"G1 Y20",
	}, Parse(text))
}

func TestParseCRLF(t *testing.T) {
	assert.Equal(t, []string{"G28", "G1 X0"}, Parse("G28\r\nG1 X0\r\n"))
}

func TestParseEmpty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("\n\n; nothing but comments\n"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.gcode")
	require.NoError(t, os.WriteFile(path, []byte("G28\n;skirt\nG1 X5 ;edge\n"), 0644))

	program, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"G28", "G1 X5 "}, program)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.gcode"))
	require.Error(t, err)
}
