// serialprint streams a G-code file to a 3D printer over its USB
// serial link, drawing live progress in the terminal while it prints.
//
// The printer is discovered by scanning /dev for USB serial devices;
// when several are present the user picks one from a numbered menu.
// Instructions go out one at a time, each waiting for the printer's
// "ok" before the next, with temperature polls and screen refreshes
// woven into the same line on their own clocks.
//
// Usage:
//
//	serialprint [options]
//
// Options:
//
//	-device string     Serial device path (default: scan /dev)
//	-file string       G-code file to print (default: prompt)
//	-baud int          Serial baud rate (default 115200)
//	-poll duration     Temperature poll interval (default 1s)
//	-refresh duration  Display refresh interval (default 1s)
//	-logfile string    Log file path (default: logging disabled)
//	-log-level string  Log level: DEBUG, INFO, WARN, ERROR (default INFO)
//
// Examples:
//
//	# Scan for a printer and prompt for the file
//	serialprint
//
//	# Everything up front
//	serialprint -device /dev/ttyUSB0 -file benchy.gcode
//
//	# Keep a debug log of the session
//	serialprint -file benchy.gcode -logfile print.log -log-level DEBUG
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"serialprint/pkg/display"
	"serialprint/pkg/driver"
	"serialprint/pkg/gcode"
	"serialprint/pkg/log"
	"serialprint/pkg/serial"
)

func main() {
	device := flag.String("device", "", "Serial device path (default: scan /dev)")
	file := flag.String("file", "", "G-code file to print (default: prompt)")
	baud := flag.Int("baud", 115200, "Serial baud rate")
	poll := flag.Duration("poll", time.Second, "Temperature poll interval")
	refresh := flag.Duration("refresh", time.Second, "Display refresh interval")
	logFile := flag.String("logfile", "", "Log file path (default: logging disabled)")
	logLevel := flag.String("log-level", "INFO", "Log level: DEBUG, INFO, WARN, ERROR")
	flag.Parse()

	// The status display owns the terminal, so logs go to a file or
	// nowhere at all.
	if *logFile != "" {
		logger, writer, err := log.NewFileLogger("serialprint", log.RotationConfig{Filename: *logFile})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer writer.Close()
		logger.SetLevel(log.ParseLevel(*logLevel))
		log.SetDefaultLogger(logger)
	} else {
		quiet := log.New("serialprint")
		quiet.SetWriter(io.Discard)
		log.SetDefaultLogger(quiet)
	}

	// One buffered reader for every interactive prompt, so the device
	// menu cannot eat input meant for the file question.
	stdin := bufio.NewReader(os.Stdin)

	probe := func() (string, bool) {
		if *device != "" {
			return *device, true
		}
		ports, err := serial.ListPorts()
		if err != nil || len(ports) == 0 {
			return "", false
		}
		choice, err := serial.ChoosePort(stdin, os.Stdout, ports)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return choice, true
	}

	connect := func(dev string) (driver.Conn, error) {
		cfg := serial.DefaultConfig()
		cfg.Device = dev
		cfg.BaudRate = *baud
		port, err := serial.Open(cfg)
		if err != nil {
			return nil, err
		}
		// Drop whatever the printer said before we were listening.
		if err := port.Flush(); err != nil {
			port.Close()
			return nil, err
		}
		return port, nil
	}

	prompted := false
	source := func() ([]string, error) {
		path := *file
		if path == "" || prompted {
			fmt.Print("Input GCode file path: ")
			line, err := stdin.ReadString('\n')
			if err != nil && line == "" {
				return nil, fmt.Errorf("read path: %w", err)
			}
			path = strings.TrimSpace(line)
		}
		prompted = true

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("no such file: %s", path)
		}
		fmt.Println("Reading file to memory")
		return gcode.LoadFile(path)
	}

	sess := driver.New(driver.Config{
		Probe:           probe,
		Connect:         connect,
		Source:          source,
		Renderer:        display.NewScreen(os.Stdout, nil),
		Console:         os.Stdout,
		PollInterval:    *poll,
		RefreshInterval: *refresh,
	})

	// TODO: catch ctrl+c so an aborted print can turn the heaters off
	// before exiting.
	if err := sess.Run(); err != nil {
		log.Error("print session failed: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
