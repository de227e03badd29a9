// Package serialport opens UART devices with go.bug.st/serial.
package serialport

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// Config describes a serial line. Zero values select 115200 8N1.
type Config struct {
	Device   string
	Baud     int
	DataBits int
	Parity   string // none, odd, even, mark, space
	StopBits string // 1, 1.5, 2
}

const (
	DefaultBaud     = 115200
	DefaultDataBits = 8
)

func ParseParity(s string) (serial.Parity, error) {
	switch strings.ToLower(s) {
	case "", "none", "n":
		return serial.NoParity, nil
	case "odd", "o":
		return serial.OddParity, nil
	case "even", "e":
		return serial.EvenParity, nil
	case "mark", "m":
		return serial.MarkParity, nil
	case "space", "s":
		return serial.SpaceParity, nil
	default:
		return 0, fmt.Errorf("serialport: unknown parity %q", s)
	}
}

func ParseStopBits(s string) (serial.StopBits, error) {
	switch s {
	case "", "1":
		return serial.OneStopBit, nil
	case "1.5":
		return serial.OnePointFiveStopBits, nil
	case "2":
		return serial.TwoStopBits, nil
	default:
		return 0, fmt.Errorf("serialport: unknown stop bits %q", s)
	}
}

// Mode converts cfg into the mode passed to serial.Open.
func (cfg Config) Mode() (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: cfg.DataBits,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = DefaultBaud
	}
	if mode.DataBits == 0 {
		mode.DataBits = DefaultDataBits
	}
	if mode.BaudRate < 0 {
		return nil, fmt.Errorf("serialport: invalid baud rate %d", cfg.Baud)
	}
	if mode.DataBits < 5 || mode.DataBits > 8 {
		return nil, fmt.Errorf("serialport: invalid data bits %d", cfg.DataBits)
	}

	var err error
	if mode.Parity, err = ParseParity(cfg.Parity); err != nil {
		return nil, err
	}
	if mode.StopBits, err = ParseStopBits(cfg.StopBits); err != nil {
		return nil, err
	}
	return mode, nil
}

// Open opens cfg.Device. Reads on the returned port block until data arrives.
func Open(cfg Config) (serial.Port, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("serialport: no device given")
	}
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Device, err)
	}
	return port, nil
}

// List returns the names of the serial ports present on the system.
func List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("serialport: list: %w", err)
	}
	return ports, nil
}
