package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/seagrayinc/sdgram/internal/config"
	"github.com/seagrayinc/sdgram/internal/hid"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		text    string
		want    []byte
		wantErr bool
	}{
		{name: "empty", want: []byte{}},
		{name: "hex", hex: "0a0B0c", want: []byte{0x0a, 0x0b, 0x0c}},
		{name: "dashed hex", hex: "57-a3-00", want: []byte{0x57, 0xa3, 0x00}},
		{name: "text", text: "hello", want: []byte("hello")},
		{name: "odd hex", hex: "abc", wantErr: true},
		{name: "both", hex: "00", text: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePayload(tt.hex, tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePayload: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got % x, want % x", got, tt.want)
			}
		})
	}
}

func TestParseArgsFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdgram.toml")
	body := "device = \"/dev/ttyACM0\"\nbaud = 9600\nports = [2, 3]\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	opts, err := parseArgs([]string{"-config", path, "-baud", "57600", "-port", "3", "-text", "hi", "send"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.command != "send" || opts.port != 3 || opts.text != "hi" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.cfg.Device != "/dev/ttyACM0" {
		t.Fatalf("device from file lost: %q", opts.cfg.Device)
	}
	if opts.cfg.Baud != 57600 {
		t.Fatalf("baud flag not applied: %d", opts.cfg.Baud)
	}
	if !reflect.DeepEqual(opts.cfg.Ports, []uint8{2, 3}) {
		t.Fatalf("ports from file lost: %v", opts.cfg.Ports)
	}
}

func TestParseArgsUnsetFlagsKeepConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdgram.toml")
	if err := os.WriteFile(path, []byte("baud = 9600\nmax_payload = 100\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	opts, err := parseArgs([]string{"-config", path, "listen"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.cfg.Baud != 9600 || opts.cfg.MaxPayload != 100 {
		t.Fatalf("flag defaults replaced file values: %+v", opts.cfg)
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"two commands", []string{"send", "listen"}},
		{"usb without vid", []string{"-transport", "usb", "listen"}},
		{"vid too large", []string{"-transport", "usb", "-vid", "70000", "listen"}},
		{"bad max payload", []string{"-max-payload", "0", "send"}},
		{"unknown flag", []string{"-speed", "1", "send"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseArgs(tt.args, io.Discard); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseArgsPortsSkipsValidation(t *testing.T) {
	opts, err := parseArgs([]string{"-transport", "usb", "ports"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.command != "ports" {
		t.Fatalf("unexpected command %q", opts.command)
	}
}

func TestHIDUARTConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Transport = config.TransportHID
	cfg.Baud = 38400
	cfg.Parity = "odd"
	cfg.StopBits = "2"
	cfg.DataBits = 7

	got, err := hidUARTConfig(cfg)
	if err != nil {
		t.Fatalf("hidUARTConfig: %v", err)
	}
	want := hid.UARTConfig{Baud: 38400, Parity: 1, DataBits: 7, TwoStop: true}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	cfg.Parity = "sometimes"
	if _, err := hidUARTConfig(cfg); err == nil {
		t.Fatalf("expected parity error")
	}
}

func TestDeviceName(t *testing.T) {
	cfg := config.Default()
	cfg.VID, cfg.PID = 0x10c4, 0xea80
	if got := deviceName("hid", cfg); got != "hid-10c4:ea80" {
		t.Fatalf("deviceName = %q", got)
	}
}
