package main

import (
	"fmt"
	"path/filepath"

	"github.com/seagrayinc/sdgram/internal/config"
	"github.com/seagrayinc/sdgram/internal/hid"
	"github.com/seagrayinc/sdgram/internal/serialport"
	"github.com/seagrayinc/sdgram/internal/usbbulk"
	"github.com/seagrayinc/sdgram/pkg/sdgram"
)

// openLink opens the configured device and returns it as a transport along
// with a short name for logs and metrics.
func openLink(cfg config.Config) (*sdgram.StreamTransport, string, error) {
	switch cfg.Transport {
	case config.TransportSerial:
		port, err := serialport.Open(serialport.Config{
			Device:   cfg.Device,
			Baud:     cfg.Baud,
			DataBits: cfg.DataBits,
			Parity:   cfg.Parity,
			StopBits: cfg.StopBits,
		})
		if err != nil {
			return nil, "", err
		}
		return sdgram.NewStreamTransport(port), filepath.Base(cfg.Device), nil

	case config.TransportUSB:
		dev, err := usbbulk.Open(cfg.VID, cfg.PID)
		if err != nil {
			return nil, "", err
		}
		return sdgram.NewStreamTransport(dev), deviceName("usb", cfg), nil

	case config.TransportHID:
		uart, err := hidUARTConfig(cfg)
		if err != nil {
			return nil, "", err
		}
		dev, err := hid.NewManager().OpenVIDPID(cfg.VID, cfg.PID)
		if err != nil {
			return nil, "", err
		}
		if err := dev.Configure(uart); err != nil {
			_ = dev.Close()
			return nil, "", err
		}
		return sdgram.NewStreamTransport(dev), deviceName("hid", cfg), nil

	default:
		return nil, "", fmt.Errorf("invalid transport: %q", cfg.Transport)
	}
}

func deviceName(kind string, cfg config.Config) string {
	return fmt.Sprintf("%s-%04x:%04x", kind, cfg.VID, cfg.PID)
}

var hidParity = map[string]byte{
	"none": 0, "n": 0, "": 0,
	"odd": 1, "o": 1,
	"even": 2, "e": 2,
	"mark": 3, "m": 3,
	"space": 4, "s": 4,
}

func hidUARTConfig(cfg config.Config) (hid.UARTConfig, error) {
	parity, ok := hidParity[cfg.Parity]
	if !ok {
		return hid.UARTConfig{}, fmt.Errorf("invalid parity: %q", cfg.Parity)
	}
	var twoStop bool
	switch cfg.StopBits {
	case "", "1":
	case "1.5", "2":
		twoStop = true
	default:
		return hid.UARTConfig{}, fmt.Errorf("invalid stop_bits: %q", cfg.StopBits)
	}
	if cfg.Baud <= 0 {
		return hid.UARTConfig{}, fmt.Errorf("invalid baud: %d", cfg.Baud)
	}
	return hid.UARTConfig{
		Baud:     uint32(cfg.Baud),
		Parity:   parity,
		DataBits: cfg.DataBits,
		TwoStop:  twoStop,
	}, nil
}
