// Package hid carries a byte stream over a HID-UART bridge such as the
// CP2110. Each interrupt report carries up to 63 UART bytes and its report
// id is the number of bytes it holds.
package hid

import (
	"encoding/binary"
	"fmt"
)

const (
	MaxReportData = 63

	reportUARTEnable = 0x41
	reportUARTConfig = 0x50
)

// Info represents a HID device descriptor.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Product      string
	Manufacturer string
}

// Manager enumerates and opens HID devices.
type Manager interface {
	List() ([]Info, error)
	Open(info Info) (*Device, error)
	OpenVIDPID(vendorID, productID uint16) (*Device, error)
}

// NewManager returns the HID manager backed by usbhid.
func NewManager() Manager {
	return &usbManager{}
}

// reportDevice is the report level access a Device needs.
type reportDevice interface {
	GetInputReport() (byte, []byte, error)
	SetOutputReport(reportID byte, data []byte) error
	SetFeatureReport(reportID byte, data []byte) error
	Close() error
}

// UARTConfig is the line setting programmed into the bridge.
type UARTConfig struct {
	Baud     uint32
	Parity   byte // 0 none, 1 odd, 2 even, 3 mark, 4 space
	DataBits int  // 5..8
	TwoStop  bool
}

// Device is an opened bridge. Read blocks for the next input report.
type Device struct {
	d       reportDevice
	pending []byte
}

func newDevice(d reportDevice) *Device {
	return &Device{d: d}
}

// Configure programs the UART line settings and enables the UART.
func (d *Device) Configure(cfg UARTConfig) error {
	if cfg.DataBits < 5 || cfg.DataBits > 8 {
		return fmt.Errorf("hid: invalid data bits %d", cfg.DataBits)
	}
	if cfg.Parity > 4 {
		return fmt.Errorf("hid: invalid parity %d", cfg.Parity)
	}

	conf := make([]byte, 8)
	binary.BigEndian.PutUint32(conf, cfg.Baud)
	conf[4] = cfg.Parity
	conf[5] = 0 // no flow control
	conf[6] = byte(cfg.DataBits - 5)
	if cfg.TwoStop {
		conf[7] = 1
	}
	if err := d.d.SetFeatureReport(reportUARTConfig, conf); err != nil {
		return fmt.Errorf("hid: set uart config: %w", err)
	}
	if err := d.d.SetFeatureReport(reportUARTEnable, []byte{1}); err != nil {
		return fmt.Errorf("hid: enable uart: %w", err)
	}
	return nil
}

func (d *Device) Read(p []byte) (int, error) {
	for len(d.pending) == 0 {
		id, data, err := d.d.GetInputReport()
		if err != nil {
			return 0, fmt.Errorf("hid: read report: %w", err)
		}
		n := int(id)
		if n > MaxReportData {
			// not a data report
			continue
		}
		if n > len(data) {
			n = len(data)
		}
		d.pending = data[:n]
	}
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

// Write sends p as a sequence of data reports.
func (d *Device) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		chunk := p[written:]
		if len(chunk) > MaxReportData {
			chunk = chunk[:MaxReportData]
		}
		if err := d.d.SetOutputReport(byte(len(chunk)), chunk); err != nil {
			return written, fmt.Errorf("hid: write report: %w", err)
		}
		written += len(chunk)
	}
	return written, nil
}

func (d *Device) Close() error { return d.d.Close() }
