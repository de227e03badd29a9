// Package usbbulk carries a byte stream over the bulk or interrupt endpoints
// of a USB device opened with karalabe/usb.
package usbbulk

import (
	"fmt"

	"github.com/karalabe/usb"
)

// PacketSize is the endpoint max packet size of full-speed devices.
const PacketSize = 64

// Info describes an attached device.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Serial       string
	Product      string
	Manufacturer string
}

// List returns the devices matching vid and pid. Zero matches any.
func List(vid, pid uint16) ([]Info, error) {
	infos, err := usb.Enumerate(vid, pid)
	if err != nil {
		return nil, fmt.Errorf("usbbulk: enumerate: %w", err)
	}
	out := make([]Info, 0, len(infos))
	for _, i := range infos {
		out = append(out, Info{
			Path:         i.Path,
			VendorID:     i.VendorID,
			ProductID:    i.ProductID,
			Serial:       i.Serial,
			Product:      i.Product,
			Manufacturer: i.Manufacturer,
		})
	}
	return out, nil
}

// Device is an opened USB device. Reads and writes move whole packets on the
// wire and arbitrary byte counts at the API.
type Device struct {
	dev       usb.Device
	readSize  int
	writeSize int

	pkt     []byte
	pending []byte
}

// Open opens the first device matching vid and pid.
func Open(vid, pid uint16) (*Device, error) {
	if !usb.Supported() {
		return nil, fmt.Errorf("usbbulk: USB access not supported on this platform")
	}
	infos, err := usb.Enumerate(vid, pid)
	if err != nil {
		return nil, fmt.Errorf("usbbulk: enumerate: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("usbbulk: no device (VID:0x%04X PID:0x%04X)", vid, pid)
	}

	dev, err := infos[0].Open()
	if err != nil {
		return nil, fmt.Errorf("usbbulk: open %s: %w", infos[0].Path, err)
	}
	return newDevice(dev, PacketSize, PacketSize), nil
}

func newDevice(dev usb.Device, readSize, writeSize int) *Device {
	return &Device{
		dev:       dev,
		readSize:  readSize,
		writeSize: writeSize,
		pkt:       make([]byte, readSize),
	}
}

// Read returns bytes left over from the previous packet, or blocks for the
// next one.
func (d *Device) Read(p []byte) (int, error) {
	if len(d.pending) == 0 {
		n, err := d.dev.Read(d.pkt)
		if err != nil {
			return 0, fmt.Errorf("usbbulk: read: %w", err)
		}
		d.pending = d.pkt[:n]
	}
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

// Write sends p in packets of at most writeSize bytes. On error the returned
// count covers the packets that were accepted.
func (d *Device) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		end := written + d.writeSize
		if end > len(p) {
			end = len(p)
		}
		n, err := d.dev.Write(p[written:end])
		written += n
		if err != nil {
			return written, fmt.Errorf("usbbulk: write: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return written, nil
}

func (d *Device) Close() error {
	return d.dev.Close()
}
