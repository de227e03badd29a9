package hid

import (
	"fmt"

	usbhid "rafaelmartins.com/p/usbhid"
)

type usbManager struct{}

func (m *usbManager) List() ([]Info, error) {
	devs, err := usbhid.Enumerate(nil)
	if err != nil {
		return nil, fmt.Errorf("hid: enumerate: %w", err)
	}
	out := make([]Info, 0, len(devs))
	for _, d := range devs {
		out = append(out, Info{
			Path:         d.Path(),
			VendorID:     d.VendorId(),
			ProductID:    d.ProductId(),
			Product:      d.Product(),
			Manufacturer: d.Manufacturer(),
		})
	}
	return out, nil
}

func (m *usbManager) Open(info Info) (*Device, error) {
	return m.get(func(dev *usbhid.Device) bool {
		return dev.Path() == info.Path
	})
}

func (m *usbManager) OpenVIDPID(vendorID, productID uint16) (*Device, error) {
	return m.get(func(dev *usbhid.Device) bool {
		return dev.VendorId() == vendorID && dev.ProductId() == productID
	})
}

func (m *usbManager) get(f func(*usbhid.Device) bool) (*Device, error) {
	d, err := usbhid.Get(f, true, false)
	if err != nil {
		return nil, fmt.Errorf("hid: open: %w", err)
	}
	return newDevice(d), nil
}
