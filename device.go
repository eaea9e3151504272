// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import "net"

// PtrSupport describes the memory a device can transfer directly. This
// plugin only ever reports HostOnly (§1 Non-goals: no GPU-resident
// buffer transfer).
type PtrSupport uint8

const HostOnly PtrSupport = 1

// DeviceDescriptor is the immutable record returned by GetProperties
// (§6). Name/PCIPath/SpeedMbps come from whatever DeviceEnumerator the
// Engine was constructed with; the device/NIC enumeration facility
// itself is out of scope (§1) and is reached only through this
// interface.
type DeviceDescriptor struct {
	Name      string
	PCIPath   string
	Addr      net.IP
	SpeedMbps int
}

// DeviceEnumerator discovers the network devices available for
// listen/connect. Implementations that probe real PCI topology and NIC
// link speed are a host-environment collaborator (§1); DefaultEnumerator
// is a best-effort stdlib-only fallback suitable for tests and for hosts
// without a richer discovery facility.
type DeviceEnumerator interface {
	Devices() ([]DeviceDescriptor, error)
}

// DefaultEnumerator lists devices from net.Interfaces(), reporting the
// first IPv4 address of each interface (interfaces with no IPv4 address,
// including IPv6-only ones, are not listed) and leaving
// PCIPath empty and SpeedMbps at 0 since neither is discoverable via the
// standard library.
type DefaultEnumerator struct{}

func (DefaultEnumerator) Devices() ([]DeviceDescriptor, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, InnerErrorf(CodeInnerUnknown, err, "enumerate network interfaces")
	}

	var out []DeviceDescriptor
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp == 0 || ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, aerr := ifc.Addrs()
		if aerr != nil || len(addrs) == 0 {
			continue
		}
		var ip net.IP
		for _, a := range addrs {
			if ipNet, ok := a.(*net.IPNet); ok && ipNet.IP.To4() != nil {
				ip = ipNet.IP
				break
			}
		}
		if ip == nil {
			continue
		}
		out = append(out, DeviceDescriptor{Name: ifc.Name, Addr: ip})
	}
	return out, nil
}
