// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import (
	"encoding/binary"
	"net"
	"strconv"
)

// SocketHandle is the serializable address a Listener hands back to its
// caller so that a peer can dial in (§3, §6). It carries no lifetime
// beyond a single handshake: the bytes are meaningful only to Connect.
//
// Wire form: 1 byte family (4 or 6), 16 bytes address (IPv4 addresses are
// stored in IPv4-mapped form, ::ffff:a.b.c.d), 2 bytes port (big-endian).
type SocketHandle struct {
	Family byte // 4 or 6
	IP     net.IP
	Port   int
}

const socketHandleLen = 1 + 16 + 2

// MarshalBinary encodes the handle for out-of-band exchange (e.g. over
// the host library's own bootstrap channel; this package does not
// transport the handle itself).
func (h SocketHandle) MarshalBinary() ([]byte, error) {
	buf := make([]byte, socketHandleLen)
	buf[0] = h.Family
	ip16 := h.IP.To16()
	if ip16 == nil {
		return nil, InnerErrorf(CodeInnerBadAddressFamily, nil, "socket handle: invalid IP %v", h.IP)
	}
	copy(buf[1:17], ip16)
	binary.BigEndian.PutUint16(buf[17:19], uint16(h.Port))
	return buf, nil
}

// UnmarshalBinary decodes a handle produced by MarshalBinary.
func (h *SocketHandle) UnmarshalBinary(data []byte) error {
	if len(data) != socketHandleLen {
		return InnerErrorf(CodeInnerUnknown, nil, "socket handle: want %d bytes, got %d", socketHandleLen, len(data))
	}
	h.Family = data[0]
	h.IP = net.IP(append([]byte(nil), data[1:17]...))
	h.Port = int(binary.BigEndian.Uint16(data[17:19]))
	return nil
}

func (h SocketHandle) addr() string {
	return net.JoinHostPort(h.IP.String(), strconv.Itoa(h.Port))
}

func newSocketHandle(addr net.Addr) (SocketHandle, error) {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return SocketHandle{}, InnerErrorf(CodeInnerBadAddressFamily, nil, "socket handle: not a TCP address: %v", addr)
	}
	family := byte(4)
	if tcpAddr.IP.To4() == nil {
		family = 6
	}
	return SocketHandle{Family: family, IP: tcpAddr.IP, Port: tcpAddr.Port}, nil
}
