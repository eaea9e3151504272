// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import (
	"net"
	"testing"
)

func TestSocketHandle_RoundTripBinary(t *testing.T) {
	want := SocketHandle{Family: 4, IP: net.ParseIP("10.0.0.7").To16(), Port: 51821}

	buf, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(buf) != socketHandleLen {
		t.Fatalf("want %d bytes, got %d", socketHandleLen, len(buf))
	}

	var got SocketHandle
	if err := got.UnmarshalBinary(buf); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got.Family != want.Family || got.Port != want.Port || !got.IP.Equal(want.IP) {
		t.Fatalf("round-trip mismatch: want %+v, got %+v", want, got)
	}
}

func TestSocketHandle_UnmarshalRejectsWrongLength(t *testing.T) {
	var h SocketHandle
	if err := h.UnmarshalBinary([]byte{1, 2, 3}); err == nil {
		t.Fatalf("want error for short input")
	}
}

func TestNewSocketHandle_FromTCPAddr(t *testing.T) {
	addr := &net.TCPAddr{IP: net.ParseIP("192.168.1.5"), Port: 9000}
	h, err := newSocketHandle(addr)
	if err != nil {
		t.Fatalf("newSocketHandle: %v", err)
	}
	if h.Family != 4 || h.Port != 9000 {
		t.Fatalf("want family=4 port=9000, got family=%d port=%d", h.Family, h.Port)
	}
}

func TestNewSocketHandle_RejectsNonTCP(t *testing.T) {
	addr := &net.UDPAddr{IP: net.ParseIP("192.168.1.5"), Port: 9000}
	if _, err := newSocketHandle(addr); err == nil {
		t.Fatalf("want error for non-TCP address")
	}
}
