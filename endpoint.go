// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import (
	"net"

	"github.com/nstripe/tcpstripe/internal/netio"
)

// addrFamily selects the dial/listen network string for a SocketHandle,
// mirroring the teacher's "single source of truth" kind→options mapping,
// now keyed on IP family instead of transport kind since every Endpoint
// in this package is a TCP stream socket (§4.2).
type addrFamily byte

const (
	familyV4 addrFamily = 4
	familyV6 addrFamily = 6
)

func networkFor(family addrFamily) string {
	switch family {
	case familyV6:
		return "tcp6"
	default:
		return "tcp4"
	}
}

// endpoint is a single accepted or dialed TCP connection with NODELAY
// and non-blocking mode set (§3, §4.2). It has no public methods beyond
// being handed to a streamWorker or controlWorker, matching the spec's
// "no public methods of its own" note.
type endpoint struct {
	conn *netio.Conn
}

func newEndpoint(tcp *net.TCPConn) (*endpoint, error) {
	c, err := netio.New(tcp)
	if err != nil {
		return nil, IOErrorf(CodeIOUnknown, err, "configure endpoint")
	}
	return &endpoint{conn: c}, nil
}

func (e *endpoint) writeAll(p []byte) error { return e.conn.WriteAll(p) }
func (e *endpoint) readExact(p []byte) error { return e.conn.ReadExact(p) }
func (e *endpoint) close() error             { return e.conn.Close() }

// dialEndpoint dials the address carried by a SocketHandle, matching
// the endpoint-identity invariant: ordering is the caller's
// responsibility (Engine.Connect dials in accept order, §3).
func dialEndpoint(h SocketHandle) (*endpoint, error) {
	network := networkFor(addrFamily(h.Family))
	conn, err := net.Dial(network, h.addr())
	if err != nil {
		return nil, TCPErrorf(CodeTCPDial, err, "dial %s", h.addr())
	}
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		_ = conn.Close()
		return nil, TCPErrorf(CodeTCPDial, nil, "dial %s: not a TCP connection", h.addr())
	}
	return newEndpoint(tcp)
}
