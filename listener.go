// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import (
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// listener is the passive TCP socket created by Engine.Listen (§4.1,
// §4.5). A single listener accepts exactly NStreams+1 connections per
// accept call: the first NStreams become a communicator's data
// endpoints in the order the peer dialed them, and the final connection
// becomes its control endpoint (§4.4 "connection identity").
type listener struct {
	id       int64
	devID    int
	nstreams int
	tcp      *net.TCPListener
	handle   SocketHandle
}

func newListener(id int64, devID int, nstreams int, addr net.IP) (*listener, error) {
	tcp, err := listenBacklog(addr, ListenBacklog)
	if err != nil {
		// §6 listen: socket/bind/listen failure is an IOError, distinct from
		// the TCPError connect/accept failures use below.
		return nil, IOErrorf(CodeIOListen, err, "listen on %v", addr)
	}
	handle, err := newSocketHandle(tcp.Addr())
	if err != nil {
		_ = tcp.Close()
		return nil, err
	}
	return &listener{id: id, devID: devID, nstreams: nstreams, tcp: tcp, handle: handle}, nil
}

// listenBacklog binds and listens on addr with an explicit backlog
// (§6 ListenBacklog=16384). net.ListenTCP has no backlog parameter of
// its own — the runtime always passes the kernel's somaxconn — so the
// socket is built with raw syscalls and handed back to the net package
// via FileListener, the same handoff the standard library itself uses
// internally for fd-derived listeners.
func listenBacklog(addr net.IP, backlog int) (*net.TCPListener, error) {
	if ip4 := addr.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: 0}
		copy(sa.Addr[:], ip4)
		return fdListener(unix.AF_INET, sa, backlog)
	}
	sa6 := &unix.SockaddrInet6{Port: 0}
	copy(sa6.Addr[:], addr.To16())
	return fdListener(unix.AF_INET6, sa6, backlog)
}

func fdListener(family int, sa unix.Sockaddr, backlog int) (*net.TCPListener, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	f := os.NewFile(uintptr(fd), "tcpstripe-listener")
	defer f.Close()
	ln, err := net.FileListener(f)
	if err != nil {
		return nil, err
	}
	tcp, ok := ln.(*net.TCPListener)
	if !ok {
		_ = ln.Close()
		return nil, InnerErrorf(CodeInnerUnknown, nil, "file listener is not TCP")
	}
	return tcp, nil
}

// accept pulls exactly nstreams+1 connections in arrival order (§4.4,
// §4.5) and splits them into data endpoints and one control endpoint.
// It blocks until all of them have arrived or one accept fails.
func (l *listener) accept() (data []*endpoint, control *endpoint, err error) {
	total := l.nstreams + 1
	conns := make([]*net.TCPConn, 0, total)
	for i := 0; i < total; i++ {
		c, aerr := l.tcp.AcceptTCP()
		if aerr != nil {
			for _, prior := range conns {
				_ = prior.Close()
			}
			return nil, nil, TCPErrorf(CodeTCPAccept, aerr, "accept connection %d/%d", i+1, total)
		}
		conns = append(conns, c)
	}

	data = make([]*endpoint, 0, l.nstreams)
	for i := 0; i < l.nstreams; i++ {
		ep, eerr := newEndpoint(conns[i])
		if eerr != nil {
			closeAll(data, control)
			return nil, nil, eerr
		}
		data = append(data, ep)
	}
	control, err = newEndpoint(conns[l.nstreams])
	if err != nil {
		closeAll(data, nil)
		return nil, nil, err
	}
	return data, control, nil
}

func closeAll(data []*endpoint, control *endpoint) {
	for _, ep := range data {
		_ = ep.close()
	}
	if control != nil {
		_ = control.close()
	}
}

func (l *listener) close() error {
	return l.tcp.Close()
}
