// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package netio provides blocking-semantics read/write primitives over
// non-blocking TCP sockets.
//
// A Conn wraps a *net.TCPConn whose file descriptor is put into
// non-blocking mode and driven directly through syscall.RawConn. WriteAll
// and ReadExact never return a partial transfer to the caller: each loops
// internally until the requested length has been moved or a real error
// (anything other than EAGAIN) is observed. The busy-wait is delegated to
// the Go runtime's network poller rather than a hand-rolled sleep loop —
// RawConn's read/write callbacks block the calling goroutine (not an OS
// thread) until the descriptor is ready, then retry; this is the
// readiness-driven reactor alternative called out for this component: the
// public contract (full-length transfer or error, nothing else) is
// unchanged.
package netio

import (
	"io"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// Conn is a single TCP connection configured for non-blocking I/O with
// TCP_NODELAY enabled. It is the concrete socket behind one Endpoint.
type Conn struct {
	tcp *net.TCPConn
	raw syscall.RawConn
}

// New wraps tcp, enabling TCP_NODELAY and binding the raw, non-blocking
// file descriptor used by WriteAll/ReadExact.
func New(tcp *net.TCPConn) (*Conn, error) {
	if err := tcp.SetNoDelay(true); err != nil {
		return nil, err
	}
	raw, err := tcp.SyscallConn()
	if err != nil {
		return nil, err
	}
	return &Conn{tcp: tcp, raw: raw}, nil
}

// TCPConn returns the underlying *net.TCPConn, e.g. for Close.
func (c *Conn) TCPConn() *net.TCPConn { return c.tcp }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.tcp.Close() }

// WriteAll writes the whole of p, retrying internally on EAGAIN/EWOULDBLOCK
// until every byte is written or a non-retryable error occurs.
func (c *Conn) WriteAll(p []byte) error {
	written := 0
	for written < len(p) {
		var (
			n     int
			opErr error
		)
		err := c.raw.Write(func(fd uintptr) bool {
			n, opErr = unix.Write(int(fd), p[written:])
			return !shouldRetry(opErr)
		})
		if err != nil {
			return err
		}
		if opErr != nil {
			if shouldRetry(opErr) {
				continue
			}
			return opErr
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		written += n
	}
	return nil
}

// ReadExact reads len(p) bytes into p, retrying internally on
// EAGAIN/EWOULDBLOCK until the buffer is full or a non-retryable error
// occurs; end of stream before the buffer is full is reported as
// io.ErrUnexpectedEOF.
func (c *Conn) ReadExact(p []byte) error {
	read := 0
	for read < len(p) {
		var (
			n     int
			opErr error
		)
		err := c.raw.Read(func(fd uintptr) bool {
			n, opErr = unix.Read(int(fd), p[read:])
			return !shouldRetry(opErr)
		})
		if err != nil {
			return err
		}
		if opErr != nil {
			if shouldRetry(opErr) {
				continue
			}
			return opErr
		}
		if n == 0 {
			return io.ErrUnexpectedEOF
		}
		read += n
	}
	return nil
}

func shouldRetry(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR
}
