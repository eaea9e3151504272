// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import (
	"net"
	"testing"
	"time"
)

// newEndpointPair establishes a real loopback TCP connection and wraps
// both ends as endpoints, mirroring internal/netio's dialPair helper.
func newEndpointPair(t *testing.T) (client, server *endpoint) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	acceptCh := make(chan *net.TCPConn, 1)
	errCh := make(chan error, 1)
	go func() {
		c, aerr := ln.Accept()
		if aerr != nil {
			errCh <- aerr
			return
		}
		acceptCh <- c.(*net.TCPConn)
	}()

	dial, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	select {
	case srv := <-acceptCh:
		c, cerr := newEndpoint(dial.(*net.TCPConn))
		if cerr != nil {
			t.Fatalf("newEndpoint(client): %v", cerr)
		}
		s, serr := newEndpoint(srv)
		if serr != nil {
			t.Fatalf("newEndpoint(server): %v", serr)
		}
		return c, s
	case e := <-errCh:
		t.Fatalf("accept: %v", e)
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout establishing pair")
	}
	return nil, nil
}

// waitDone polls a requestState until it reports completion or the
// deadline expires, used by tests that exercise a background worker.
func waitDone(t *testing.T, s *requestState) (nbytes int64, err error) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		done, n, e := s.snapshot()
		if done || e != nil {
			return n, e
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("requestState did not complete in time")
	return 0, nil
}
