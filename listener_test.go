// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import (
	"net"
	"testing"
	"time"
)

func TestListener_AcceptSplitsDataAndControlInOrder(t *testing.T) {
	const nstreams = 3

	ln, err := newListener(1, 0, nstreams, net.ParseIP("127.0.0.1"))
	if err != nil {
		t.Fatalf("newListener: %v", err)
	}
	defer ln.close()

	dataCh := make(chan []*endpoint, 1)
	controlCh := make(chan *endpoint, 1)
	errCh := make(chan error, 1)
	go func() {
		data, control, aerr := ln.accept()
		if aerr != nil {
			errCh <- aerr
			return
		}
		dataCh <- data
		controlCh <- control
	}()

	// Dial exactly nstreams+1 times, tagging each connection with its
	// dial order so we can confirm the listener assigns the first
	// nstreams to data and the last to control.
	conns := make([]net.Conn, 0, nstreams+1)
	for i := 0; i < nstreams+1; i++ {
		c, derr := net.Dial("tcp", ln.handle.addr())
		if derr != nil {
			t.Fatalf("dial %d: %v", i, derr)
		}
		conns = append(conns, c)
		if _, werr := c.Write([]byte{byte(i)}); werr != nil {
			t.Fatalf("write tag %d: %v", i, werr)
		}
	}
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	var data []*endpoint
	var control *endpoint
	select {
	case data = <-dataCh:
	case e := <-errCh:
		t.Fatalf("accept: %v", e)
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for accept")
	}
	control = <-controlCh
	defer closeAll(data, control)

	if len(data) != nstreams {
		t.Fatalf("want %d data endpoints, got %d", nstreams, len(data))
	}

	tag := func(ep *endpoint) byte {
		buf := make([]byte, 1)
		if err := ep.readExact(buf); err != nil {
			t.Fatalf("readExact tag: %v", err)
		}
		return buf[0]
	}

	for i, ep := range data {
		if got := tag(ep); got != byte(i) {
			t.Fatalf("data endpoint %d: want dial order tag %d, got %d", i, i, got)
		}
	}
	if got := tag(control); got != byte(nstreams) {
		t.Fatalf("control endpoint: want dial order tag %d, got %d", nstreams, got)
	}
}
