// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

// communicator is the open set of workers behind one send or receive
// handle (§4.5). It owns NStreams data endpoints plus their
// streamWorkers, and one control endpoint plus its controlWorker, and
// holds a reference to the Engine's shared registry used to turn
// isend/irecv calls into request ids.
type communicator struct {
	id        int64
	direction Direction

	streams []*streamWorker
	control *controlWorker

	registry *requestRegistry
	metrics  *Metrics

	closed bool
}

func newCommunicator(id int64, dir Direction, data []*endpoint, control *endpoint, threshold int64, queueLen int, log Logger, m *Metrics, registry *requestRegistry) *communicator {
	streams := make([]*streamWorker, len(data))
	for i, ep := range data {
		streams[i] = newStreamWorker(i, ep, dir, queueLen, log, m)
	}
	cw := newControlWorker(control, dir, streams, threshold, queueLen, log, m)

	if m != nil {
		m.commOpened()
	}
	return &communicator{
		id:        id,
		direction: dir,
		streams:   streams,
		control:   cw,
		registry:  registry,
		metrics:   m,
	}
}

// submit registers a new request against the Engine's shared request
// registry and hands (buf, state) to the communicator's ControlWorker,
// implementing isend/irecv (§4.5, §6). On the receive side buf must
// already be sized to the caller's expected maximum message length (§7
// buffer lifetime).
func (c *communicator) submit(buf []byte) (int64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	id, state := c.registry.register(c.direction)
	c.control.enqueue(controlJob{buf: buf, state: state})
	return id, nil
}

// close stops the ControlWorker and every StreamWorker, in that order,
// then closes their endpoints (§4.5 "close_send / close_recv"). Each
// worker first finishes the jobs already in its queue, so close returns
// only after those transfers have completed or failed; close itself does
// not fail queued requests.
func (c *communicator) close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.control.close()
	for _, s := range c.streams {
		s.close()
	}

	var firstErr error
	if err := c.control.ep.close(); err != nil && firstErr == nil {
		firstErr = err
	}
	for _, s := range c.streams {
		if err := s.ep.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.metrics != nil {
		c.metrics.commClosed()
	}
	return firstErr
}
