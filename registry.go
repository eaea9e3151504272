// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import (
	"sync"

	"go.uber.org/atomic"
)

// requestRegistry is the integer-keyed table of outstanding requests
// (§4.7). IDs are monotonically increasing for the lifetime of the
// owning Engine and are never reused (§8 property 7).
type requestRegistry struct {
	nextID atomic.Int64

	mu    sync.Mutex
	items map[int64]*request

	metrics *Metrics
}

func newRequestRegistry(m *Metrics) *requestRegistry {
	return &requestRegistry{items: make(map[int64]*request), metrics: m}
}

// register creates a new request with a freshly seeded requestState and
// returns its id (§4.7 "register(direction, initial_state) returns a
// monotonically increasing id").
func (r *requestRegistry) register(dir Direction) (int64, *requestState) {
	id := r.nextID.Add(1)
	st := newRequestState()

	r.mu.Lock()
	r.items[id] = &request{id: id, direction: dir, state: st}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.requestOpened()
	}
	return id, st
}

// poll implements Engine.test (§4.7, §6): on first observed completion
// the entry is removed so that a second poll on the same id can never
// again report (true, _) (§8 property 8).
func (r *requestRegistry) poll(id int64) (done bool, nbytes int64, err error, pollErr error) {
	r.mu.Lock()
	req, ok := r.items[id]
	r.mu.Unlock()
	if !ok {
		return false, 0, nil, ErrNotFound
	}

	done, nbytes, err = req.state.snapshot()
	if done {
		r.mu.Lock()
		delete(r.items, id)
		r.mu.Unlock()
		if r.metrics != nil {
			r.metrics.requestResolved()
		}
	}
	return done, nbytes, err, nil
}
