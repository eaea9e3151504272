// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import "sync"

// Direction distinguishes a send request from a receive request.
type Direction uint8

const (
	DirSend Direction = iota + 1
	DirRecv
)

// requestState is the (nsubtasks, completed_subtasks, nbytes_transferred)
// triple from §3, mutated under a single mutex so that a reader of the
// completion flag never observes a partially updated byte count — the
// three fields are always advanced together inside the same critical
// section (§3 invariant, §9 design note on atomic alternatives: a mutex
// is used here specifically because the invariant requires that
// completion and the final byte count become visible atomically, which
// a bare pair of independent atomics cannot guarantee).
type requestState struct {
	mu sync.Mutex

	nsubtasks         int
	completedSubtasks int
	nbytesTransferred int64

	// err records a fatal worker failure (§7 "permitted strengthening"):
	// when set, Test reports it alongside (false, partial bytes) instead
	// of leaving the caller to infer a stall from a request that never
	// completes.
	err error
}

// addSubtasks increments the planned subtask count, e.g. once per bucket
// as the ControlWorker splits a payload (§4.4 step 3).
func (s *requestState) addSubtasks(n int) {
	s.mu.Lock()
	s.nsubtasks += n
	s.mu.Unlock()
}

// completeSubtask records one finished subtask (a control header or one
// bucket transfer) and the bytes it moved.
func (s *requestState) completeSubtask(nbytes int) {
	s.mu.Lock()
	s.completedSubtasks++
	s.nbytesTransferred += int64(nbytes)
	s.mu.Unlock()
}

// fail records a fatal error from a worker servicing this request. The
// request's accounting is left exactly as it was: completed_subtasks
// will never again reach nsubtasks (§7), short of a future subtask
// completion that happens to close the gap before the failure is
// observed by Test, which is fine — first writer of err "wins" and Test
// always reports it once present.
func (s *requestState) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// snapshot returns (done, nbytes, err) under the mutex. A request is
// complete when completed_subtasks equals nsubtasks (§3 invariant);
// nsubtasks is seeded to 1 at creation for the control-header subtask,
// so it is never zero for a live request.
func (s *requestState) snapshot() (done bool, nbytes int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedSubtasks >= s.nsubtasks, s.nbytesTransferred, s.err
}

// newRequestState seeds nsubtasks=1 for the control-header subtask that
// every message carries (§4.4 step 4 / receive-side step 4).
func newRequestState() *requestState {
	return &requestState{nsubtasks: 1}
}

// request is the registry entry created by isend/irecv (§3).
type request struct {
	id        int64
	direction Direction
	state     *requestState
}
