// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

// bucketJob is one (buffer_slice, request_state) pair dispatched by a
// ControlWorker to a StreamWorker (§4.3). The slice is not owned by the
// worker — the host caller guarantees it outlives the request (§7
// "Buffer lifetime").
type bucketJob struct {
	buf   []byte
	state *requestState
}

// streamWorker is one background goroutine per data-plane endpoint
// (§4.3). Its direction is fixed at creation; it performs one
// full-length transfer per queued job and stops cleanly when its queue
// is closed, after draining whatever is already buffered.
type streamWorker struct {
	id        int
	ep        *endpoint
	direction Direction
	queue     chan bucketJob
	done      chan struct{}

	log     Logger
	metrics *Metrics
}

func newStreamWorker(id int, ep *endpoint, dir Direction, queueLen int, log Logger, m *Metrics) *streamWorker {
	w := &streamWorker{
		id:        id,
		ep:        ep,
		direction: dir,
		queue:     make(chan bucketJob, queueLen),
		done:      make(chan struct{}),
		log:       log,
		metrics:   m,
	}
	go w.run()
	return w
}

// enqueue hands one bucket to the worker. Callers (the ControlWorker)
// must not call enqueue after close.
func (w *streamWorker) enqueue(job bucketJob) { w.queue <- job }

// close signals the worker to drain and exit; it does not close the
// endpoint itself since ownership of the endpoint's lifetime belongs to
// the Communicator (§4.5).
func (w *streamWorker) close() {
	close(w.queue)
	<-w.done
}

func (w *streamWorker) run() {
	defer close(w.done)

	for job := range w.queue {
		var (
			err error
		)
		if w.direction == DirSend {
			err = w.ep.writeAll(job.buf)
		} else {
			err = w.ep.readExact(job.buf)
		}

		if err != nil {
			wrapped := IOErrorf(CodeIOUnknown, err, "stream worker %d transfer failed", w.id)
			job.state.fail(wrapped)
			w.log.Errorw("stream worker transfer failed", "worker", w.id, "err", wrapped)
			// drainFailing keeps receiving from the queue until close,
			// failing each later job's request rather than silently
			// dropping it.
			w.drainFailing(wrapped)
			return
		}

		job.state.completeSubtask(len(job.buf))
		if w.metrics != nil {
			if w.direction == DirSend {
				w.metrics.addSent(len(job.buf))
			} else {
				w.metrics.addRecv(len(job.buf))
			}
		}
	}
}

// drainFailing marks every already-queued job failed with err once this
// worker's endpoint has died, so their owning requests do not hang
// forever without at least the strengthened Test() error (§7).
func (w *streamWorker) drainFailing(err error) {
	for job := range w.queue {
		job.state.fail(err)
	}
}
