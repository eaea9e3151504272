// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import "encoding/binary"

// headerLen is the fixed 8-byte big-endian length header every
// application message carries on the control endpoint (§4.4, §6 wire
// protocol). The payload itself never travels on the control endpoint.
const headerLen = 8

// controlJob is one (buffer, request_state) pair submitted to a
// controlWorker. On the send side buf is the whole payload to transmit;
// on the receive side buf is caller-supplied storage with capacity for
// the largest message the caller expects — the actual received length L
// is learned from the header and must not exceed len(buf).
type controlJob struct {
	buf   []byte
	state *requestState
}

// controlWorker is the one background goroutine per communicator that
// owns the control-plane endpoint (§4.4). It frames every message with
// the 8-byte header, splits the body into buckets, and dispatches
// buckets round-robin onto the communicator's streamWorkers. The
// round-robin cursor persists across messages for the life of the
// communicator (§4.4 "Tie-breaks").
type controlWorker struct {
	ep        *endpoint
	direction Direction
	streams   []*streamWorker
	threshold int64
	cursor    int

	queue   chan controlJob
	done    chan struct{}
	log     Logger
	metrics *Metrics
}

func newControlWorker(ep *endpoint, dir Direction, streams []*streamWorker, threshold int64, queueLen int, log Logger, m *Metrics) *controlWorker {
	w := &controlWorker{
		ep:        ep,
		direction: dir,
		streams:   streams,
		threshold: threshold,
		queue:     make(chan controlJob, queueLen),
		done:      make(chan struct{}),
		log:       log,
		metrics:   m,
	}
	go w.run()
	return w
}

func (w *controlWorker) enqueue(job controlJob) { w.queue <- job }

func (w *controlWorker) close() {
	close(w.queue)
	<-w.done
}

func (w *controlWorker) run() {
	defer close(w.done)

	var hdr [headerLen]byte
	for job := range w.queue {
		if err := w.processOne(job, hdr[:]); err != nil {
			job.state.fail(err)
			w.log.Errorw("control worker failed", "err", err)
			w.drainFailing(err)
			return
		}
	}
}

// processOne runs the send- or receive-side algorithm in §4.4 for one
// application message.
func (w *controlWorker) processOne(job controlJob, hdr []byte) error {
	if w.direction == DirSend {
		binary.BigEndian.PutUint64(hdr, uint64(len(job.buf)))
		if err := w.ep.writeAll(hdr); err != nil {
			return IOErrorf(CodeIOUnknown, err, "write control header")
		}
		w.dispatch(job.buf, job.state)
		// Control-header subtask: no payload bytes of its own (§8 property 2
		// counts only bucket bytes toward nbytes_transferred).
		job.state.completeSubtask(0)
		if w.metrics != nil {
			w.metrics.controlHeaderDone()
		}
		return nil
	}

	if err := w.ep.readExact(hdr); err != nil {
		return IOErrorf(CodeIOUnknown, err, "read control header")
	}
	length := int64(binary.BigEndian.Uint64(hdr))
	if length > int64(len(job.buf)) {
		return IOErrorf(CodeIOShortTransfer, nil, "recv buffer too small: need %d, have %d", length, len(job.buf))
	}
	if length > 0 {
		w.dispatch(job.buf[:length], job.state)
	}
	job.state.completeSubtask(0)
	if w.metrics != nil {
		w.metrics.controlHeaderDone()
	}
	return nil
}

// dispatch splits payload into buckets (§4.4 step 2/3) and enqueues each
// onto the next streamWorker in round-robin order.
func (w *controlWorker) dispatch(payload []byte, state *requestState) {
	sizes := splitBuckets(int64(len(payload)), len(w.streams), w.threshold)

	offset := int64(0)
	for _, sz := range sizes {
		state.addSubtasks(1)
		w.streams[w.cursor].enqueue(bucketJob{buf: payload[offset : offset+sz], state: state})
		w.cursor = (w.cursor + 1) % len(w.streams)
		offset += sz
	}
}

func (w *controlWorker) drainFailing(err error) {
	for job := range w.queue {
		job.state.fail(err)
	}
}

// splitBuckets implements the bucket-size rule of §4.4 step 2:
//
//	bucket_size = ceil(length/n) when length >= threshold and length > n,
//	otherwise a single bucket covering the whole payload.
//
// The correct ceiling formula is (length + n - 1) / n — the source
// revisions this is grounded on contain a latent integer-precedence bug
// (length + (n-1)/n) that this implementation deliberately does not
// reproduce (§9 open question, resolved per §8 property tests).
func splitBuckets(length int64, n int, threshold int64) []int64 {
	if length == 0 {
		return nil
	}
	if length < threshold || length <= int64(n) {
		return []int64{length}
	}

	bucketSize := (length + int64(n) - 1) / int64(n)
	sizes := make([]int64, 0, n)
	remaining := length
	for remaining > 0 {
		sz := bucketSize
		if sz > remaining {
			sz = remaining
		}
		sizes = append(sizes, sz)
		remaining -= sz
	}
	return sizes
}
