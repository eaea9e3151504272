// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import (
	"sync"

	"go.uber.org/atomic"
)

// workerQueueLen bounds how many jobs may sit ahead of a worker before
// enqueue blocks. It is not part of the host-visible contract (§5:
// isend/irecv never block on I/O, only briefly on this channel send
// when a worker has fallen far behind).
const workerQueueLen = 64

// Properties is the result of GetProperties (§6 get_properties).
type Properties struct {
	Name       string
	PCIPath    string
	GUID       int
	PtrSupport PtrSupport
	SpeedMbps  int
	Port       int
	MaxComms   int
}

// Engine is the top-level facade (§4.8): it owns the enumerated device
// list, every listener/communicator/request registry, and the
// monotonically increasing id counters backing each of the four
// namespaces.
type Engine struct {
	cfg     Config
	log     Logger
	metrics *Metrics
	enumer  DeviceEnumerator

	devices []DeviceDescriptor

	nextListenerID atomic.Int64
	nextSendID     atomic.Int64
	nextRecvID     atomic.Int64

	mu        sync.Mutex
	listeners map[int64]*listener
	sends     map[int64]*communicator
	recvs     map[int64]*communicator

	requests *requestRegistry
}

// NewEngine constructs an Engine from cfg and applies opts, enumerating
// devices once via the configured (or default) DeviceEnumerator (§4.8).
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	// §3 NStreams "N ≥ 1": with a zero or negative value splitBuckets or
	// dispatch would panic inside a ControlWorker once the first non-empty
	// message is dispatched, so it is rejected here instead.
	if cfg.NStreams < 1 {
		return nil, InnerErrorf(CodeInnerUnknown, nil, "config: NStreams must be >= 1, got %d", cfg.NStreams)
	}
	if cfg.TaskSplitThreshold < 0 {
		return nil, InnerErrorf(CodeInnerUnknown, nil, "config: TaskSplitThreshold must be >= 0, got %d", cfg.TaskSplitThreshold)
	}

	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	enumer := o.enumer
	if enumer == nil {
		enumer = DefaultEnumerator{}
	}
	metrics := o.metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	devices, err := enumer.Devices()
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		log:       resolveLogger(o.logger),
		metrics:   metrics,
		enumer:    enumer,
		devices:   devices,
		listeners: make(map[int64]*listener),
		sends:     make(map[int64]*communicator),
		recvs:     make(map[int64]*communicator),
		requests:  newRequestRegistry(metrics),
	}, nil
}

// Devices returns the number of enumerated devices (§6 devices()).
func (e *Engine) Devices() int {
	return len(e.devices)
}

// GetProperties returns the static properties of device devID (§6
// get_properties). GUID is the device index itself, matching the
// source's convention that GUID and dev_id coincide for this transport.
func (e *Engine) GetProperties(devID int) (Properties, error) {
	if devID < 0 || devID >= len(e.devices) {
		return Properties{}, InnerErrorf(CodeInnerUnknown, nil, "get_properties: device %d out of range", devID)
	}
	d := e.devices[devID]
	return Properties{
		Name:       d.Name,
		PCIPath:    d.PCIPath,
		GUID:       devID,
		PtrSupport: HostOnly,
		SpeedMbps:  d.SpeedMbps,
		Port:       0,
		MaxComms:   MaxComms,
	}, nil
}

// Listen opens a passive socket bound to device devID's address and
// returns the handle a peer dials and the listen_comm_id used by Accept
// and CloseListen (§6 listen).
func (e *Engine) Listen(devID int) (SocketHandle, int64, error) {
	if devID < 0 || devID >= len(e.devices) {
		return SocketHandle{}, 0, InnerErrorf(CodeInnerUnknown, nil, "listen: device %d out of range", devID)
	}
	addr := e.devices[devID].Addr

	id := e.nextListenerID.Add(1)
	ln, err := newListener(id, devID, e.cfg.NStreams, addr)
	if err != nil {
		return SocketHandle{}, 0, err
	}

	e.mu.Lock()
	e.listeners[id] = ln
	e.mu.Unlock()

	e.log.Infow("listening", "listener_id", id, "device", devID, "addr", ln.handle.addr())
	return ln.handle, id, nil
}

// Connect dials the NStreams+1 connections a peer's Listen/Accept pair
// is waiting for, in the fixed order the wire protocol requires: data
// endpoints first, control endpoint last (§6 connect).
func (e *Engine) Connect(handle SocketHandle) (int64, error) {
	e.mu.Lock()
	n := len(e.sends)
	e.mu.Unlock()
	if n >= MaxComms {
		return 0, ErrTooManyComms
	}

	data := make([]*endpoint, 0, e.cfg.NStreams)
	for i := 0; i < e.cfg.NStreams; i++ {
		ep, err := dialEndpoint(handle)
		if err != nil {
			closeAll(data, nil)
			return 0, err
		}
		data = append(data, ep)
	}
	control, err := dialEndpoint(handle)
	if err != nil {
		closeAll(data, nil)
		return 0, err
	}

	id := e.nextSendID.Add(1)
	comm := newCommunicator(id, DirSend, data, control, e.cfg.TaskSplitThreshold, workerQueueLen, e.log, e.metrics, e.requests)

	e.mu.Lock()
	e.sends[id] = comm
	e.mu.Unlock()

	e.log.Infow("connected", "send_comm_id", id, "addr", handle.addr())
	return id, nil
}

// Accept completes a prior Listen by pulling one peer's connections off
// the listener and building a RecvCommunicator (§6 accept). The
// listener remains open and may accept additional peers until
// CloseListen.
func (e *Engine) Accept(listenCommID int64) (int64, error) {
	e.mu.Lock()
	ln, ok := e.listeners[listenCommID]
	n := len(e.recvs)
	e.mu.Unlock()
	if !ok {
		return 0, ErrNotFound
	}
	if n >= MaxComms {
		return 0, ErrTooManyComms
	}

	data, control, err := ln.accept()
	if err != nil {
		return 0, err
	}

	id := e.nextRecvID.Add(1)
	comm := newCommunicator(id, DirRecv, data, control, e.cfg.TaskSplitThreshold, workerQueueLen, e.log, e.metrics, e.requests)

	e.mu.Lock()
	e.recvs[id] = comm
	e.mu.Unlock()

	e.log.Infow("accepted", "recv_comm_id", id, "listener_id", listenCommID)
	return id, nil
}

// Isend submits buf for transmission on sendCommID and returns a
// request id to poll with Test (§6 isend). buf must remain valid and
// unmodified until Test reports completion (§7 buffer lifetime).
func (e *Engine) Isend(sendCommID int64, buf []byte) (int64, error) {
	e.mu.Lock()
	comm, ok := e.sends[sendCommID]
	e.mu.Unlock()
	if !ok {
		return 0, ErrNotFound
	}
	return comm.submit(buf)
}

// Irecv submits buf to receive into on recvCommID (§6 irecv). buf's
// capacity must be at least as large as the sender's next message; a
// shorter buffer fails the request with CodeIOShortTransfer.
func (e *Engine) Irecv(recvCommID int64, buf []byte) (int64, error) {
	e.mu.Lock()
	comm, ok := e.recvs[recvCommID]
	e.mu.Unlock()
	if !ok {
		return 0, ErrNotFound
	}
	return comm.submit(buf)
}

// Test polls a request's progress (§6 test). It never blocks: it reads
// the short-lived RequestState mutex and returns. Once it reports
// done==true the request id is retired and a later Test on the same id
// returns ErrNotFound (§8 property 8). A failed request that has not
// completed stays registered and keeps reporting its error.
func (e *Engine) Test(requestID int64) (done bool, nbytesTransferred int64, err error) {
	done, nbytes, reqErr, pollErr := e.requests.poll(requestID)
	if pollErr != nil {
		return false, 0, pollErr
	}
	return done, nbytes, reqErr
}

// CloseSend tears down a SendCommunicator (§6 close_send).
func (e *Engine) CloseSend(sendCommID int64) error {
	e.mu.Lock()
	comm, ok := e.sends[sendCommID]
	delete(e.sends, sendCommID)
	e.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return comm.close()
}

// CloseRecv tears down a RecvCommunicator (§6 close_recv).
func (e *Engine) CloseRecv(recvCommID int64) error {
	e.mu.Lock()
	comm, ok := e.recvs[recvCommID]
	delete(e.recvs, recvCommID)
	e.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return comm.close()
}

// CloseListen stops accepting new peers on a listener (§6 close_listen).
// Communicators already built from a prior Accept on this listener are
// unaffected.
func (e *Engine) CloseListen(listenCommID int64) error {
	e.mu.Lock()
	ln, ok := e.listeners[listenCommID]
	delete(e.listeners, listenCommID)
	e.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return ln.close()
}
