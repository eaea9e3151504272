// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the Engine's local instrumentation (§1, §4.8): counters and
// gauges tracking bytes moved and outstanding work. Exporting or pushing
// these to a collector is out of scope — BAGUA_NET_PROMETHEUS_ADDRESS is
// read into Config for a collaborator to act on, but this package never
// dials it. Metric counters use the prometheus client's own internal
// synchronization (§5), so no additional locking is needed here.
type Metrics struct {
	reg prometheus.Registerer

	bytesSent      prometheus.Counter
	bytesRecv      prometheus.Counter
	commsActive    prometheus.Gauge
	requestsInFly  prometheus.Gauge
	controlHeaders prometheus.Counter
}

// NewMetrics builds a Metrics collector registered against reg. Passing
// nil registers against a private registry created for this call, so
// multiple Engines in the same process (e.g. in tests) never collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		reg: reg,
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcpstripe_bytes_sent_total",
			Help: "Total payload bytes written across all data endpoints.",
		}),
		bytesRecv: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcpstripe_bytes_received_total",
			Help: "Total payload bytes read across all data endpoints.",
		}),
		commsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tcpstripe_communicators_active",
			Help: "Number of open send+recv communicators.",
		}),
		requestsInFly: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tcpstripe_requests_in_flight",
			Help: "Number of requests registered but not yet completed.",
		}),
		controlHeaders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcpstripe_control_headers_total",
			Help: "Total control-plane message headers written or read.",
		}),
	}
	reg.MustRegister(m.bytesSent, m.bytesRecv, m.commsActive, m.requestsInFly, m.controlHeaders)
	return m
}

func (m *Metrics) addSent(n int)      { m.bytesSent.Add(float64(n)) }
func (m *Metrics) addRecv(n int)      { m.bytesRecv.Add(float64(n)) }
func (m *Metrics) commOpened()        { m.commsActive.Inc() }
func (m *Metrics) commClosed()        { m.commsActive.Dec() }
func (m *Metrics) requestOpened()     { m.requestsInFly.Inc() }
func (m *Metrics) requestResolved()   { m.requestsInFly.Dec() }
func (m *Metrics) controlHeaderDone() { m.controlHeaders.Inc() }
