// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import (
	"os"
	"strconv"
)

// Fixed constants (§4.8, §6) — never environment-configurable.
const (
	MaxComms      = 65536
	ListenBacklog = 16384

	defaultNStreams           = 2
	defaultTaskSplitThreshold = 1 << 20 // 1,048,576 bytes
)

// Config holds the values read once from the environment at Engine
// construction (§6 "Configuration (environment variables)").
type Config struct {
	// Rank is the caller-assigned process identifier. It is used only
	// for log/metric labeling; the engine never interprets it.
	Rank int

	// NStreams is the number of data streams per communicator (N ≥ 1).
	NStreams int

	// TaskSplitThreshold is the payload size, in bytes, at or above
	// which striping across data endpoints is enabled (§4.4).
	TaskSplitThreshold int64

	// JaegerAddress and PrometheusAddress are stored for a telemetry
	// collaborator to read; this module never dials either (§1 scope).
	JaegerAddress     string
	PrometheusAddress string
}

// DefaultConfig returns the documented defaults with no environment
// variables applied.
func DefaultConfig() Config {
	return Config{
		NStreams:           defaultNStreams,
		TaskSplitThreshold: defaultTaskSplitThreshold,
	}
}

// ConfigFromEnv reads the documented BAGUA_NET_* environment variables
// (and RANK) over DefaultConfig, leaving any unset or unparsable
// variable at its default.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("RANK"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Rank = n
		}
	}
	if v, ok := os.LookupEnv("BAGUA_NET_NSTREAMS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NStreams = n
		}
	}
	if v, ok := os.LookupEnv("BAGUA_NET_TASK_SPLIT_THRESHOLD"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.TaskSplitThreshold = n
		}
	}
	cfg.JaegerAddress = os.Getenv("BAGUA_NET_JAEGER_ADDRESS")
	cfg.PrometheusAddress = os.Getenv("BAGUA_NET_PROMETHEUS_ADDRESS")

	return cfg
}

// Option configures an Engine at construction time, in the same
// functional-option style used throughout this package's ancestry.
type Option func(*engineOptions)

type engineOptions struct {
	logger    *zapLoggerOrNil
	metrics   *Metrics
	enumer    DeviceEnumerator
}

// WithLogger attaches a Logger (e.g. one built by NewZapLogger) to the
// Engine and everything it
// constructs (Communicators, ControlWorkers, StreamWorkers). When not
// supplied, a no-op logger is used.
func WithLogger(l Logger) Option {
	return func(o *engineOptions) { o.logger = &zapLoggerOrNil{l: l} }
}

// WithMetrics attaches a pre-built Metrics collector, e.g. one
// registered against a caller-owned prometheus.Registerer. When not
// supplied, the Engine builds its own collector against a private
// registry.
func WithMetrics(m *Metrics) Option {
	return func(o *engineOptions) { o.metrics = m }
}

// WithDeviceEnumerator substitutes the default net.Interfaces()-backed
// device discovery (§1: out of scope, specified only by interface).
func WithDeviceEnumerator(e DeviceEnumerator) Option {
	return func(o *engineOptions) { o.enumer = e }
}

// zapLoggerOrNil boxes a Logger so engineOptions can distinguish
// "not set" (nil *zapLoggerOrNil) from "explicitly set to a no-op
// logger" without importing zap here.
type zapLoggerOrNil struct{ l Logger }
