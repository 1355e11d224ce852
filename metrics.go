package goOTT

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by goOTT APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricOneTimeTokenGenerated counts tokens issued and persisted.
	MetricOneTimeTokenGenerated MetricID = iota
	// MetricOneTimeTokenGenerateForbidden counts generation calls rejected because they came from a network client.
	MetricOneTimeTokenGenerateForbidden
	// MetricOneTimeTokenGenerateFailure counts generation calls that failed in the generator, the storage transform or the store.
	MetricOneTimeTokenGenerateFailure
	// MetricOneTimeTokenVerified counts successful redemptions.
	MetricOneTimeTokenVerified
	// MetricOneTimeTokenInvalid counts redemptions of unknown or malformed tokens.
	MetricOneTimeTokenInvalid
	// MetricOneTimeTokenExpired counts redemptions of expired tokens.
	MetricOneTimeTokenExpired
	// MetricOneTimeTokenReplayRejected counts redemptions that lost the consume race to a concurrent redeemer.
	MetricOneTimeTokenReplayRejected
	// MetricOneTimeTokenSessionNotFound counts redemptions whose bound session no longer resolves.
	MetricOneTimeTokenSessionNotFound
	// MetricOneTimeTokenVerifyFailure counts redemptions that failed on a store, transport or session error.
	MetricOneTimeTokenVerifyFailure
	// MetricSessionCreated counts successor sessions minted by redemption.
	MetricSessionCreated
	// MetricVerifyLatency is the latency histogram of VerifyOneTimeToken.
	MetricVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// one counter per cache line so hot outcome counters do not false-share
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine's outcome counters and the optional verify latency
// histogram. All methods are safe for concurrent use and are no-ops on a nil
// or disabled instance.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	latency       metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and, when enabled,
// the latency histogram buckets (<=5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, +Inf).
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id. Unknown ids are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only [MetricVerifyLatency]
// carries a histogram; other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricVerifyLatency {
		return
	}
	atomic.AddUint64(&m.latency.buckets[bucketIndex(d)], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies the current counter and histogram values. A disabled or nil
// Metrics yields empty maps. Safe for concurrent use with Inc and Observe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.latency.buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
