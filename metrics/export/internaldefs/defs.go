package internaldefs

import (
	goOTT "github.com/MrEthical07/goOTT"
)

// CounterDef defines a public type used by goOTT APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goOTT.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goOTT APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goOTT.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: goOTT.MetricOneTimeTokenGenerated, Name: "goott_one_time_token_generated_total", Help: "One-time tokens issued."},
	{ID: goOTT.MetricOneTimeTokenGenerateForbidden, Name: "goott_one_time_token_generate_forbidden_total", Help: "Generation calls rejected for client origin."},
	{ID: goOTT.MetricOneTimeTokenGenerateFailure, Name: "goott_one_time_token_generate_failure_total", Help: "Generation calls that failed internally."},
	{ID: goOTT.MetricOneTimeTokenVerified, Name: "goott_one_time_token_verified_total", Help: "Successful redemptions."},
	{ID: goOTT.MetricOneTimeTokenInvalid, Name: "goott_one_time_token_invalid_total", Help: "Redemptions of unknown or malformed tokens."},
	{ID: goOTT.MetricOneTimeTokenExpired, Name: "goott_one_time_token_expired_total", Help: "Redemptions of expired tokens."},
	{ID: goOTT.MetricOneTimeTokenReplayRejected, Name: "goott_one_time_token_replay_rejected_total", Help: "Redemptions that lost the consume race."},
	{ID: goOTT.MetricOneTimeTokenSessionNotFound, Name: "goott_one_time_token_session_not_found_total", Help: "Redemptions whose session no longer resolves."},
	{ID: goOTT.MetricOneTimeTokenVerifyFailure, Name: "goott_one_time_token_verify_failure_total", Help: "Redemptions that failed internally."},
	{ID: goOTT.MetricSessionCreated, Name: "goott_session_created_total", Help: "Successor sessions minted by redemption."},
}

// HistogramDefs lists every engine histogram.
var HistogramDefs = []HistogramDef{
	{ID: goOTT.MetricVerifyLatency, Name: "goott_verify_latency_seconds", Help: "VerifyOneTimeToken latency histogram."},
}

// AuditDroppedName is the counter of audit events lost to backpressure.
const AuditDroppedName = "goott_audit_dropped_total"

// AuditDroppedHelp is the help text for [AuditDroppedName].
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth
// engine bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket for exporters without native histograms.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size bucket array. Missing buckets are zero.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
