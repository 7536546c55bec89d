// Package metrics records payment request lifecycle events.
package metrics

import (
	"strconv"
	"time"
)

// Event names recorded by the client, poller and checkout packages.
const (
	EventRequestCreated  = "request_created"
	EventRequestFailed   = "request_failed"
	EventPollTick        = "poll_tick"
	EventPollError       = "poll_error"
	EventSettled         = "settled"
	EventSettlementTimed = "settlement_timed_out"

	// EventWatchStarted and EventWatchStopped bracket one settlement watch.
	// Recorders that keep gauges track active watches from them.
	EventWatchStarted = "watch_started"
	EventWatchStopped = "watch_stopped"
)

// LabelChain is the label key carrying the chain registry id.
const LabelChain = "chain"

// ChainLabels returns the labels for events on the chain with registry id id.
func ChainLabels(id int) map[string]string {
	return map[string]string{LabelChain: strconv.Itoa(id)}
}

// Operation names used for latency observations.
const (
	OpCreateRequest = "create_request"
	OpGetStatus     = "get_status"
	OpSettlement    = "settlement"
)

// Recorder receives lifecycle events and operation latencies.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
