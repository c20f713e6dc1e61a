package wire

import "sync/atomic"

// MessageHistory records the provenance chain a method-event call carries
// when history recording is enabled (spec §4.6 "History"): which source
// produced it and when each hop along the way received and forwarded it.
type MessageHistory struct {
	SourceID uint64
	Timings  []int64 // nanosecond timestamps, one per hop
}

// AddTiming appends a hop timestamp and returns the receiver for chaining
// (_examples/oy3o-codec's WithByteOrder idiom).
func (h *MessageHistory) AddTiming(nanos int64) *MessageHistory {
	h.Timings = append(h.Timings, nanos)
	return h
}

var currentHistory atomic.Pointer[MessageHistory]

// CurrentMessageHistory returns the process-wide default MessageHistory,
// creating an empty one on first use. Per DESIGN NOTES §9's "provide a
// thread-local default only at the transport boundary", this module
// deliberately keeps one process-wide instance rather than simulating
// Java's per-thread history — Go's goroutines have no equivalent locality
// primitive, and a transport layer wanting isolation should call
// SetMessageHistory at its own boundary.
func CurrentMessageHistory() *MessageHistory {
	if h := currentHistory.Load(); h != nil {
		return h
	}
	h := &MessageHistory{}
	currentHistory.CompareAndSwap(nil, h)
	return currentHistory.Load()
}

// SetMessageHistory replaces the process-wide default.
func SetMessageHistory(h *MessageHistory) {
	currentHistory.Store(h)
}
