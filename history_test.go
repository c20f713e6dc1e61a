package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageHistoryAddTimingChains(t *testing.T) {
	h := &MessageHistory{SourceID: 7}
	h.AddTiming(100).AddTiming(200).AddTiming(300)
	assert.Equal(t, []int64{100, 200, 300}, h.Timings)
}

func TestCurrentMessageHistoryDefaultsToEmpty(t *testing.T) {
	defer SetMessageHistory(nil)
	SetMessageHistory(nil)

	h := CurrentMessageHistory()
	require.NotNil(t, h)
	assert.Zero(t, h.SourceID)
	assert.Empty(t, h.Timings)
}

func TestSetMessageHistoryReplacesDefault(t *testing.T) {
	defer SetMessageHistory(nil)
	want := &MessageHistory{SourceID: 42, Timings: []int64{1, 2}}
	SetMessageHistory(want)
	assert.Same(t, want, CurrentMessageHistory())
}
