package datadog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movieetl/internal/metrics"
)

func TestNewBackendRequiresAddr(t *testing.T) {
	t.Parallel()

	b, err := NewBackend(Config{})
	assert.Error(t, err)
	assert.Nil(t, b)
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	assert.Nil(t, labelsToTags(nil))
	assert.Equal(t,
		[]string{"job:movies", "reason:adult"},
		labelsToTags(metrics.Labels{"reason": "adult", "job": "movies"}))
}

// TestBackendOverUDP sends to a local UDP port; DogStatsD over UDP is
// fire-and-forget, so no agent has to listen.
func TestBackendOverUDP(t *testing.T) {
	t.Parallel()

	b, err := NewBackend(Config{
		Addr:       "127.0.0.1:8125",
		Namespace:  "movieetl.",
		GlobalTags: []string{"env:test"},
	})
	require.NoError(t, err)

	b.IncCounter(metrics.RecordsTotal, 3, metrics.Labels{"kind": metrics.KindStored})
	b.ObserveHistogram(metrics.FlushDuration, 0.1, nil)
	assert.NoError(t, b.Flush())
}

func TestZeroBackendIsNoop(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.BatchesTotal, 1, nil)
	b.ObserveHistogram(metrics.BatchRows, 1, nil)
	assert.NoError(t, b.Flush())
}
