package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectors(t *testing.T) {
	before := testutil.ToFloat64(RoomsDestroyed.WithLabelValues(DestroyReasonEmpty))
	RoomsDestroyed.WithLabelValues(DestroyReasonEmpty).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RoomsDestroyed.WithLabelValues(DestroyReasonEmpty)))

	RoomsActive.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(RoomsActive))
}
