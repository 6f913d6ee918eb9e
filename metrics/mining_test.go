package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiningCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc := NewMiningCollector(reg)

	mc.CandidatesTested(10)
	mc.CandidatesTested(5)
	mc.BlockMined(250*time.Millisecond, 2)
	mc.ChainHeight(7)

	assert.Equal(t, float64(15), testutil.ToFloat64(mc.candidatesTested))
	assert.Equal(t, float64(1), testutil.ToFloat64(mc.blocksMined))
	assert.Equal(t, float64(2), testutil.ToFloat64(mc.nonceWidth))
	assert.Equal(t, float64(7), testutil.ToFloat64(mc.chainHeight))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMiningCollector(reg)
	assert.Panics(t, func() { NewMiningCollector(reg) })
}
