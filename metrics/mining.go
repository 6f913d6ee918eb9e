package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespacePrimeChain = "primechain"
	subsystemMining     = "mining"
	subsystemChain      = "chain"
)

// MiningMetrics dipakai oleh consensus dan miner untuk melaporkan progres.
type MiningMetrics interface {
	// CandidatesTested mencatat n kandidat yang sudah diuji oracle.
	CandidatesTested(n int)
	// BlockMined mencatat satu blok selesai ditambang.
	BlockMined(duration time.Duration, nonceWidth int)
	// ChainHeight melaporkan tinggi chain saat ini.
	ChainHeight(height uint64)
}

type MiningCollector struct {
	candidatesTested prometheus.Counter
	blocksMined      prometheus.Counter
	miningDuration   prometheus.Histogram
	nonceWidth       prometheus.Gauge
	chainHeight      prometheus.Gauge
}

var _ MiningMetrics = (*MiningCollector)(nil)

func NewMiningCollector(registerer prometheus.Registerer) *MiningCollector {
	mc := &MiningCollector{
		candidatesTested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespacePrimeChain,
			Subsystem: subsystemMining,
			Name:      "candidates_tested_total",
			Help:      "number of candidate integers submitted to the primality oracle",
		}),
		blocksMined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespacePrimeChain,
			Subsystem: subsystemMining,
			Name:      "blocks_mined_total",
			Help:      "number of blocks whose nonce search succeeded",
		}),
		miningDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespacePrimeChain,
			Subsystem: subsystemMining,
			Name:      "block_duration_seconds",
			Help:      "time spent searching for a prime nonce per block",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		nonceWidth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespacePrimeChain,
			Subsystem: subsystemMining,
			Name:      "last_nonce_width_bytes",
			Help:      "byte width of the most recently accepted nonce",
		}),
		chainHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespacePrimeChain,
			Subsystem: subsystemChain,
			Name:      "height",
			Help:      "number of the chain tip block",
		}),
	}

	registerer.MustRegister(
		mc.candidatesTested,
		mc.blocksMined,
		mc.miningDuration,
		mc.nonceWidth,
		mc.chainHeight,
	)
	return mc
}

func (mc *MiningCollector) CandidatesTested(n int) {
	mc.candidatesTested.Add(float64(n))
}

func (mc *MiningCollector) BlockMined(duration time.Duration, nonceWidth int) {
	mc.blocksMined.Inc()
	mc.miningDuration.Observe(duration.Seconds())
	mc.nonceWidth.Set(float64(nonceWidth))
}

func (mc *MiningCollector) ChainHeight(height uint64) {
	mc.chainHeight.Set(float64(height))
}

// NoopCollector mengabaikan semua metrik.
type NoopCollector struct{}

var _ MiningMetrics = NoopCollector{}

func NewNoopCollector() NoopCollector { return NoopCollector{} }

func (NoopCollector) CandidatesTested(int)          {}
func (NoopCollector) BlockMined(time.Duration, int) {}
func (NoopCollector) ChainHeight(uint64)            {}
