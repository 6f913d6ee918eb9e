package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"primechain/interfaces"
	"primechain/logger"
	"primechain/metrics"
)

// errorBackoff adalah jeda loop miner setelah blok gagal ditambang.
const errorBackoff = time.Second

// MinerStats adalah ringkasan aktivitas miner.
type MinerStats struct {
	IsActive       bool   `json:"isActive"`
	BlocksFound    uint64 `json:"blocksFound"`
	LastDuration   string `json:"lastDuration"`
	LastAttempts   uint64 `json:"lastAttempts"`   // kandidat yang diuji untuk blok terakhir
	LastNonceWidth int    `json:"lastNonceWidth"` // byte
	LastError      string `json:"lastError,omitempty"`
	StartTime      int64  `json:"startTime"`
}

// Miner menyusun blok baru di atas tip chain: prefix = timestamp ∥ tip ∥
// payload, nonce dicari oleh consensus engine, lalu blok ditambahkan ke chain.
type Miner struct {
	blockchain *Blockchain
	consensus  interfaces.Engine
	payload    interfaces.PayloadSource
	metrics    metrics.MiningMetrics
	now        func() time.Time
	interval   time.Duration

	mineMu sync.Mutex // satu blok ditambang pada satu waktu

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	stats   MinerStats
}

func NewMiner(blockchain *Blockchain, consensusEngine interfaces.Engine, payload interfaces.PayloadSource, m metrics.MiningMetrics) *Miner {
	if payload == nil {
		payload = NewGrowingPayload(DefaultInitialPayloadLen)
	}
	if m == nil {
		m = metrics.NewNoopCollector()
	}
	return &Miner{
		blockchain: blockchain,
		consensus:  consensusEngine,
		payload:    payload,
		metrics:    m,
		now:        time.Now,
	}
}

// SetInterval mengatur jeda antar blok pada loop Start.
func (m *Miner) SetInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interval = d
}

// SetClock mengganti sumber waktu (dipakai test).
func (m *Miner) SetClock(now func() time.Time) {
	m.mineMu.Lock()
	defer m.mineMu.Unlock()
	m.now = now
}

// MineBlock mines one block on top of the current tip and appends it.
func (m *Miner) MineBlock(ctx context.Context) (*Block, error) {
	m.mineMu.Lock()
	defer m.mineMu.Unlock()

	if m.consensus == nil {
		return nil, errors.New("miner: consensus engine is nil")
	}
	parent := m.blockchain.GetCurrentBlock()
	if parent == nil {
		return nil, errors.New("miner: no current block, genesis missing")
	}

	number := parent.Number + 1
	timestamp := EncodeTimestamp(uint64(m.now().Unix()))
	prevHash := parent.Hash()
	data := m.payload.Next(number)

	logger.Infof("Miner: attempting block %d, payload %d bytes, prevHash %s", number, len(data), prevHash.Hex())
	startTime := time.Now()

	nonce, err := m.consensus.FindNonce(ctx, BuildPrefix(timestamp, prevHash, data))
	if err != nil {
		m.recordError(err)
		return nil, fmt.Errorf("failed to mine block %d: %w", number, err)
	}
	duration := time.Since(startTime)

	block := NewBlock(number, timestamp, prevHash, data, nonce)
	if err := m.blockchain.AddBlock(block); err != nil {
		m.recordError(err)
		return nil, fmt.Errorf("failed to add mined block %d to blockchain: %w", number, err)
	}

	m.metrics.BlockMined(duration, len(nonce))
	m.mu.Lock()
	m.stats.BlocksFound++
	m.stats.LastDuration = duration.String()
	m.stats.LastNonceWidth = len(nonce)
	if s, ok := m.consensus.(interfaces.SearchStats); ok {
		m.stats.LastAttempts = s.LastAttempts()
		m.stats.LastNonceWidth = s.LastWidth()
	}
	m.stats.LastError = ""
	m.mu.Unlock()

	logger.Infof("Miner: block %d mined in %v, nonce=%x, hash=%s", number, duration, nonce, block.Hash().Hex())
	return block, nil
}

func (m *Miner) recordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.LastError = err.Error()
}

// Run mines n blocks synchronously. n == 0 mines until ctx is done, in which
// case ctx.Err() is not reported as a failure.
func (m *Miner) Run(ctx context.Context, n int) ([]*Block, error) {
	var mined []*Block
	for i := 0; n == 0 || i < n; i++ {
		block, err := m.MineBlock(ctx)
		if err != nil {
			if n == 0 && ctx.Err() != nil {
				return mined, nil
			}
			return mined, err
		}
		mined = append(mined, block)
	}
	return mined, nil
}

func (m *Miner) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		logger.Info("Miner already running.")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.cancel = cancel
	m.done = make(chan struct{})
	m.stats.IsActive = true
	m.stats.StartTime = time.Now().Unix()
	interval := m.interval
	done := m.done
	m.mu.Unlock()

	logger.Info("Starting miner loop.")

	go func() {
		defer close(done)
		for {
			if _, err := m.MineBlock(ctx); err != nil {
				if ctx.Err() != nil {
					logger.Info("Miner stopping work loop.")
					return
				}
				logger.Errorf("Miner: %v", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(errorBackoff):
				}
				continue
			}
			if interval <= 0 {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			select {
			case <-ctx.Done():
				logger.Info("Miner stopping work loop.")
				return
			case <-time.After(interval):
			}
		}
	}()
}

// Stop membatalkan pencarian yang sedang berjalan dan menunggu loop selesai.
func (m *Miner) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		logger.Info("Miner is not running.")
		return
	}
	logger.Info("Stopping miner...")
	m.cancel()
	done := m.done
	m.running = false
	m.stats.IsActive = false
	m.mu.Unlock()

	<-done
	logger.Info("Miner stopped.")
}

func (m *Miner) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Miner) Stats() MinerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
