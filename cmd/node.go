package cmd

import (
	"fmt"

	"primechain/cache"
	"primechain/config"
	"primechain/consensus"
	"primechain/core"
	"primechain/database"
	"primechain/logger"
	"primechain/metrics"
	"primechain/primality"

	"github.com/prometheus/client_golang/prometheus"
)

// node mengumpulkan komponen yang dipakai bersama oleh sub-perintah.
type node struct {
	cfg        *config.Config
	registry   *prometheus.Registry // nil bila metrik dimatikan
	oracle     *primality.Oracle
	engine     *consensus.ProofOfWork
	blockchain *core.Blockchain
	miner      *core.Miner
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(cfg.GetLogLevel())
	return cfg, nil
}

func newNode(cfg *config.Config) (*node, error) {
	n := &node{cfg: cfg}

	var m metrics.MiningMetrics = metrics.NewNoopCollector()
	if cfg.EnableMetrics {
		n.registry = prometheus.NewRegistry()
		m = metrics.NewMiningCollector(n.registry)
	}

	var db database.Database
	if cfg.Persist {
		ldb, err := database.NewLevelDB(cfg.GetDataSubDir("chaindata"), cfg.Cache, cfg.Handles)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db = ldb
	}

	var blockCache *cache.Cache
	if cfg.EnableCache {
		blockCache = cache.NewCache(cfg.CacheSize, cache.DefaultCleanupInterval)
	}

	genesisData, err := cfg.GetGenesisData()
	if err != nil {
		return nil, err
	}
	chainConfig := &core.Config{
		DataDir:     cfg.DataDir,
		GenesisData: genesisData,
	}
	bc, err := core.NewBlockchain(chainConfig, db, blockCache, m)
	if err != nil {
		if db != nil {
			db.Close()
		}
		if blockCache != nil {
			blockCache.Stop()
		}
		return nil, fmt.Errorf("failed to initialize blockchain: %w", err)
	}
	n.blockchain = bc

	n.oracle = primality.NewOracle(cfg.Rounds, nil)
	n.engine = consensus.NewProofOfWork(consensus.Config{
		Rounds:        cfg.Rounds,
		MaxNonceWidth: cfg.MaxNonceWidth,
		Timeout:       cfg.MiningTimeout,
		Workers:       cfg.Workers,
		ChunkSize:     cfg.ChunkSize,
	}, n.oracle, m)

	n.miner = core.NewMiner(bc, n.engine, core.NewGrowingPayload(cfg.InitialPayloadLen), m)
	n.miner.SetInterval(cfg.MiningInterval)
	return n, nil
}

func (n *node) close() {
	if err := n.blockchain.Close(); err != nil {
		logger.Errorf("Failed to close blockchain: %v", err)
	}
}
