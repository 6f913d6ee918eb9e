package rpc

import (
	"context"
	"net/http"

	"primechain/core"
	"primechain/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MinerBackend adalah bagian miner yang dipakai API mining.
type MinerBackend interface {
	Start()
	Stop()
	IsRunning() bool
	Stats() core.MinerStats
	MineBlock(ctx context.Context) (*core.Block, error)
}

var _ MinerBackend = (*core.Miner)(nil)

type MiningAPI struct {
	blockchain *core.Blockchain
	miner      MinerBackend
}

func NewMiningAPI(blockchain *core.Blockchain, miner MinerBackend) *MiningAPI {
	return &MiningAPI{
		blockchain: blockchain,
		miner:      miner,
	}
}

// MiningStats adalah statistik miner plus tinggi chain saat ini.
type MiningStats struct {
	core.MinerStats
	Height  hexutil.Uint64 `json:"height"`
	TipHash common.Hash    `json:"tipHash"`
}

func (api *MiningAPI) stats() *MiningStats {
	stats := &MiningStats{MinerStats: api.miner.Stats()}
	if block := api.blockchain.GetCurrentBlock(); block != nil {
		stats.Height = hexutil.Uint64(block.Number)
		stats.TipHash = block.Hash()
	}
	return stats
}

func (api *MiningAPI) StartHandler(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "POST") {
		return
	}
	if api.miner.IsRunning() {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "already running", "isActive": true})
		return
	}
	api.miner.Start()
	logger.Info("Mining started via API")
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "mining started", "isActive": true})
}

func (api *MiningAPI) StopHandler(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "POST") {
		return
	}
	if !api.miner.IsRunning() {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "not running", "isActive": false})
		return
	}
	api.miner.Stop()
	logger.Info("Mining stopped via API")
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "mining stopped", "isActive": false})
}

func (api *MiningAPI) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "GET") {
		return
	}
	writeJSON(w, http.StatusOK, api.stats())
}

// MineBlockHandler menambang satu blok secara sinkron. Request yang diputus
// client membatalkan pencarian nonce.
func (api *MiningAPI) MineBlockHandler(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "POST") {
		return
	}
	block, err := api.miner.MineBlock(r.Context())
	if err != nil {
		logger.Errorf("Failed to mine block via API: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, block)
}
