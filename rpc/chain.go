package rpc

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"primechain/core"
	"primechain/interfaces"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
)

type ChainAPI struct {
	blockchain *core.Blockchain
	engine     interfaces.Engine
}

func NewChainAPI(blockchain *core.Blockchain, engine interfaces.Engine) *ChainAPI {
	return &ChainAPI{
		blockchain: blockchain,
		engine:     engine,
	}
}

// HeadInfo menggambarkan ujung chain.
type HeadInfo struct {
	Number hexutil.Uint64 `json:"number"`
	Hash   common.Hash    `json:"hash"`
	Length int            `json:"length"`
	Block  *core.Block    `json:"block"`
}

// VerifyResult adalah hasil pemeriksaan seluruh chain.
type VerifyResult struct {
	Valid  bool   `json:"valid"`
	Length int    `json:"length"`
	Error  string `json:"error,omitempty"`
}

func (api *ChainAPI) head() (*HeadInfo, error) {
	block := api.blockchain.GetCurrentBlock()
	if block == nil {
		return nil, fmt.Errorf("chain has no blocks")
	}
	return &HeadInfo{
		Number: hexutil.Uint64(block.Number),
		Hash:   block.Hash(),
		Length: api.blockchain.Length(),
		Block:  block,
	}, nil
}

func (api *ChainAPI) verify() *VerifyResult {
	res := &VerifyResult{Length: api.blockchain.Length()}
	if err := api.blockchain.Verify(api.engine); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Valid = true
	return res
}

func (api *ChainAPI) HeadHandler(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "GET") {
		return
	}
	info, err := api.head()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (api *ChainAPI) BlockByNumberHandler(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "GET") {
		return
	}
	number, err := parseBlockNumber(mux.Vars(r)["number"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	block := api.blockchain.GetBlockByNumber(number)
	if block == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("block %d not found", number))
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (api *ChainAPI) BlockByHashHandler(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "GET") {
		return
	}
	hash, err := parseHash(mux.Vars(r)["hash"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	block := api.blockchain.GetBlockByHash(hash)
	if block == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("block %s not found", hash.Hex()))
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (api *ChainAPI) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "GET") {
		return
	}
	writeJSON(w, http.StatusOK, api.verify())
}

// parseBlockNumber menerima desimal atau hex berawalan 0x.
func parseBlockNumber(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := hexutil.DecodeUint64(strings.ToLower(s[:2]) + s[2:])
		if err != nil {
			return 0, fmt.Errorf("invalid block number %q: %w", s, err)
		}
		return n, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block number %q", s)
	}
	return n, nil
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash %q: want %d bytes, got %d", s, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}
