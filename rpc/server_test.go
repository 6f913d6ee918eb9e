package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"primechain/consensus"
	"primechain/core"
	"primechain/metrics"
	"primechain/primality"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	blockchain *core.Blockchain
	miner      *core.Miner
	server     *Server
	handler    http.Handler
}

func newTestNode(t *testing.T) *testNode {
	t.Helper()
	registry := prometheus.NewRegistry()
	collector := metrics.NewMiningCollector(registry)

	bc, err := core.NewBlockchain(&core.Config{}, nil, nil, collector)
	require.NoError(t, err)

	oracle := primality.NewOracle(primality.DefaultRounds, primality.SeededRandFactory(7))
	pow := consensus.NewProofOfWork(consensus.Config{}, oracle, collector)
	miner := core.NewMiner(bc, pow, core.FixedPayload("rpc"), collector)
	miner.SetClock(func() time.Time { return time.Unix(1700000000, 0) })

	server := NewServer(&Config{Host: "127.0.0.1", Port: 0}, bc, miner, pow, oracle, registry)
	return &testNode{
		blockchain: bc,
		miner:      miner,
		server:     server,
		handler:    server.Handler(),
	}
}

func (n *testNode) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	n.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	node := newTestNode(t)
	rec := node.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPreflight(t *testing.T) {
	node := newTestNode(t)
	rec := node.do(t, http.MethodOptions, "/api/prime/check", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Empty(t, rec.Body.String())
}

func TestChainHeadAndBlocks(t *testing.T) {
	node := newTestNode(t)
	genesis := node.blockchain.GetCurrentBlock()

	rec := node.do(t, http.MethodGet, "/api/chain/head", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var head struct {
		Number string `json:"number"`
		Hash   string `json:"hash"`
		Length int    `json:"length"`
	}
	decode(t, rec, &head)
	assert.Equal(t, "0x0", head.Number)
	assert.Equal(t, genesis.Hash().Hex(), head.Hash)
	assert.Equal(t, 1, head.Length)

	for _, path := range []string{"/api/chain/blocks/0", "/api/chain/blocks/0x0"} {
		rec = node.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		block, err := core.BlockFromJSON(rec.Body.Bytes())
		require.NoError(t, err)
		assert.Equal(t, genesis.Hash(), block.Hash())
	}

	rec = node.do(t, http.MethodGet, "/api/chain/blocks/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = node.do(t, http.MethodGet, "/api/chain/blocks/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = node.do(t, http.MethodGet, "/api/chain/hash/"+genesis.Hash().Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	block, err := core.BlockFromJSON(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), block.Number)

	rec = node.do(t, http.MethodGet, "/api/chain/hash/0x1234", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = node.do(t, http.MethodGet, "/api/chain/hash/0x"+strings.Repeat("ab", 32), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMineBlockAndVerify(t *testing.T) {
	node := newTestNode(t)
	genesis := node.blockchain.GetCurrentBlock()

	rec := node.do(t, http.MethodPost, "/api/mining/mine-block", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	block, err := core.BlockFromJSON(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), block.Number)
	assert.Equal(t, genesis.Hash(), block.PrevHash)
	assert.Equal(t, []byte("rpc"), block.Data)
	assert.True(t, primality.IsProbablyPrime(block.CandidateInt()))

	rec = node.do(t, http.MethodGet, "/api/chain/verify", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res VerifyResult
	decode(t, rec, &res)
	assert.True(t, res.Valid)
	assert.Equal(t, 2, res.Length)
	assert.Empty(t, res.Error)

	rec = node.do(t, http.MethodGet, "/api/mining/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		BlocksFound    uint64 `json:"blocksFound"`
		IsActive       bool   `json:"isActive"`
		LastAttempts   uint64 `json:"lastAttempts"`
		LastNonceWidth int    `json:"lastNonceWidth"`
		Height         string `json:"height"`
		TipHash        string `json:"tipHash"`
	}
	decode(t, rec, &stats)
	assert.Equal(t, uint64(1), stats.BlocksFound)
	assert.Equal(t, len(block.Nonce), stats.LastNonceWidth)
	assert.NotZero(t, stats.LastAttempts)
	// nonce minimal: nilai nonce + 1 kandidat diuji di width terakhir
	if stats.LastNonceWidth == 1 {
		assert.Equal(t, uint64(block.Nonce[0])+1, stats.LastAttempts)
	}
	assert.False(t, stats.IsActive)
	assert.Equal(t, "0x1", stats.Height)
	assert.Equal(t, block.Hash().Hex(), stats.TipHash)
}

func TestVerifyReportsBrokenChain(t *testing.T) {
	node := newTestNode(t)
	// blok dengan prevHash salah, ditambahkan tanpa validasi
	bad := core.NewBlock(1, core.EncodeTimestamp(1), node.blockchain.GetCurrentBlock().PrevHash, []byte("x"), []byte{0x01})
	require.NoError(t, node.blockchain.AddBlock(bad))

	rec := node.do(t, http.MethodGet, "/api/chain/verify", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res VerifyResult
	decode(t, rec, &res)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, core.ErrInvalidLink.Error())
}

func TestMiningStartStop(t *testing.T) {
	node := newTestNode(t)

	rec := node.do(t, http.MethodPost, "/api/mining/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, node.miner.IsRunning())

	require.Eventually(t, func() bool {
		return node.blockchain.Length() > 1
	}, 10*time.Second, 10*time.Millisecond)

	rec = node.do(t, http.MethodPost, "/api/mining/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, node.miner.IsRunning())

	stats := node.miner.Stats()
	assert.NotZero(t, stats.BlocksFound)
	assert.NotZero(t, stats.LastAttempts)
	assert.NotZero(t, stats.LastNonceWidth)

	rec = node.do(t, http.MethodPost, "/api/mining/stop", "")
	assert.Contains(t, rec.Body.String(), "not running")
}

func TestPrimeCheck(t *testing.T) {
	node := newTestNode(t)
	cases := []struct {
		value string
		prime bool
	}{
		{"2", true},
		{"257", true},
		{"259", false},
		{"0x101", true},
		{"0X0b", true},
		{"1", false},
		{"0", false},
		{"170141183460469231731687303715884105727", true},
		{"561", false},
	}
	for _, c := range cases {
		body, _ := json.Marshal(PrimeCheckRequest{Value: c.value})
		rec := node.do(t, http.MethodPost, "/api/prime/check", string(body))
		require.Equal(t, http.StatusOK, rec.Code, c.value)
		var res PrimeCheckResponse
		decode(t, rec, &res)
		assert.Equal(t, c.prime, res.Prime, c.value)
	}
}

func TestPrimeCheckRejectsBadInput(t *testing.T) {
	node := newTestNode(t)
	for _, body := range []string{
		`{"value": ""}`,
		`{"value": "-7"}`,
		`{"value": "0x"}`,
		`{"value": "12ab"}`,
		`{"value": "0x` + strings.Repeat("f", maxPrimeBits/4+1) + `"}`,
		`not json`,
	} {
		rec := node.do(t, http.MethodPost, "/api/prime/check", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		var res errorResponse
		decode(t, rec, &res)
		assert.NotEmpty(t, res.Error)
	}
}

func TestRequestBodyIsLimited(t *testing.T) {
	node := newTestNode(t)
	oversized := `{"value": "` + strings.Repeat("7", maxRequestBodySize) + `"}`

	rec := node.do(t, http.MethodPost, "/api/prime/check", oversized)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = node.do(t, http.MethodPost, "/", `{"jsonrpc":"2.0","id":1,"method":"prime_isProbablyPrime","params":["`+strings.Repeat("7", maxRequestBodySize)+`"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp JSONRPCResponse
	decode(t, rec, &resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32700, resp.Error.Code)
}

func TestParseInteger(t *testing.T) {
	n, err := ParseInteger(" 0xff ")
	require.NoError(t, err)
	assert.Equal(t, int64(255), n.Int64())

	n, err = ParseInteger("1000")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n.Int64())

	_, err = ParseInteger("+5")
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	node := newTestNode(t)
	rec := node.do(t, http.MethodPost, "/api/mining/mine-block", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = node.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "primechain_mining_blocks_mined_total 1")
	assert.Contains(t, body, "primechain_chain_height 1")
}

func rpcCall(t *testing.T, node *testNode, method string, params ...interface{}) JSONRPCResponse {
	t.Helper()
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(JSONRPCRequest{ID: 1, Method: method, Params: params, Version: "2.0"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	node.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp JSONRPCResponse
	decode(t, rec, &resp)
	return resp
}

func TestJSONRPC(t *testing.T) {
	node := newTestNode(t)

	resp := rpcCall(t, node, "chain_blockNumber")
	require.Nil(t, resp.Error)
	assert.Equal(t, "0x0", resp.Result)

	resp = rpcCall(t, node, "prime_isProbablyPrime", "0x101")
	require.Nil(t, resp.Error)
	assert.Equal(t, true, resp.Result)

	resp = rpcCall(t, node, "prime_isProbablyPrime", "abc")
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)

	resp = rpcCall(t, node, "prime_isProbablyPrime")
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)

	resp = rpcCall(t, node, "chain_getBlockByNumber", "latest")
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, node.blockchain.Tip().Hex(), result["hash"])

	resp = rpcCall(t, node, "chain_getBlockByNumber", "0x9")
	require.Nil(t, resp.Error)
	assert.Nil(t, resp.Result)

	resp = rpcCall(t, node, "chain_getBlockByHash", node.blockchain.Tip().Hex())
	require.Nil(t, resp.Error)
	assert.NotNil(t, resp.Result)

	resp = rpcCall(t, node, "web3_clientVersion")
	assert.Equal(t, clientVersion, resp.Result)

	resp = rpcCall(t, node, "eth_sendRawTransaction")
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}

func TestJSONRPCEnvelope(t *testing.T) {
	node := newTestNode(t)

	// blok yang tidak ada: sukses dengan result null
	rec := node.do(t, http.MethodPost, "/", `{"jsonrpc":"2.0","id":1,"method":"chain_getBlockByNumber","params":["0x9"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var fields map[string]json.RawMessage
	decode(t, rec, &fields)
	require.Contains(t, fields, "result")
	assert.Equal(t, "null", string(fields["result"]))
	assert.NotContains(t, fields, "error")

	// error tidak membawa result
	rec = node.do(t, http.MethodPost, "/", `{"jsonrpc":"2.0","id":2,"method":"nope"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	fields = nil
	decode(t, rec, &fields)
	assert.Contains(t, fields, "error")
	assert.NotContains(t, fields, "result")
}

func TestJSONRPCParseError(t *testing.T) {
	node := newTestNode(t)
	rec := node.do(t, http.MethodPost, "/", "{")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp JSONRPCResponse
	decode(t, rec, &resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32700, resp.Error.Code)
}
