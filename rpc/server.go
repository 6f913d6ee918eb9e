package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"primechain/core"
	"primechain/interfaces"
	"primechain/logger"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const clientVersion = "primechain/1.0.0"

type Config struct {
	Host string
	Port int
}

type Server struct {
	config     *Config
	blockchain *core.Blockchain
	gatherer   prometheus.Gatherer // nil = /metrics tidak dipasang
	server     *http.Server
	router     *mux.Router

	chainAPI  *ChainAPI
	miningAPI *MiningAPI
	primeAPI  *PrimeAPI
}

type JSONRPCRequest struct {
	ID      interface{}   `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	Version string        `json:"jsonrpc"`
}

// JSONRPCResponse selalu membawa result (boleh null) bila Error kosong.
type JSONRPCResponse struct {
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result"`
	Error   *JSONRPCError `json:"error,omitempty"`
	Version string        `json:"jsonrpc"`
}

// jsonrpcErrorResponse adalah respons gagal, tanpa field result.
type jsonrpcErrorResponse struct {
	ID      interface{}   `json:"id"`
	Error   *JSONRPCError `json:"error"`
	Version string        `json:"jsonrpc"`
}

type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewServer(config *Config, blockchain *core.Blockchain, miner MinerBackend, engine interfaces.Engine, oracle PrimeTester, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		config:     config,
		blockchain: blockchain,
		gatherer:   gatherer,
		chainAPI:   NewChainAPI(blockchain, engine),
		miningAPI:  NewMiningAPI(blockchain, miner),
		primeAPI:   NewPrimeAPI(oracle),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", s.handleRPC).Methods("POST", "OPTIONS") // OPTIONS untuk CORS preflight
	router.HandleFunc("/health", s.handleHealth).Methods("GET", "OPTIONS")
	if s.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	api := router.PathPrefix("/api").Subrouter()

	chain := api.PathPrefix("/chain").Subrouter()
	chain.HandleFunc("/head", s.chainAPI.HeadHandler).Methods("GET", "OPTIONS")
	chain.HandleFunc("/blocks/{number}", s.chainAPI.BlockByNumberHandler).Methods("GET", "OPTIONS")
	chain.HandleFunc("/hash/{hash}", s.chainAPI.BlockByHashHandler).Methods("GET", "OPTIONS")
	chain.HandleFunc("/verify", s.chainAPI.VerifyHandler).Methods("GET", "OPTIONS")

	mining := api.PathPrefix("/mining").Subrouter()
	mining.HandleFunc("/start", s.miningAPI.StartHandler).Methods("POST", "OPTIONS")
	mining.HandleFunc("/stop", s.miningAPI.StopHandler).Methods("POST", "OPTIONS")
	mining.HandleFunc("/stats", s.miningAPI.StatsHandler).Methods("GET", "OPTIONS")
	mining.HandleFunc("/mine-block", s.miningAPI.MineBlockHandler).Methods("POST", "OPTIONS")

	prime := api.PathPrefix("/prime").Subrouter()
	prime.HandleFunc("/check", s.primeAPI.CheckHandler).Methods("POST", "OPTIONS")

	return router
}

// Handler mengembalikan router HTTP server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("RPC server error: %v", err)
		}
	}()

	logger.Infof("JSON-RPC server with REST API started on %s", addr)
	return nil
}

func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		logger.Warningf("RPC server shutdown: %v", err)
		s.server.Close()
	}
	logger.Info("JSON-RPC server stopped")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "GET") {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "POST") {
		return
	}

	var req JSONRPCRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, nil, -32700, "Parse error")
		return
	}

	result, err := s.handleMethod(r.Context(), req.Method, req.Params)
	if err != nil {
		var rpcErr *JSONRPCError
		if errors.As(err, &rpcErr) {
			s.sendError(w, req.ID, rpcErr.Code, rpcErr.Message)
			return
		}
		s.sendError(w, req.ID, -32603, err.Error()) // internal error
		return
	}

	writeJSON(w, http.StatusOK, JSONRPCResponse{
		ID:      req.ID,
		Result:  result,
		Version: "2.0",
	})
}

func (e *JSONRPCError) Error() string { return e.Message }

func invalidParams(format string, args ...interface{}) error {
	return &JSONRPCError{Code: -32602, Message: fmt.Sprintf(format, args...)}
}

func (s *Server) handleMethod(ctx context.Context, method string, params []interface{}) (interface{}, error) {
	switch method {
	case "chain_blockNumber":
		head, err := s.chainAPI.head()
		if err != nil {
			return nil, err
		}
		return head.Number, nil
	case "chain_getBlockByNumber":
		return s.chainGetBlockByNumber(params)
	case "chain_getBlockByHash":
		return s.chainGetBlockByHash(params)
	case "chain_verify":
		return s.chainAPI.verify(), nil
	case "mining_stats":
		return s.miningAPI.stats(), nil
	case "mining_mineBlock":
		return s.miningAPI.miner.MineBlock(ctx)
	case "prime_isProbablyPrime":
		value, err := stringParam(params, "value")
		if err != nil {
			return nil, err
		}
		res, err := s.primeAPI.check(value)
		if err != nil {
			return nil, invalidParams("%v", err)
		}
		return res.Prime, nil
	case "web3_clientVersion":
		return clientVersion, nil
	default:
		return nil, &JSONRPCError{Code: -32601, Message: "method not found: " + method}
	}
}

func stringParam(params []interface{}, name string) (string, error) {
	if len(params) < 1 {
		return "", invalidParams("missing %s parameter", name)
	}
	value, ok := params[0].(string)
	if !ok {
		return "", invalidParams("%s parameter must be a string", name)
	}
	return value, nil
}

func (s *Server) chainGetBlockByNumber(params []interface{}) (interface{}, error) {
	numStr, err := stringParam(params, "block number")
	if err != nil {
		return nil, err
	}
	var block *core.Block
	if numStr == "latest" {
		block = s.blockchain.GetCurrentBlock()
	} else {
		number, err := parseBlockNumber(numStr)
		if err != nil {
			return nil, invalidParams("%v", err)
		}
		block = s.blockchain.GetBlockByNumber(number)
	}
	if block == nil {
		return nil, nil
	}
	return block, nil
}

func (s *Server) chainGetBlockByHash(params []interface{}) (interface{}, error) {
	hashStr, err := stringParam(params, "hash")
	if err != nil {
		return nil, err
	}
	hash, err := parseHash(hashStr)
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	block := s.blockchain.GetBlockByHash(hash)
	if block == nil {
		return nil, nil
	}
	return block, nil
}

func (s *Server) sendError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeJSON(w, http.StatusOK, jsonrpcErrorResponse{
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
		Version: "2.0",
	})
}
