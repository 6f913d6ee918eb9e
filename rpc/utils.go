package rpc

import (
	"encoding/json"
	"net/http"

	"primechain/logger"
)

// maxRequestBodySize membatasi body request JSON. Integer 16384 bit dalam
// desimal kurang dari 5000 karakter.
const maxRequestBodySize = 8 << 10

// setHeaders menulis header JSON dan CORS. Mengembalikan true bila request
// adalah preflight OPTIONS yang sudah dijawab.
func setHeaders(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warningf("RPC: failed to encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
