package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
)

// maxPrimeBits membatasi ukuran input /api/prime/check.
const maxPrimeBits = 1 << 14

// PrimeTester dipenuhi oleh *primality.Oracle.
type PrimeTester interface {
	IsProbablyPrime(n *big.Int) bool
}

type PrimeAPI struct {
	oracle PrimeTester
}

func NewPrimeAPI(oracle PrimeTester) *PrimeAPI {
	return &PrimeAPI{oracle: oracle}
}

type PrimeCheckRequest struct {
	Value string `json:"value"`
}

type PrimeCheckResponse struct {
	Value string `json:"value"`
	Bits  int    `json:"bits"`
	Prime bool   `json:"prime"`
}

func (api *PrimeAPI) check(s string) (*PrimeCheckResponse, error) {
	n, err := ParseInteger(s)
	if err != nil {
		return nil, err
	}
	if n.BitLen() > maxPrimeBits {
		return nil, fmt.Errorf("value too large: %d bits, max %d", n.BitLen(), maxPrimeBits)
	}
	return &PrimeCheckResponse{
		Value: n.String(),
		Bits:  n.BitLen(),
		Prime: api.oracle.IsProbablyPrime(n),
	}, nil
}

func (api *PrimeAPI) CheckHandler(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "POST") {
		return
	}
	var req PrimeCheckRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}
	res, err := api.check(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ParseInteger membaca integer non-negatif dalam desimal atau hex berawalan 0x.
func ParseInteger(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("value is required")
	}
	base, digits := 10, s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base, digits = 16, s[2:]
	}
	if digits == "" || strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}
