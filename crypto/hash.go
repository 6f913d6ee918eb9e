package crypto

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// DigestLength adalah panjang output SHA3-256 dalam byte.
const DigestLength = 32

// Sha3256 menghitung SHA3-256 (FIPS 202) atas gabungan semua potongan data,
// tanpa separator atau prefix panjang di antara potongan.
func Sha3256(data ...[]byte) []byte {
	h := sha3.New256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Sha3256Hash sama dengan Sha3256 tetapi mengembalikan common.Hash.
func Sha3256Hash(data ...[]byte) common.Hash {
	var out common.Hash
	h := sha3.New256()
	for _, b := range data {
		h.Write(b)
	}
	h.Sum(out[:0])
	return out
}
