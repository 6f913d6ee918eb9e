// Package primality implements the Miller-Rabin probable-prime test used as the
// proof-of-work predicate.
package primality

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/big"
	"math/rand"
	"time"
)

// DefaultRounds adalah jumlah witness Miller-Rabin per pemanggilan.
const DefaultRounds = 100

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// RandFactory membuat sumber acak baru untuk satu pemanggilan oracle.
// Witness tidak perlu kriptografis, cukup independen per ronde.
type RandFactory func() *rand.Rand

// Oracle menjalankan uji Miller-Rabin dengan jumlah ronde tetap.
// Aman dipakai dari banyak goroutine karena setiap pemanggilan memakai
// sumber acak sendiri.
type Oracle struct {
	rounds  int
	newRand RandFactory
}

// NewOracle membuat oracle. rounds <= 0 memakai DefaultRounds dan
// factory nil memakai DefaultRandFactory.
func NewOracle(rounds int, factory RandFactory) *Oracle {
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	if factory == nil {
		factory = DefaultRandFactory
	}
	return &Oracle{rounds: rounds, newRand: factory}
}

// Rounds returns the number of witnesses tested per call.
func (o *Oracle) Rounds() int { return o.rounds }

// DefaultRandFactory menghasilkan math/rand yang di-seed dari crypto/rand,
// dengan fallback ke waktu jika crypto/rand gagal.
func DefaultRandFactory() *rand.Rand {
	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(seed[:]))))
}

// SeededRandFactory selalu menghasilkan sumber dengan seed yang sama.
// Berguna untuk test yang butuh hasil deterministik.
func SeededRandFactory(seed int64) RandFactory {
	return func() *rand.Rand {
		return rand.New(rand.NewSource(seed))
	}
}

// IsProbablyPrime reports whether n passes the configured number of
// Miller-Rabin rounds. Nil, negative, 0 and 1 are never prime.
// The input is not modified.
func (o *Oracle) IsProbablyPrime(n *big.Int) bool {
	if n == nil || n.Cmp(two) < 0 {
		return false
	}
	if n.Cmp(two) == 0 {
		return true
	}
	if n.Bit(0) == 0 {
		return false
	}

	nMinusOne := new(big.Int).Sub(n, one)

	// n-1 = d * 2^r, d ganjil.
	d := new(big.Int).Rsh(nMinusOne, 1)
	for d.Bit(0) == 0 {
		d.Rsh(d, 1)
	}

	// witness a diambil dari [1, n-1): 1 + [0, n-2)
	span := new(big.Int).Sub(nMinusOne, one)
	rng := o.newRand()

	a := new(big.Int)
	y := new(big.Int)
	t := new(big.Int)
	for i := 0; i < o.rounds; i++ {
		a.Rand(rng, span)
		a.Add(a, one)

		t.Set(d)
		y.Exp(a, t, n)

		for t.Cmp(nMinusOne) != 0 && y.Cmp(one) != 0 && y.Cmp(nMinusOne) != 0 {
			y.Mul(y, y)
			y.Mod(y, n)
			t.Lsh(t, 1)
		}

		if y.Cmp(nMinusOne) != 0 && t.Bit(0) == 0 {
			return false
		}
	}
	return true
}

var defaultOracle = NewOracle(DefaultRounds, nil)

// IsProbablyPrime runs the default 100-round oracle.
func IsProbablyPrime(n *big.Int) bool {
	return defaultOracle.IsProbablyPrime(n)
}
