package primality

import (
	"math/big"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmallValues(t *testing.T) {
	o := NewOracle(0, SeededRandFactory(1))
	require.Equal(t, DefaultRounds, o.Rounds())

	assert.True(t, o.IsProbablyPrime(big.NewInt(2)))
	assert.False(t, o.IsProbablyPrime(big.NewInt(1)))
	assert.False(t, o.IsProbablyPrime(big.NewInt(0)))
	assert.False(t, o.IsProbablyPrime(big.NewInt(-7)))
	assert.False(t, o.IsProbablyPrime(nil))
}

func TestKnownPrimes(t *testing.T) {
	o := NewOracle(DefaultRounds, nil)
	for _, p := range []int64{2, 3, 5, 7, 11, 13, 97, 7919, 104729, 2147483647} {
		assert.True(t, o.IsProbablyPrime(big.NewInt(p)), "expected %d to be prime", p)
	}

	// 2^127 - 1
	m127 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	assert.True(t, o.IsProbablyPrime(m127))
}

func TestKnownComposites(t *testing.T) {
	o := NewOracle(DefaultRounds, nil)
	// includes Carmichael numbers 561, 1105, 41041
	for _, c := range []int64{4, 9, 15, 21, 25, 100, 561, 1105, 41041, 104730, 104729 * 7919} {
		assert.False(t, o.IsProbablyPrime(big.NewInt(c)), "expected %d to be composite", c)
	}

	// 2^128 + 1 is composite (divisible by 59649589127497217).
	f7 := new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	assert.False(t, o.IsProbablyPrime(f7))
}

func TestEvenNumbersAreComposite(t *testing.T) {
	o := NewOracle(8, SeededRandFactory(42))
	for n := int64(4); n < 2000; n += 2 {
		require.False(t, o.IsProbablyPrime(big.NewInt(n)), "%d", n)
	}
	huge := new(big.Int).Lsh(big.NewInt(1), 521)
	assert.False(t, o.IsProbablyPrime(huge))
}

func TestAgreesWithTrialDivision(t *testing.T) {
	o := NewOracle(DefaultRounds, SeededRandFactory(7))
	for n := int64(0); n < 5000; n++ {
		require.Equal(t, isPrimeTrial(n), o.IsProbablyPrime(big.NewInt(n)), "n=%d", n)
	}
}

func TestInputNotModified(t *testing.T) {
	n := big.NewInt(104729)
	IsProbablyPrime(n)
	assert.Equal(t, int64(104729), n.Int64())
}

func TestRandFactoryCalledOncePerInvocation(t *testing.T) {
	calls := 0
	o := NewOracle(5, func() *rand.Rand {
		calls++
		return rand.New(rand.NewSource(int64(calls)))
	})
	o.IsProbablyPrime(big.NewInt(97))
	o.IsProbablyPrime(big.NewInt(101))
	// even inputs are rejected before any witness is drawn
	o.IsProbablyPrime(big.NewInt(100))
	assert.Equal(t, 2, calls)
}

func TestConcurrentUse(t *testing.T) {
	o := NewOracle(DefaultRounds, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := int64(1000); n < 1200; n++ {
				if o.IsProbablyPrime(big.NewInt(n)) != isPrimeTrial(n) {
					t.Errorf("mismatch for %d", n)
				}
			}
		}()
	}
	wg.Wait()
}

func isPrimeTrial(n int64) bool {
	if n < 2 {
		return false
	}
	for d := int64(2); d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}
