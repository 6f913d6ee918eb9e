package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSha3256KnownVectors(t *testing.T) {
	// FIPS 202 test vectors.
	empty := Sha3256()
	assert.Equal(t, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", hex.EncodeToString(empty))

	abc := Sha3256([]byte("abc"))
	assert.Equal(t, "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532", hex.EncodeToString(abc))
}

func TestSha3256ConcatenatesWithoutSeparators(t *testing.T) {
	whole := Sha3256([]byte("abc"))
	parts := Sha3256([]byte("a"), []byte(""), []byte("bc"))
	require.Len(t, parts, DigestLength)
	assert.Equal(t, whole, parts)
}

func TestSha3256HashMatchesBytes(t *testing.T) {
	h := Sha3256Hash([]byte("prime"), []byte("chain"))
	assert.Equal(t, Sha3256([]byte("primechain")), h.Bytes())
}
