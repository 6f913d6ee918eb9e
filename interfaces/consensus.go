package interfaces

import (
	"context"
	"math/big"
)

// BlockConsensusItf adalah pandangan consensus engine atas sebuah blok.
type BlockConsensusItf interface {
	GetNumber() uint64
	Prefix() []byte // timestamp ∥ prevHash ∥ data
	GetNonce() []byte
	CandidateInt() *big.Int // Prefix ∥ nonce sebagai integer big-endian
}

// Engine interface
type Engine interface {
	// FindNonce mencari nonce terkecil sehingga prefix ∥ nonce prima.
	FindNonce(ctx context.Context, prefix []byte) ([]byte, error)
	ValidateProofOfWork(block BlockConsensusItf) bool
}

// SearchStats dipenuhi engine yang mencatat statistik pencarian nonce terakhir.
type SearchStats interface {
	LastAttempts() uint64
	LastWidth() int
}
