package core

import (
	"errors"
	"fmt"

	"primechain/interfaces"
	"primechain/logger"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultMaxBlockSize adalah batas panjang Bytes() satu blok.
const DefaultMaxBlockSize = 1024 * 1024

var ErrBlockTooLarge = errors.New("block too large")

// Validator memeriksa blok terhadap parent-nya. Engine nil berarti proof of
// work tidak diperiksa.
type Validator struct {
	engine       interfaces.Engine
	maxBlockSize int
}

func NewValidator(engine interfaces.Engine) *Validator {
	return &Validator{
		engine:       engine,
		maxBlockSize: DefaultMaxBlockSize,
	}
}

// ValidateGenesis: prevHash nol dan nonce kosong.
func (v *Validator) ValidateGenesis(block *Block) error {
	if block == nil {
		return fmt.Errorf("%w: block is nil", ErrInvalidGenesis)
	}
	if block.PrevHash != (common.Hash{}) {
		return fmt.Errorf("%w: non-zero prevHash %s", ErrInvalidGenesis, block.PrevHash.Hex())
	}
	if len(block.Nonce) != 0 {
		return fmt.Errorf("%w: non-empty nonce %x", ErrInvalidGenesis, block.Nonce)
	}
	return nil
}

// ValidateBlock memeriksa ukuran, link ke parent dan proof of work blok.
func (v *Validator) ValidateBlock(block, parent *Block) error {
	if block == nil || parent == nil {
		return errors.New("block or parent is nil")
	}
	if size := len(block.Data) + len(block.Nonce) + TimestampLength + common.HashLength; size > v.maxBlockSize {
		logger.Warningf("Block %d too large: %d bytes (max: %d)", block.Number, size, v.maxBlockSize)
		return fmt.Errorf("%w: %d bytes", ErrBlockTooLarge, size)
	}
	if block.PrevHash != parent.Hash() {
		logger.Warningf("Block %d prevHash %s does not match parent %s", block.Number, block.PrevHash.Hex(), parent.Hash().Hex())
		return ErrInvalidLink
	}
	if v.engine != nil && !v.engine.ValidateProofOfWork(block) {
		logger.Warningf("Block %d failed proof of work, nonce=%x", block.Number, block.Nonce)
		return ErrInvalidProof
	}
	return nil
}
