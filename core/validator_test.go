package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGenesis(t *testing.T) {
	v := NewValidator(nil)
	assert.NoError(t, v.ValidateGenesis(GenesisBlock(DefaultGenesisData)))

	withNonce := NewBlock(0, [TimestampLength]byte{}, common.Hash{}, DefaultGenesisData, []byte{1})
	assert.ErrorIs(t, v.ValidateGenesis(withNonce), ErrInvalidGenesis)

	withPrev := NewBlock(0, [TimestampLength]byte{}, common.Hash{1}, DefaultGenesisData, nil)
	assert.ErrorIs(t, v.ValidateGenesis(withPrev), ErrInvalidGenesis)

	assert.ErrorIs(t, v.ValidateGenesis(nil), ErrInvalidGenesis)
}

func TestValidateBlock(t *testing.T) {
	engine := newEngine()
	v := NewValidator(engine)
	genesis := GenesisBlock(DefaultGenesisData)

	prefix := BuildPrefix(EncodeTimestamp(42), genesis.Hash(), []byte("abc"))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	nonce, err := engine.FindNonce(ctx, prefix)
	require.NoError(t, err)
	good := NewBlock(1, EncodeTimestamp(42), genesis.Hash(), []byte("abc"), nonce)
	assert.NoError(t, v.ValidateBlock(good, genesis))

	unlinked := NewBlock(1, EncodeTimestamp(42), common.Hash{}, []byte("abc"), nonce)
	assert.ErrorIs(t, v.ValidateBlock(unlinked, genesis), ErrInvalidLink)

	// nonce genap tidak pernah menghasilkan prima (> 2)
	composite := NewBlock(1, EncodeTimestamp(42), genesis.Hash(), []byte("abc"), []byte{0x02})
	assert.ErrorIs(t, v.ValidateBlock(composite, genesis), ErrInvalidProof)
	assert.NoError(t, NewValidator(nil).ValidateBlock(composite, genesis))

	huge := NewBlock(1, EncodeTimestamp(42), genesis.Hash(), bytes.Repeat([]byte{'a'}, DefaultMaxBlockSize), nonce)
	assert.ErrorIs(t, v.ValidateBlock(huge, genesis), ErrBlockTooLarge)
}
