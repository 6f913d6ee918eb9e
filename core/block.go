package core

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"

	"primechain/crypto"
	"primechain/interfaces"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TimestampLength adalah panjang timestamp blok dalam byte.
const TimestampLength = 8

// EncodeTimestamp encodes seconds since the UNIX epoch as 8 big-endian bytes.
// Encoding ini tetap, tidak bergantung pada endianness mesin.
func EncodeTimestamp(seconds uint64) [TimestampLength]byte {
	var ts [TimestampLength]byte
	binary.BigEndian.PutUint64(ts[:], seconds)
	return ts
}

// DecodeTimestamp adalah kebalikan dari EncodeTimestamp.
func DecodeTimestamp(ts [TimestampLength]byte) uint64 {
	return binary.BigEndian.Uint64(ts[:])
}

// Block adalah satu blok di chain. Nilai yang dihash hanya Timestamp,
// PrevHash, Data dan Nonce; Number hanya posisi blok di chain.
// Blok tidak diubah setelah dibuat.
type Block struct {
	Number    uint64
	Timestamp [TimestampLength]byte
	PrevHash  common.Hash
	Data      []byte
	Nonce     []byte
}

var _ interfaces.BlockConsensusItf = (*Block)(nil)

// NewBlock membuat blok baru. Data dan nonce disalin.
func NewBlock(number uint64, timestamp [TimestampLength]byte, prevHash common.Hash, data, nonce []byte) *Block {
	return &Block{
		Number:    number,
		Timestamp: timestamp,
		PrevHash:  prevHash,
		Data:      common.CopyBytes(data),
		Nonce:     common.CopyBytes(nonce),
	}
}

func (b *Block) GetNumber() uint64 { return b.Number }
func (b *Block) GetNonce() []byte  { return common.CopyBytes(b.Nonce) }

// Prefix returns timestamp ∥ prevHash ∥ data, the committed bytes the nonce
// is appended to.
func (b *Block) Prefix() []byte {
	return BuildPrefix(b.Timestamp, b.PrevHash, b.Data)
}

// BuildPrefix menyusun bagian blok yang dikomit sebelum mining.
func BuildPrefix(timestamp [TimestampLength]byte, prevHash common.Hash, data []byte) []byte {
	out := make([]byte, 0, TimestampLength+common.HashLength+len(data))
	out = append(out, timestamp[:]...)
	out = append(out, prevHash[:]...)
	out = append(out, data...)
	return out
}

// Bytes returns the full byte representation: timestamp ∥ prevHash ∥ data ∥ nonce.
func (b *Block) Bytes() []byte {
	return append(b.Prefix(), b.Nonce...)
}

// CandidateInt adalah Bytes() dibaca sebagai integer big-endian tak bertanda.
func (b *Block) CandidateInt() *big.Int {
	return new(big.Int).SetBytes(b.Bytes())
}

// Hash menghitung digest SHA3-256 blok. Field digabung tanpa separator.
func (b *Block) Hash() common.Hash {
	return crypto.Sha3256Hash(b.Timestamp[:], b.PrevHash[:], b.Data, b.Nonce)
}

func (b *Block) String() string {
	return fmt.Sprintf("Block{number=%d timestamp=%d prevHash=%s hash=%s data=%d bytes nonce=%x}",
		b.Number, DecodeTimestamp(b.Timestamp), b.PrevHash.Hex(), b.Hash().Hex(), len(b.Data), b.Nonce)
}

// blockJSON adalah bentuk JSON blok untuk API dan penyimpanan.
type blockJSON struct {
	Number    hexutil.Uint64 `json:"number"`
	Timestamp hexutil.Uint64 `json:"timestamp"`
	PrevHash  common.Hash    `json:"prevHash"`
	Data      hexutil.Bytes  `json:"data"`
	Nonce     hexutil.Bytes  `json:"nonce"`
	Hash      common.Hash    `json:"hash"`
}

func (b *Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(blockJSON{
		Number:    hexutil.Uint64(b.Number),
		Timestamp: hexutil.Uint64(DecodeTimestamp(b.Timestamp)),
		PrevHash:  b.PrevHash,
		Data:      b.Data,
		Nonce:     b.Nonce,
		Hash:      b.Hash(),
	})
}

// UnmarshalJSON memulihkan blok dan memastikan hash yang tersimpan cocok.
func (b *Block) UnmarshalJSON(input []byte) error {
	var dec blockJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	b.Number = uint64(dec.Number)
	b.Timestamp = EncodeTimestamp(uint64(dec.Timestamp))
	b.PrevHash = dec.PrevHash
	b.Data = []byte(dec.Data)
	b.Nonce = []byte(dec.Nonce)
	if dec.Hash != (common.Hash{}) && dec.Hash != b.Hash() {
		return fmt.Errorf("block %d: stored hash %s does not match computed %s", b.Number, dec.Hash.Hex(), b.Hash().Hex())
	}
	return nil
}

// ToJSON serializes the block to JSON.
func (b *Block) ToJSON() ([]byte, error) {
	return json.Marshal(b)
}

// BlockFromJSON deserializes a block from JSON.
func BlockFromJSON(data []byte) (*Block, error) {
	var block Block
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, err
	}
	return &block, nil
}
