package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"primechain/cache"
	"primechain/database"
	"primechain/interfaces"
	"primechain/logger"
	"primechain/metrics"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultGenesisData adalah payload blok genesis.
var DefaultGenesisData = []byte{1, 23}

var (
	ErrUnknownBlock   = errors.New("unknown block")
	ErrInvalidLink    = errors.New("predecessor digest does not match previous block")
	ErrInvalidProof   = errors.New("block integer is not a probable prime")
	ErrInvalidGenesis = errors.New("invalid genesis block")
	ErrInvalidNumber  = errors.New("block number is not the next chain position")
)

// skema key database
var (
	blockByHashPrefix  = []byte("b") // b + hash -> block JSON
	numberToHashPrefix = []byte("n") // n + number (8 byte BE) -> hash
	currentBlockKey    = []byte("currentBlock")
)

// Config struct (core.Config) mendefinisikan parameter inti blockchain.
type Config struct {
	DataDir     string
	GenesisData []byte
}

func (c *Config) GetDataDir() string { return c.DataDir }

// GetGenesisData mengembalikan payload genesis, default DefaultGenesisData.
func (c *Config) GetGenesisData() []byte {
	if len(c.GenesisData) == 0 {
		return DefaultGenesisData
	}
	return c.GenesisData
}

// Blockchain adalah chain append-only. Blok ditambahkan tanpa validasi
// (trust-on-write); Verify memeriksa chain secara eksplisit.
type Blockchain struct {
	db      database.Database // nil = hanya di memori
	cache   *cache.Cache
	metrics metrics.MiningMetrics

	blocks []*Block
	byHash map[common.Hash]uint64
	tip    common.Hash

	mu sync.RWMutex
}

// GenesisBlock membuat blok genesis: timestamp nol, prevHash nol, nonce kosong.
func GenesisBlock(data []byte) *Block {
	return NewBlock(0, [TimestampLength]byte{}, common.Hash{}, data, nil)
}

// NewBlockchain membuat chain baru. Jika db berisi chain sebelumnya, chain
// tersebut dimuat; jika tidak, genesis dibuat (dan disimpan bila db != nil).
func NewBlockchain(cfg interfaces.ChainConfigItf, db database.Database, c *cache.Cache, m metrics.MiningMetrics) (*Blockchain, error) {
	if m == nil {
		m = metrics.NewNoopCollector()
	}
	bc := &Blockchain{
		db:      db,
		cache:   c,
		metrics: m,
		byHash:  make(map[common.Hash]uint64),
	}

	if db != nil {
		loaded, err := bc.loadFromDB()
		if err != nil {
			return nil, fmt.Errorf("failed to load chain from database: %w", err)
		}
		if loaded {
			genesis := bc.blocks[0]
			expected := GenesisBlock(cfg.GetGenesisData())
			if genesis.Hash() != expected.Hash() {
				return nil, fmt.Errorf("%w: stored %s, expected %s", ErrInvalidGenesis, genesis.Hash().Hex(), expected.Hash().Hex())
			}
			logger.Infof("Loaded chain from database: height=%d tip=%s", bc.blocks[len(bc.blocks)-1].Number, bc.tip.Hex())
			bc.metrics.ChainHeight(uint64(len(bc.blocks) - 1))
			return bc, nil
		}
	}

	genesis := GenesisBlock(cfg.GetGenesisData())
	if err := bc.AddBlock(genesis); err != nil {
		return nil, fmt.Errorf("failed to add genesis block: %w", err)
	}
	logger.Infof("Genesis block created: hash=%s", genesis.Hash().Hex())
	return bc, nil
}

func (bc *Blockchain) loadFromDB() (bool, error) {
	head, err := bc.db.Get(currentBlockKey)
	if err != nil {
		return false, err
	}
	if head == nil {
		return false, nil
	}

	var iterErr error
	err = bc.db.Iterate(numberToHashPrefix, func(key, value []byte) bool {
		number := binary.BigEndian.Uint64(key[len(numberToHashPrefix):])
		if number != uint64(len(bc.blocks)) {
			iterErr = fmt.Errorf("gap in stored chain at block %d", len(bc.blocks))
			return false
		}
		block, err := bc.readBlock(common.BytesToHash(value))
		if err != nil {
			iterErr = err
			return false
		}
		bc.appendLocked(block)
		return true
	})
	if err != nil {
		return false, err
	}
	if iterErr != nil {
		return false, iterErr
	}
	if len(bc.blocks) == 0 {
		return false, fmt.Errorf("current block marker %x set but no blocks stored", head)
	}
	if bc.tip != common.BytesToHash(head) {
		return false, fmt.Errorf("current block marker %x does not match last stored block %s", head, bc.tip.Hex())
	}
	return true, nil
}

func (bc *Blockchain) readBlock(hash common.Hash) (*Block, error) {
	data, err := bc.db.Get(blockKey(hash))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, hash.Hex())
	}
	return BlockFromJSON(data)
}

func blockKey(hash common.Hash) []byte {
	return append(append([]byte{}, blockByHashPrefix...), hash[:]...)
}

func numberKey(number uint64) []byte {
	return append(append([]byte{}, numberToHashPrefix...), EncodeUint64(number)...)
}

// EncodeUint64 menulis n sebagai 8 byte big-endian.
func EncodeUint64(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// AddBlock appends block at the tip without validating its link or proof.
// Number blok harus sama dengan panjang chain saat ini.
func (bc *Blockchain) AddBlock(block *Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if next := uint64(len(bc.blocks)); block.Number != next {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidNumber, block.Number, next)
	}
	if bc.db != nil {
		if err := bc.saveBlock(block); err != nil {
			return err
		}
	}
	bc.appendLocked(block)
	bc.metrics.ChainHeight(block.Number)
	return nil
}

func (bc *Blockchain) appendLocked(block *Block) {
	hash := block.Hash()
	bc.blocks = append(bc.blocks, block)
	bc.byHash[hash] = block.Number
	bc.tip = hash
}

func (bc *Blockchain) saveBlock(block *Block) error {
	blockData, err := block.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize block %d: %w", block.Number, err)
	}
	hash := block.Hash()
	batch := bc.db.NewBatch()
	batch.Put(blockKey(hash), blockData)
	batch.Put(numberKey(block.Number), hash[:])
	batch.Put(currentBlockKey, hash[:])
	if err := bc.db.Write(batch); err != nil {
		return fmt.Errorf("failed to save block %d (%s): %w", block.Number, hash.Hex(), err)
	}
	return nil
}

// Tip mengembalikan digest blok terakhir, yaitu prevHash untuk blok berikutnya.
func (bc *Blockchain) Tip() common.Hash {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tip
}

func (bc *Blockchain) GetCurrentBlock() *Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if len(bc.blocks) == 0 {
		return nil
	}
	return bc.blocks[len(bc.blocks)-1]
}

// Length adalah jumlah blok termasuk genesis.
func (bc *Blockchain) Length() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.blocks)
}

// Blocks mengembalikan salinan slice blok (blok sendiri tidak disalin).
func (bc *Blockchain) Blocks() []*Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	out := make([]*Block, len(bc.blocks))
	copy(out, bc.blocks)
	return out
}

func (bc *Blockchain) GetBlockByNumber(number uint64) *Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if number >= uint64(len(bc.blocks)) {
		return nil
	}
	return bc.blocks[number]
}

// GetBlockByHash mencari blok di index memori. Blok yang hanya ada di
// database (misalnya ditulis handle lain pada store yang sama) dibaca dari
// database dan disimpan di cache.
func (bc *Blockchain) GetBlockByHash(hash common.Hash) *Block {
	bc.mu.RLock()
	number, ok := bc.byHash[hash]
	var block *Block
	if ok {
		block = bc.blocks[number]
	}
	bc.mu.RUnlock()
	if block != nil {
		return block
	}

	cacheKey := string(hash[:])
	if bc.cache != nil {
		if cached, found := bc.cache.Get(cacheKey); found {
			if block, ok := cached.(*Block); ok {
				return block
			}
		}
	}

	if bc.db == nil {
		return nil
	}
	block, err := bc.readBlock(hash)
	if err != nil {
		if !errors.Is(err, ErrUnknownBlock) {
			logger.Warningf("Failed to read block %s from DB: %v", hash.Hex(), err)
		}
		return nil
	}
	if bc.cache != nil {
		bc.cache.Set(cacheKey, block, cache.DefaultTTL)
	}
	return block
}

// Verify memeriksa seluruh chain: genesis, link prevHash tiap blok dan
// proof of work setiap blok setelah genesis.
func (bc *Blockchain) Verify(engine interfaces.Engine) error {
	blocks := bc.Blocks()
	if len(blocks) == 0 {
		return fmt.Errorf("%w: empty chain", ErrInvalidGenesis)
	}
	validator := NewValidator(engine)
	if err := validator.ValidateGenesis(blocks[0]); err != nil {
		return err
	}
	for i := 1; i < len(blocks); i++ {
		if err := validator.ValidateBlock(blocks[i], blocks[i-1]); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

func (bc *Blockchain) Close() error {
	logger.Info("Closing blockchain...")
	if bc.cache != nil {
		bc.cache.Stop()
	}
	if bc.db != nil {
		if err := bc.db.Close(); err != nil {
			logger.Errorf("Failed to close database: %v", err)
			return err
		}
	}
	logger.Info("Blockchain closed successfully.")
	return nil
}
