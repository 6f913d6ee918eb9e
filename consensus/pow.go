package consensus

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"primechain/interfaces"
	"primechain/logger"
	"primechain/metrics"
	"primechain/primality"

	"github.com/holiman/uint256"
)

const (
	// MaxSupportedWidth adalah lebar nonce maksimum (byte); counter nonce
	// adalah integer 256-bit.
	MaxSupportedWidth = 32
	// DefaultChunkSize adalah jumlah nilai nonce per chunk pada pencarian paralel.
	DefaultChunkSize = 256

	// setiap checkInterval kandidat, context diperiksa dan metrik di-flush
	checkInterval = 512
)

var (
	ErrMiningTimeout   = errors.New("mining timeout exceeded")
	ErrSearchExhausted = errors.New("nonce search exhausted")
)

// Tester adalah predikat primality yang dipakai engine; *primality.Oracle
// memenuhinya.
type Tester interface {
	IsProbablyPrime(n *big.Int) bool
}

// Config mengatur batas dan paralelisme pencarian nonce.
type Config struct {
	Rounds        int           // ronde Miller-Rabin, 0 = primality.DefaultRounds
	MaxNonceWidth int           // byte, 0 = MaxSupportedWidth
	Timeout       time.Duration // 0 = tanpa batas waktu
	Workers       int           // <= 1 = pencarian sekuensial
	ChunkSize     uint64        // 0 = DefaultChunkSize
}

// ProofOfWork implements prime proof of work: a block is valid when the
// integer formed by its bytes is a probable prime.
type ProofOfWork struct {
	oracle    Tester
	maxWidth  int
	timeout   time.Duration
	workers   int
	chunkSize uint64
	metrics   metrics.MiningMetrics

	lastAttempts atomic.Uint64
	lastWidth    atomic.Int64
}

var (
	_ interfaces.Engine      = (*ProofOfWork)(nil)
	_ interfaces.SearchStats = (*ProofOfWork)(nil)
)

// NewProofOfWork creates a new PoW consensus engine. oracle nil membuat oracle
// baru dengan cfg.Rounds; m nil berarti tanpa metrik.
func NewProofOfWork(cfg Config, oracle Tester, m metrics.MiningMetrics) *ProofOfWork {
	if oracle == nil {
		oracle = primality.NewOracle(cfg.Rounds, nil)
	}
	if m == nil {
		m = metrics.NewNoopCollector()
	}
	maxWidth := cfg.MaxNonceWidth
	if maxWidth <= 0 || maxWidth > MaxSupportedWidth {
		if maxWidth > MaxSupportedWidth {
			logger.Warningf("MaxNonceWidth %d exceeds supported width, capping at %d", maxWidth, MaxSupportedWidth)
		}
		maxWidth = MaxSupportedWidth
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	return &ProofOfWork{
		oracle:    oracle,
		maxWidth:  maxWidth,
		timeout:   cfg.Timeout,
		workers:   workers,
		chunkSize: chunkSize,
		metrics:   m,
	}
}

// Workers returns the number of search goroutines per width.
func (pow *ProofOfWork) Workers() int { return pow.workers }

// LastAttempts adalah jumlah kandidat yang diuji pada pencarian terakhir.
func (pow *ProofOfWork) LastAttempts() uint64 { return pow.lastAttempts.Load() }

// LastWidth adalah lebar nonce (byte) hasil pencarian terakhir yang berhasil.
func (pow *ProofOfWork) LastWidth() int { return int(pow.lastWidth.Load()) }

// FindNonce returns the smallest nonce, at the smallest byte width, such that
// prefix ∥ nonce read as a big-endian integer is a probable prime. Widths are
// tried from 1 upward; within a width nonce values ascend from zero.
// Appending i nonce bytes is the same as prefix*256^i + v.
func (pow *ProofOfWork) FindNonce(ctx context.Context, prefix []byte) ([]byte, error) {
	searchCtx := ctx
	if pow.timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, pow.timeout)
		defer cancel()
	}

	pow.lastAttempts.Store(0)
	for width := 1; width <= pow.maxWidth; width++ {
		if err := searchCtx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, ErrMiningTimeout
			}
			return nil, err
		}
		var (
			nonce []byte
			err   error
		)
		if pow.workers > 1 {
			nonce, err = pow.searchWidthParallel(searchCtx, prefix, width)
		} else {
			nonce, err = pow.searchWidth(searchCtx, prefix, width)
		}
		if err != nil {
			// timeout milik engine, bukan milik pemanggil
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, ErrMiningTimeout
			}
			return nil, err
		}
		if nonce != nil {
			pow.lastWidth.Store(int64(width))
			return nonce, nil
		}
		logger.Debugf("PoW: no prime with %d-byte nonce, widening", width)
	}
	return nil, fmt.Errorf("%w: no prime up to %d-byte nonce", ErrSearchExhausted, pow.maxWidth)
}

// searchWidth scans every nonce of the given width in ascending order.
// Returns nil, nil when the width holds no prime.
func (pow *ProofOfWork) searchWidth(ctx context.Context, prefix []byte, width int) ([]byte, error) {
	s := newScanner(pow.oracle, prefix, width)
	v := new(uint256.Int)
	pending := 0
	defer func() { pow.flush(pending) }()

	for {
		pending++
		if s.test(v) {
			return encodeNonce(v, width), nil
		}
		if pending == checkInterval {
			pow.flush(pending)
			pending = 0
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		v.AddUint64(v, 1)
		if exhausted(v, width) {
			return nil, nil
		}
	}
}

func (pow *ProofOfWork) flush(n int) {
	if n == 0 {
		return
	}
	pow.lastAttempts.Add(uint64(n))
	pow.metrics.CandidatesTested(n)
}

// ValidateProofOfWork validates the proof of work for a block: nonce harus
// tidak kosong dan integer kandidat blok harus prima.
func (pow *ProofOfWork) ValidateProofOfWork(block interfaces.BlockConsensusItf) bool {
	if len(block.GetNonce()) == 0 {
		return false
	}
	return pow.oracle.IsProbablyPrime(block.CandidateInt())
}

// scanner menyusun kandidat prefix ∥ nonce di buffer yang dipakai ulang.
type scanner struct {
	oracle    Tester
	buf       []byte
	offset    int
	width     int
	candidate *big.Int
}

func newScanner(oracle Tester, prefix []byte, width int) *scanner {
	buf := make([]byte, len(prefix)+width)
	copy(buf, prefix)
	return &scanner{
		oracle:    oracle,
		buf:       buf,
		offset:    len(prefix),
		width:     width,
		candidate: new(big.Int),
	}
}

func (s *scanner) test(v *uint256.Int) bool {
	b := v.Bytes32()
	copy(s.buf[s.offset:], b[uint256Bytes-s.width:])
	s.candidate.SetBytes(s.buf)
	return s.oracle.IsProbablyPrime(s.candidate)
}

const uint256Bytes = 32

// exhausted reports whether v has left the range [0, 256^width). For the
// full 32-byte width the counter wraps to zero.
func exhausted(v *uint256.Int, width int) bool {
	if width >= uint256Bytes {
		return v.IsZero()
	}
	return v.BitLen() > 8*width
}

// encodeNonce menulis v sebagai tepat width byte big-endian, dipad nol di kiri.
func encodeNonce(v *uint256.Int, width int) []byte {
	b := v.Bytes32()
	out := make([]byte, width)
	copy(out, b[uint256Bytes-width:])
	return out
}
