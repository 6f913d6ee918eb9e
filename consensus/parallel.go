package consensus

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
)

// chunkCursor membagikan chunk nonce secara berurutan naik ke para worker.
type chunkCursor struct {
	mu    sync.Mutex
	next  uint256.Int
	size  uint256.Int
	width int
	done  bool
}

// claim returns the next chunk [start, end). unbounded berarti chunk berjalan
// sampai akhir rentang width.
func (c *chunkCursor) claim() (start, end uint256.Int, unbounded, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return start, end, false, false
	}
	start = c.next
	_, overflow := end.AddOverflow(&start, &c.size)
	if overflow || exhausted(&end, c.width) {
		c.done = true
		unbounded = true
	} else {
		c.next = end
	}
	return start, end, unbounded, true
}

// bestNonce menyimpan nilai nonce prima terkecil yang sudah ditemukan.
type bestNonce struct {
	mu    sync.Mutex
	found bool
	value uint256.Int
}

// above reports whether v is larger than the best nonce so far.
func (b *bestNonce) above(v *uint256.Int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.found && v.Gt(&b.value)
}

func (b *bestNonce) offer(v *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.found || v.Lt(&b.value) {
		b.value.Set(v)
		b.found = true
	}
}

// searchWidthParallel splits one width into chunks and scans them with
// pow.workers goroutines. Chunks are claimed in ascending order and chunks
// above the best find are skipped, so the minimum over all finds is the same
// nonce the sequential scan returns.
func (pow *ProofOfWork) searchWidthParallel(ctx context.Context, prefix []byte, width int) ([]byte, error) {
	cursor := &chunkCursor{width: width}
	cursor.size.SetUint64(pow.chunkSize)
	best := &bestNonce{}

	g, gCtx := errgroup.WithContext(ctx)
	for w := 0; w < pow.workers; w++ {
		g.Go(func() error {
			return pow.scanChunks(gCtx, prefix, width, cursor, best)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if !best.found {
		return nil, nil
	}
	return encodeNonce(&best.value, width), nil
}

func (pow *ProofOfWork) scanChunks(ctx context.Context, prefix []byte, width int, cursor *chunkCursor, best *bestNonce) error {
	s := newScanner(pow.oracle, prefix, width)
	pending := 0
	defer func() { pow.flush(pending) }()

	for {
		start, end, unbounded, ok := cursor.claim()
		if !ok || best.above(&start) {
			return nil
		}

		v := start
		for {
			if best.above(&v) {
				break
			}
			pending++
			if s.test(&v) {
				best.offer(&v)
				break
			}
			if pending == checkInterval {
				pow.flush(pending)
				pending = 0
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			v.AddUint64(&v, 1)
			if exhausted(&v, width) || (!unbounded && v.Eq(&end)) {
				break
			}
		}
	}
}
