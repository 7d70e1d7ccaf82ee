package msg

import (
	"context"

	"braces.dev/errtrace"
	"github.com/jackc/puddle/v2"
)

// BlockPool is a bounded pool of fixed-size blocks used as external
// streaming buffers.
type BlockPool struct {
	pool      *puddle.Pool[[]byte]
	blockSize int
}

// NewBlockPool creates a pool of at most maxBlocks blocks of blockSize bytes.
func NewBlockPool(blockSize, maxBlocks int) (*BlockPool, error) {
	if blockSize <= 0 || maxBlocks <= 0 {
		return nil, errtrace.Wrap(newInvalidArgError("invalid block pool size %dx%d", maxBlocks, blockSize))
	}
	pool, err := puddle.NewPool(&puddle.Config[[]byte]{
		Constructor: func(context.Context) ([]byte, error) {
			return make([]byte, blockSize), nil
		},
		Destructor: func([]byte) {},
		MaxSize:    int32(maxBlocks), //nolint:gosec
	})
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return &BlockPool{pool: pool, blockSize: blockSize}, nil
}

// BlockSize returns the size of the pool blocks.
func (p *BlockPool) BlockSize() int { return p.blockSize }

// Acquire takes a block from the pool, waiting while all blocks are in use.
// The block returns to the pool when its last reference is released.
func (p *BlockPool) Acquire(ctx context.Context) (*Block, error) {
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	buf := res.Value()
	clear(buf)
	return newBlock(buf, res.Release), nil
}

// InUse returns the number of blocks currently acquired.
func (p *BlockPool) InUse() int { return int(p.pool.Stat().AcquiredResources()) }

// Close destroys idle blocks and waits for the acquired ones to be released.
func (p *BlockPool) Close() { p.pool.Close() }
