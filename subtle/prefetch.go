package subtle

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

const (
	defaultPrefetchChunk = 64 * blockSize
	defaultPrefetchDepth = 2
)

// PrefetchOption configures a PrefetchSource.
type PrefetchOption func(*PrefetchSource)

// WithChunkBlocks sets how many 16-byte blocks each prefetched buffer holds.
func WithChunkBlocks(n int) PrefetchOption {
	return func(p *PrefetchSource) {
		if n > 0 {
			p.chunk = n * blockSize
		}
	}
}

// WithDepth sets how many buffers may be waiting for the consumer.
func WithDepth(n int) PrefetchOption {
	return func(p *PrefetchSource) {
		if n > 0 {
			p.depth = n
		}
	}
}

// PrefetchSource drains a ByteSource from a background goroutine into a
// bounded channel of fixed-size buffers. The wrapped source is only ever
// asked for whole blocks, and the buffered stream is consumed with the same
// block discipline as AESCTRSource: FillBytes takes whole blocks and drops
// the rest of a trailing partial one, and FetchBit draws its bits from a
// separate block. For AES-CTR any sequence of calls returns exactly what the
// plain source would.
//
// A PrefetchSource is not safe for concurrent use by multiple consumers.
type PrefetchSource struct {
	chunk  int
	depth  int
	bufs   chan []byte
	cancel context.CancelFunc
	group  *errgroup.Group

	cur []byte
	off int // byte offset in cur, always a multiple of blockSize

	block [blockSize]byte
	bit   int
}

// NewPrefetchSource starts the producer goroutine. The source takes ownership
// of src; Close must be called to release the goroutine.
func NewPrefetchSource(ctx context.Context, src ByteSource, opts ...PrefetchOption) *PrefetchSource {
	p := &PrefetchSource{
		chunk: defaultPrefetchChunk,
		depth: defaultPrefetchDepth,
		bit:   blockBits,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufs = make(chan []byte, p.depth)

	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)
	p.group.Go(func() error {
		defer close(p.bufs)
		for {
			buf := make([]byte, p.chunk)
			src.FillBytes(buf)
			select {
			case p.bufs <- buf:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	return p
}

func (p *PrefetchSource) next() {
	buf, ok := <-p.bufs
	if !ok {
		panic("grafpe/subtle: read from closed PrefetchSource")
	}
	p.cur = buf
	p.off = 0
}

// readBlocks copies the next len(dst)/blockSize blocks of the stream into dst.
func (p *PrefetchSource) readBlocks(dst []byte) {
	for len(dst) > 0 {
		if p.off == len(p.cur) {
			p.next()
		}
		n := copy(dst, p.cur[p.off:])
		p.off += n
		dst = dst[n:]
	}
}

// FetchBit implements ByteSource.
func (p *PrefetchSource) FetchBit() bool {
	if p.bit == blockBits {
		p.readBlocks(p.block[:])
		p.bit = 0
	}
	i := p.bit
	p.bit++
	return p.block[i/8]&(1<<(i%8)) != 0
}

// FillBytes implements ByteSource. A trailing partial block consumes one full
// block of the stream.
func (p *PrefetchSource) FillBytes(b []byte) {
	full := len(b) - len(b)%blockSize
	p.readBlocks(b[:full])
	if full == len(b) {
		return
	}
	var tail [blockSize]byte
	p.readBlocks(tail[:])
	copy(b[full:], tail[:])
}

// Close stops the producer and waits for it to exit.
func (p *PrefetchSource) Close() error {
	p.cancel()
	// Unblock a producer stuck on a full channel.
	for range p.bufs {
	}
	if err := p.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

var _ ByteSource = (*PrefetchSource)(nil)
