package movegen

import (
	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/cache"
	"github.com/castellan-chess/castellan/move"
	"github.com/castellan-chess/castellan/zobrist"
)

// Perft counts the leaf positions of the legal move tree to the given
// depth. It plays moves on a copy of b.
func Perft(b *board.Board, depth int) uint64 {
	p := perfter{gen: NewGenerator(), buf: move.NewBuffer(256)}
	p.board.CopyFrom(b)
	return p.count(depth)
}

// PerftCached is Perft with subtree counts memoized by position.
func PerftCached(b *board.Board, depth int, z *zobrist.Zobrist, c *cache.Cache[uint64]) uint64 {
	p := perfter{gen: NewGenerator(), buf: move.NewBuffer(256), z: z, c: c}
	p.board.CopyFrom(b)
	p.key = z.Hash(b)
	return p.count(depth)
}

type perfter struct {
	board board.Board
	gen   *Generator
	buf   *move.Buffer

	z   *zobrist.Zobrist
	c   *cache.Cache[uint64]
	key uint64
}

func (p *perfter) count(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	if p.c != nil {
		if n, ok := p.c.Get(cache.Key{Hash: p.key, Depth: depth}); ok {
			return n
		}
	}
	base := p.buf.Cursor()
	defer p.buf.SetCursor(base)
	p.gen.GenAll(&p.board, p.buf)
	end := p.buf.Cursor()
	if depth == 1 {
		return uint64(end - base)
	}
	var nodes uint64
	for i := base; i < end; i++ {
		m := p.buf.Get(i)
		m.Apply(&p.board)
		if p.z != nil {
			p.key = p.z.AddMove(p.key, &m)
		}
		nodes += p.count(depth - 1)
		if p.z != nil {
			p.key = p.z.AddMove(p.key, &m)
		}
		m.Undo(&p.board)
	}
	if p.c != nil {
		p.c.Put(cache.Key{Hash: p.key, Depth: depth}, nodes)
	}
	return nodes
}
