package zobrist

import (
	"lukechampine.com/frand"

	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/move"
)

const bignum = 1<<63 - 2

// squareKinds is the number of distinct non-blank square values.
const squareKinds = 16

// Zobrist hashes chess positions.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	blackToMove uint64

	posTable    [board.Dim * board.Dim][squareKinds]uint64
	rightsTable [4]uint64
}

func (z *Zobrist) Initialize() {
	for i := range z.posTable {
		for j := range z.posTable[i] {
			z.posTable[i][j] = frand.Uint64n(bignum) + 1
		}
	}
	for i := range z.rightsTable {
		z.rightsTable[i] = frand.Uint64n(bignum) + 1
	}
	z.blackToMove = frand.Uint64n(bignum) + 1
}

func New() *Zobrist {
	z := &Zobrist{}
	z.Initialize()
	return z
}

func (z *Zobrist) square(c board.Coord, sq board.Square) uint64 {
	if sq.IsBlank() {
		return 0
	}
	return z.posTable[c.Index()][sq]
}

func (z *Zobrist) rights(r board.CastleRights) uint64 {
	key := uint64(0)
	for i := range z.rightsTable {
		if r&(1<<i) != 0 {
			key ^= z.rightsTable[i]
		}
	}
	return key
}

// Hash computes the key of b from scratch.
func (z *Zobrist) Hash(b *board.Board) uint64 {
	key := uint64(0)
	for _, p := range []board.Player{board.White, board.Black} {
		for s := b.Pieces(p); s != 0; {
			var c board.Coord
			c, s = s.Pop()
			key ^= z.square(c, b.At(c))
		}
	}
	key ^= z.rights(b.CastleRights())
	if b.ToMove() == board.Black {
		key ^= z.blackToMove
	}
	return key
}

// AddMove returns the key after m is played on the position with key.
// Since every term is an xor, the same call also takes the move back.
func (z *Zobrist) AddMove(key uint64, m *move.Snapshot) uint64 {
	for i := 0; i < m.Len(); i++ {
		d := m.Delta(i)
		key ^= z.square(d.Coord, d.Before)
		key ^= z.square(d.Coord, d.After)
	}
	key ^= z.rights(m.Forfeits())
	key ^= z.blackToMove
	return key
}
