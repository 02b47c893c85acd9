// Package movegen produces legal moves. Every pseudo-legal candidate is
// played on a scratch copy of the position and kept only if the mover's
// king cannot then be captured.
package movegen

import (
	"github.com/rs/zerolog/log"

	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/move"
)

// Generator owns a scratch board, so it must not be shared between
// goroutines.
type Generator struct {
	scratch board.Board
}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenSquare appends the legal moves of the piece on from to out and
// returns how many it appended. A blank square, or one that does not
// belong to the player to move, yields nothing. The king's moves include
// castling.
func (g *Generator) GenSquare(b *board.Board, from board.Coord, out *move.Buffer) int {
	sq := b.At(from)
	mover := b.ToMove()
	if !sq.OwnedBy(mover) {
		return 0
	}
	n := 0
	g.scratch.CopyFrom(b)
	candidates(b, from, func(to board.Coord) bool {
		m := move.NewStep(b, from, to)
		m.Apply(&g.scratch)
		legal := !kingCapturable(&g.scratch, mover)
		m.Undo(&g.scratch)
		if legal {
			out.Push(m)
			n++
		}
		return true
	})
	if sq.Piece() == board.King {
		n += g.genCastles(b, out)
	}
	return n
}

// GenAll appends every legal move of the player to move, piece by piece in
// ascending square order.
func (g *Generator) GenAll(b *board.Board, out *move.Buffer) int {
	n := 0
	for s := b.Pieces(b.ToMove()); s != 0; {
		var c board.Coord
		c, s = s.Pop()
		n += g.GenSquare(b, c, out)
	}
	log.Trace().Int("moves", n).Stringer("player", b.ToMove()).Msg("gen-all")
	return n
}

// Attacked reports whether any piece of by could move to target.
func (g *Generator) Attacked(b *board.Board, target board.Coord, by board.Player) bool {
	return attacked(b, target, by)
}

// InCheck reports whether p's king is attacked.
func (g *Generator) InCheck(b *board.Board, p board.Player) bool {
	return kingCapturable(b, p)
}

// HasLegalMove reports whether the player to move has any legal move. It
// stops at the first one found.
func (g *Generator) HasLegalMove(b *board.Board) bool {
	mover := b.ToMove()
	g.scratch.CopyFrom(b)
	for s := b.Pieces(mover); s != 0; {
		var c board.Coord
		c, s = s.Pop()
		found := false
		candidates(b, c, func(to board.Coord) bool {
			m := move.NewStep(b, c, to)
			m.Apply(&g.scratch)
			found = !kingCapturable(&g.scratch, mover)
			m.Undo(&g.scratch)
			return !found
		})
		if found {
			return true
		}
	}
	// Castling is never the only legal move: the king's step onto the
	// transit square was proven safe along the way.
	return false
}
