package movegen

import (
	"fmt"

	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/move"
)

// castleDescriptor is the fixed geometry of one castling move.
type castleDescriptor struct {
	right   board.CastleRights
	between []board.Coord // must all be blank
	path    []board.Coord // king origin, transit square, destination
	snap    move.Snapshot
}

// castles[player][0] is kingside, [1] queenside.
var castles [2][2]castleDescriptor

func init() {
	for _, p := range []board.Player{board.White, board.Black} {
		r := p.HomeRank()
		castles[p][0] = castleDescriptor{
			right:   board.KingsideRight(p),
			between: []board.Coord{board.C(5, r), board.C(6, r)},
			path:    []board.Coord{board.C(4, r), board.C(5, r), board.C(6, r)},
			snap:    move.NewCastle(p, true),
		}
		castles[p][1] = castleDescriptor{
			right:   board.QueensideRight(p),
			between: []board.Coord{board.C(1, r), board.C(2, r), board.C(3, r)},
			path:    []board.Coord{board.C(4, r), board.C(3, r), board.C(2, r)},
			snap:    move.NewCastle(p, false),
		}
	}
}

// genCastles appends the castling moves available to the player to move.
func (g *Generator) genCastles(b *board.Board, out *move.Buffer) int {
	p := b.ToMove()
	n := 0
	for side := range castles[p] {
		d := &castles[p][side]
		if !b.HasRight(d.right) {
			continue
		}
		rookHome := board.RookHome(p, side == 0)
		if !b.At(board.KingHome(p)).Is(board.King, p) || !b.At(rookHome).Is(board.Rook, p) {
			panic(fmt.Sprintf("%v holds %v without king and rook at home", p, d.right))
		}
		if !g.allBlank(b, d.between) {
			continue
		}
		if g.pathAttacked(b, p, d.path) {
			continue
		}
		out.Push(d.snap.WithForfeits(b.CastleRights()))
		n++
	}
	return n
}

func (g *Generator) allBlank(b *board.Board, cs []board.Coord) bool {
	for _, c := range cs {
		if !b.At(c).IsBlank() {
			return false
		}
	}
	return true
}

// pathAttacked walks the king along path on the scratch board, probing
// each square in turn.
func (g *Generator) pathAttacked(b *board.Board, p board.Player, path []board.Coord) bool {
	g.scratch.CopyFrom(b)
	king := board.Occupied(board.King, p)
	prev := path[0]
	for _, c := range path {
		if c != prev {
			g.scratch.Set(prev, board.Blank)
			g.scratch.Set(c, king)
			prev = c
		}
		if attacked(&g.scratch, c, p.Other()) {
			return true
		}
	}
	return false
}
