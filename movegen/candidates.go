package movegen

import (
	"fmt"

	"github.com/castellan-chess/castellan/board"
)

type direction struct {
	df, dr int8
}

var (
	rookDirs   = []direction{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	bishopDirs = []direction{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
	queenDirs  = append(append([]direction{}, rookDirs...), bishopDirs...)
	knightJump = []direction{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingStep   = queenDirs
)

// visitFunc receives a candidate destination. Returning false stops the
// enumeration.
type visitFunc func(to board.Coord) bool

// candidates enumerates the pseudo-legal destinations of the piece on from,
// which must belong to the player. It reports whether the enumeration ran
// to completion.
func candidates(b *board.Board, from board.Coord, visit visitFunc) bool {
	sq := b.At(from)
	if sq.IsBlank() {
		panic(fmt.Sprintf("location set has %v but the square is blank", from))
	}
	mover := sq.Player()
	switch sq.Piece() {
	case board.Pawn:
		return pawnCandidates(b, from, mover, visit)
	case board.Rook:
		return slide(b, from, mover, rookDirs, visit)
	case board.Bishop:
		return slide(b, from, mover, bishopDirs, visit)
	case board.Queen:
		return slide(b, from, mover, queenDirs, visit)
	case board.Knight:
		return step(b, from, mover, knightJump, visit)
	case board.King:
		return step(b, from, mover, kingStep, visit)
	}
	panic(fmt.Sprintf("unknown piece on %v: %v", from, sq))
}

func slide(b *board.Board, from board.Coord, mover board.Player, dirs []direction, visit visitFunc) bool {
	for _, d := range dirs {
		to := from
		for {
			var ok bool
			to, ok = to.Offset(d.df, d.dr)
			if !ok {
				break
			}
			target := b.At(to)
			if target.OwnedBy(mover) {
				break
			}
			if !visit(to) {
				return false
			}
			if !target.IsBlank() {
				break
			}
		}
	}
	return true
}

func step(b *board.Board, from board.Coord, mover board.Player, offsets []direction, visit visitFunc) bool {
	for _, d := range offsets {
		to, ok := from.Offset(d.df, d.dr)
		if !ok || b.At(to).OwnedBy(mover) {
			continue
		}
		if !visit(to) {
			return false
		}
	}
	return true
}

func pawnCandidates(b *board.Board, from board.Coord, mover board.Player, visit visitFunc) bool {
	fwd := mover.Forward()
	if one, ok := from.Offset(0, fwd); ok && b.At(one).IsBlank() {
		if !visit(one) {
			return false
		}
		if from.Rank == mover.PawnRank() {
			if two, ok := one.Offset(0, fwd); ok && b.At(two).IsBlank() {
				if !visit(two) {
					return false
				}
			}
		}
	}
	for _, df := range []int8{-1, 1} {
		to, ok := from.Offset(df, fwd)
		if !ok || !b.At(to).OwnedBy(mover.Other()) {
			continue
		}
		if !visit(to) {
			return false
		}
	}
	return true
}

// attacked is the threat probe: it runs every piece of by through the
// candidate logic and stops at the first one that could land on target.
func attacked(b *board.Board, target board.Coord, by board.Player) bool {
	found := false
	for s := b.Pieces(by); s != 0 && !found; {
		var c board.Coord
		c, s = s.Pop()
		if !b.At(c).OwnedBy(by) {
			panic(fmt.Sprintf("location set of %v has %v but the square holds %v", by, c, b.At(c)))
		}
		candidates(b, c, func(to board.Coord) bool {
			if to == target {
				found = true
				return false
			}
			return true
		})
	}
	return found
}

// kingCapturable reports whether p's king could be taken by the opponent on
// b. A side without a king is never in check.
func kingCapturable(b *board.Board, p board.Player) bool {
	k, ok := b.KingCoord(p)
	if !ok {
		return false
	}
	return attacked(b, k, p.Other())
}
