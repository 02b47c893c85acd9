// Package eval is the static evaluator used at the search horizon.
// Positive scores favour white.
package eval

import (
	"math"

	"github.com/castellan-chess/castellan/board"
)

// MaxEval bounds every evaluation. A side with no legal moves scores
// MaxEval against itself.
const MaxEval = 9001.0

const (
	pawnAdvanceWeight = 0.075
	centralWeight     = 0.3
	center            = 3.5
)

var material = [...]float64{
	board.Pawn:   1,
	board.Rook:   5,
	board.Knight: 3,
	board.Bishop: 3,
	board.Queen:  9,
	board.King:   0,
}

// Evaluate scores b: white's total plus black's negated total.
func Evaluate(b *board.Board) float64 {
	return EvaluatePlayer(b, board.Black) + EvaluatePlayer(b, board.White)
}

// EvaluatePlayer is p's material plus positional bonus, negated for black.
// Pawns earn the square of how far they have come from their own back
// rank; every other piece earns a bonus for standing on the central ranks.
func EvaluatePlayer(b *board.Board, p board.Player) float64 {
	value := 0.0
	for s := b.Pieces(p); s != 0; {
		var c board.Coord
		c, s = s.Pop()
		pc := b.At(c).Piece()
		value += material[pc]
		rank := float64(c.Rank)
		if pc == board.Pawn {
			adv := rank
			if p == board.Black {
				adv = board.Dim - 1 - rank
			}
			value += adv * adv * pawnAdvanceWeight
		} else {
			value += centralWeight * (center - math.Abs(center-rank))
		}
	}
	if p == board.Black {
		value = -value
	}
	return value
}

// Mated is the score of a position where p has no legal move.
func Mated(p board.Player) float64 {
	if p == board.White {
		return -MaxEval
	}
	return MaxEval
}
