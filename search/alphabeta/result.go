package alphabeta

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/common"
	"github.com/castellan-chess/castellan/move"
)

type Outcome int

const (
	// OutcomeMove means the search found a move to play.
	OutcomeMove Outcome = iota
	// OutcomeCheckmate and OutcomeStalemate mean the side to move has no
	// legal move, with and without its king attacked.
	OutcomeCheckmate
	OutcomeStalemate
	// OutcomeStatic is a depth-0 search: the static evaluation only.
	OutcomeStatic
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMove:
		return "move"
	case OutcomeCheckmate:
		return "checkmate"
	case OutcomeStalemate:
		return "stalemate"
	case OutcomeStatic:
		return "static"
	}
	return "unknown"
}

type Result struct {
	// Best is nil unless Outcome is OutcomeMove.
	Best    *move.Snapshot
	Value   float64
	Outcome Outcome
	Mover   board.Player
	Depth   int
	Leaves  uint64
	PV      common.PVLine
	// Ranking is every root move, best first for the mover. Moves searched
	// after a better sibling carry a bound rather than an exact value.
	Ranking []move.Snapshot
}

// NoMoves reports whether the side to move had no legal move.
func (r *Result) NoMoves() bool {
	return r.Outcome == OutcomeCheckmate || r.Outcome == OutcomeStalemate
}

// RankingText lists the root moves with their evaluations, one per line.
func (r *Result) RankingText() string {
	lines := lo.Map(r.Ranking, func(m move.Snapshot, i int) string {
		return fmt.Sprintf("%2d. %-8s eval=%.3f", i+1, m.ShortDescription(), m.Eval())
	})
	return strings.Join(lines, "\n")
}

func (r *Result) String() string {
	switch r.Outcome {
	case OutcomeMove:
		return fmt.Sprintf("%v plays %s, eval %.3f (depth %d, %d leaves)",
			r.Mover, r.Best.ShortDescription(), r.Value, r.Depth, r.Leaves)
	case OutcomeStatic:
		return fmt.Sprintf("static eval %.3f", r.Value)
	}
	return fmt.Sprintf("%v has no legal moves: %v, eval %.3f", r.Mover, r.Outcome, r.Value)
}
