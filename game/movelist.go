package game

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/move"
)

// A MoveList is a snapshot of legal moves taken at one board revision.
// Playing from it after the board has changed fails with ErrStaleMoveList.
type MoveList struct {
	from     board.Coord
	hasFrom  bool
	revision uint64
	moves    []move.Snapshot
}

func (l *MoveList) fill(ms []move.Snapshot, from board.Coord, hasFrom bool, revision uint64) {
	l.moves = append(l.moves[:0], ms...)
	l.from = from
	l.hasFrom = hasFrom
	l.revision = revision
}

func (l *MoveList) Len() int {
	return len(l.moves)
}

func (l *MoveList) At(i int) *move.Snapshot {
	return &l.moves[i]
}

// From is the square the list was built for; ok is false for a list of all
// moves.
func (l *MoveList) From() (c board.Coord, ok bool) {
	return l.from, l.hasFrom
}

// Destinations lists where each move lands, in list order.
func (l *MoveList) Destinations() []board.Coord {
	return lo.Map(l.moves, func(m move.Snapshot, _ int) board.Coord {
		return m.To()
	})
}

func (l *MoveList) String() string {
	lines := lo.Map(l.moves, func(m move.Snapshot, i int) string {
		return fmt.Sprintf("%2d: %s", i, m.ShortDescription())
	})
	return strings.Join(lines, "\n")
}
