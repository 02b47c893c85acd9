package common

import (
	"fmt"
	"strings"

	"github.com/castellan-chess/castellan/move"
)

// PVLine is a line of best play found by the search, best move first.
// Credit: MIT-licensed https://github.com/algerbrex/blunder/blob/main/engine/search.go
type PVLine struct {
	Moves []move.Snapshot
	score float64
}

// Clear the principal variation line.
func (pvLine *PVLine) Clear() {
	pvLine.Moves = pvLine.Moves[:0]
}

// Update the principal variation line with a new best move,
// and a new line of best play after the best move.
func (pvLine *PVLine) Update(m move.Snapshot, newPVLine PVLine, score float64) {
	pvLine.Clear()
	m.SetEval(score)
	pvLine.Moves = append(pvLine.Moves, m)
	pvLine.Moves = append(pvLine.Moves, newPVLine.Moves...)
	pvLine.score = score
}

// GetPVMove returns the best move, or nil if the line is empty.
func (pvLine *PVLine) GetPVMove() *move.Snapshot {
	if len(pvLine.Moves) == 0 {
		return nil
	}
	return &pvLine.Moves[0]
}

func (pvLine *PVLine) Score() float64 {
	return pvLine.score
}

// Copy returns an independent copy of the line.
func (pvLine *PVLine) Copy() PVLine {
	return PVLine{
		Moves: append([]move.Snapshot(nil), pvLine.Moves...),
		score: pvLine.score,
	}
}

// Convert the principal variation line to a string.
func (pvLine PVLine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %.3f\n", pvLine.score)
	for i := range pvLine.Moves {
		fmt.Fprintf(&sb, "%d: %s (%.3f)\n",
			i+1,
			pvLine.Moves[i].ShortDescription(),
			pvLine.Moves[i].Eval())
	}
	return sb.String()
}

func (pvLine PVLine) NLBString() string {
	// no line breaks
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %.3f; ", pvLine.score)
	for i := range pvLine.Moves {
		fmt.Fprintf(&sb, "%d: %s (%.3f); ",
			i+1,
			pvLine.Moves[i].ShortDescription(),
			pvLine.Moves[i].Eval())
	}
	return sb.String()
}
