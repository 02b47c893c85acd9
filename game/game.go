// Package game is the face of the engine for drivers such as the shell:
// listing a square's moves, playing one, taking it back, and asking the
// search for a move.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/move"
	"github.com/castellan-chess/castellan/movegen"
	"github.com/castellan-chess/castellan/search/alphabeta"
	"github.com/castellan-chess/castellan/zobrist"
)

var (
	ErrStaleMoveList = errors.New("move list is stale: the board changed since it was built")
	ErrNothingToUndo = errors.New("no moves to undo")
	ErrNoLegalMoves  = errors.New("no legal moves")
	ErrIllegalMove   = errors.New("illegal move")
)

type MoveIndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *MoveIndexOutOfRangeError) Error() string {
	return fmt.Sprintf("move index %d out of range; list has %d moves", e.Index, e.Len)
}

type Status int

const (
	StatusPlaying Status = iota
	StatusCheckmate
	StatusStalemate
)

func (s Status) String() string {
	switch s {
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	}
	return "playing"
}

// Game is a position plus the moves that led to it. Not safe for
// concurrent use.
type Game struct {
	board   *board.Board
	gen     *movegen.Generator
	buf     *move.Buffer
	solver  *alphabeta.Solver
	zobrist *zobrist.Zobrist
	hash    uint64

	history []move.Snapshot
}

// NewGame starts a game from the standard position.
func NewGame() *Game {
	return FromBoard(board.NewStandard())
}

// FromBoard starts a game from a copy of b.
func FromBoard(b *board.Board) *Game {
	g := &Game{
		board:   b.Clone(),
		gen:     movegen.NewGenerator(),
		buf:     move.NewBuffer(64),
		solver:  alphabeta.NewSolver(alphabeta.DefaultBufferCapacity),
		zobrist: zobrist.New(),
	}
	g.hash = g.zobrist.Hash(g.board)
	return g
}

func (g *Game) Board() *board.Board {
	return g.board
}

// Solver is the search used by BestMove, for configuration.
func (g *Game) Solver() *alphabeta.Solver {
	return g.solver
}

// SetSolver replaces the search used by BestMove.
func (g *Game) SetSolver(s *alphabeta.Solver) {
	g.solver = s
}

func (g *Game) ToMove() board.Player {
	return g.board.ToMove()
}

// Hash is the zobrist key of the current position.
func (g *Game) Hash() uint64 {
	return g.hash
}

func (g *Game) History() []move.Snapshot {
	return g.history
}

// Moves fills list with the legal moves of the piece on the square given
// by file letter and rank number. A blank square or one owned by the
// player not on turn gives an empty list.
func (g *Game) Moves(file rune, rank int, list *MoveList) error {
	c, err := board.CoordFromAlgebraic(file, rank)
	if err != nil {
		return err
	}
	g.MovesFrom(c, list)
	return nil
}

// MovesFrom is Moves for a coordinate.
func (g *Game) MovesFrom(c board.Coord, list *MoveList) {
	g.buf.SetCursor(0)
	n := g.gen.GenSquare(g.board, c, g.buf)
	list.fill(g.buf.Slice(0, n), c, true, g.board.Revision())
}

// AllMoves fills list with every legal move of the player on turn.
func (g *Game) AllMoves(list *MoveList) {
	g.buf.SetCursor(0)
	n := g.gen.GenAll(g.board, g.buf)
	list.fill(g.buf.Slice(0, n), board.Coord{}, false, g.board.Revision())
}

// MakeMove plays the n-th move of list. The list must have been built on
// the current position.
func (g *Game) MakeMove(list *MoveList, n int) error {
	if list.revision != g.board.Revision() {
		return ErrStaleMoveList
	}
	if n < 0 || n >= len(list.moves) {
		return &MoveIndexOutOfRangeError{Index: n, Len: len(list.moves)}
	}
	g.play(list.moves[n])
	return nil
}

// Play plays m if it is legal in the current position.
func (g *Game) Play(m *move.Snapshot) error {
	var list MoveList
	g.MovesFrom(m.From(), &list)
	for i := range list.moves {
		if list.moves[i].Equal(m) {
			return g.MakeMove(&list, i)
		}
	}
	return fmt.Errorf("%w: %s", ErrIllegalMove, m.ShortDescription())
}

// PlayFromTo plays the move of the piece on from to to.
func (g *Game) PlayFromTo(from, to board.Coord) error {
	var list MoveList
	g.MovesFrom(from, &list)
	for i := range list.moves {
		if list.moves[i].To() == to {
			return g.MakeMove(&list, i)
		}
	}
	return fmt.Errorf("%w: %v to %v", ErrIllegalMove, from, to)
}

func (g *Game) play(m move.Snapshot) {
	log.Debug().Str("move", m.ShortDescription()).Stringer("player", g.board.ToMove()).Msg("play-move")
	m.Apply(g.board)
	g.hash = g.zobrist.AddMove(g.hash, &m)
	g.history = append(g.history, m)
}

// UndoMove takes back the last move played.
func (g *Game) UndoMove() error {
	if len(g.history) == 0 {
		return ErrNothingToUndo
	}
	m := g.history[len(g.history)-1]
	g.history = g.history[:len(g.history)-1]
	m.Undo(g.board)
	g.hash = g.zobrist.AddMove(g.hash, &m)
	log.Debug().Str("move", m.ShortDescription()).Msg("undo-move")
	return nil
}

// BestMove searches the current position to depth plies without playing
// anything. The search runs on its own copy of the board.
func (g *Game) BestMove(ctx context.Context, depth int) (*alphabeta.Result, error) {
	return g.solver.Solve(ctx, g.board, depth)
}

// RandomMove picks a uniformly random legal move without playing it.
func (g *Game) RandomMove() (*move.Snapshot, error) {
	var list MoveList
	g.AllMoves(&list)
	if list.Len() == 0 {
		return nil, ErrNoLegalMoves
	}
	return list.At(frand.Intn(list.Len())), nil
}

// Status reports whether the player on turn can move.
func (g *Game) Status() Status {
	if g.gen.HasLegalMove(g.board) {
		return StatusPlaying
	}
	if g.gen.InCheck(g.board, g.board.ToMove()) {
		return StatusCheckmate
	}
	return StatusStalemate
}

func (g *Game) InCheck() bool {
	return g.gen.InCheck(g.board, g.board.ToMove())
}

// HistoryText renders the moves played so far in numbered pairs.
func (g *Game) HistoryText() string {
	var sb strings.Builder
	// A game set up with black to move starts mid-pair.
	first := g.board.ToMove()
	if len(g.history)%2 == 1 {
		first = first.Other()
	}
	ply := 0
	if first == board.Black {
		sb.WriteString(" 1. ...")
		ply = 1
	}
	for i := range g.history {
		if ply%2 == 0 {
			if ply > 0 {
				sb.WriteByte('\n')
			}
			fmt.Fprintf(&sb, "%2d.", ply/2+1)
		}
		sb.WriteByte(' ')
		sb.WriteString(g.history[i].ShortDescription())
		ply++
	}
	return sb.String()
}

func (g *Game) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString(g.board.ToDisplayText())
	switch st := g.Status(); st {
	case StatusPlaying:
		if g.InCheck() {
			sb.WriteString("check\n")
		}
	default:
		fmt.Fprintf(&sb, "%v\n", st)
	}
	return sb.String()
}
