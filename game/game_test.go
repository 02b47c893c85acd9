package game

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/search/alphabeta"
)

func TestMovesAndMakeMove(t *testing.T) {
	is := is.New(t)
	g := NewGame()
	var list MoveList
	is.NoErr(g.Moves('e', 2, &list))
	is.Equal(list.Len(), 2)
	from, ok := list.From()
	is.True(ok)
	is.Equal(from.String(), "e2")
	is.Equal(list.Destinations()[1].String(), "e4")

	is.NoErr(g.MakeMove(&list, 1))
	is.Equal(g.ToMove(), board.Black)
	sq, err := g.Board().Get('e', 4)
	is.NoErr(err)
	is.True(sq.Is(board.Pawn, board.White))
	is.Equal(len(g.History()), 1)
}

func TestMovesOnBlankOrForeignSquare(t *testing.T) {
	is := is.New(t)
	g := NewGame()
	var list MoveList
	is.NoErr(g.Moves('e', 4, &list))
	is.Equal(list.Len(), 0)
	is.NoErr(g.Moves('e', 7, &list))
	is.Equal(list.Len(), 0)
}

func TestMovesBoundsErrors(t *testing.T) {
	is := is.New(t)
	g := NewGame()
	var list MoveList
	err := g.Moves('j', 2, &list)
	var fe *board.FileOutOfBoundsError
	is.True(errors.As(err, &fe))
	is.Equal(fe.File, 'j')

	err = g.Moves('a', 12, &list)
	var re *board.RankOutOfBoundsError
	is.True(errors.As(err, &re))
	is.Equal(re.Rank, 12)
}

func TestStaleMoveList(t *testing.T) {
	is := is.New(t)
	g := NewGame()
	var stale, fresh MoveList
	is.NoErr(g.Moves('g', 1, &stale))
	is.NoErr(g.Moves('d', 2, &fresh))
	is.NoErr(g.MakeMove(&fresh, 0))

	err := g.MakeMove(&stale, 0)
	is.True(errors.Is(err, ErrStaleMoveList))

	// Undo changes the board too; the list built before it is stale.
	var black MoveList
	is.NoErr(g.Moves('b', 8, &black))
	is.NoErr(g.UndoMove())
	is.True(errors.Is(g.MakeMove(&black, 0), ErrStaleMoveList))

	// The engine keeps working after the error.
	is.NoErr(g.Moves('g', 1, &fresh))
	is.NoErr(g.MakeMove(&fresh, 0))
}

func TestMoveIndexOutOfRange(t *testing.T) {
	is := is.New(t)
	g := NewGame()
	var list MoveList
	is.NoErr(g.Moves('b', 1, &list))
	err := g.MakeMove(&list, 2)
	var ie *MoveIndexOutOfRangeError
	is.True(errors.As(err, &ie))
	is.Equal(ie.Index, 2)
	is.Equal(ie.Len, 2)
	is.True(errors.As(g.MakeMove(&list, -1), &ie))
	is.Equal(g.ToMove(), board.White)
}

func TestUndoRestoresPositionAndHash(t *testing.T) {
	is := is.New(t)
	g := NewGame()
	start := g.Board().Clone()
	h := g.Hash()

	for _, mv := range [][2]string{{"e2", "e4"}, {"e7", "e5"}, {"g1", "f3"}} {
		from, err := board.ParseCoord(mv[0])
		is.NoErr(err)
		to, err := board.ParseCoord(mv[1])
		is.NoErr(err)
		is.NoErr(g.PlayFromTo(from, to))
	}
	is.True(g.Hash() != h)
	for i := 0; i < 3; i++ {
		is.NoErr(g.UndoMove())
	}
	is.True(g.Board().Equal(start))
	is.Equal(g.Hash(), h)
	is.True(errors.Is(g.UndoMove(), ErrNothingToUndo))
}

func TestPlayRejectsIllegal(t *testing.T) {
	is := is.New(t)
	g := NewGame()
	e2, _ := board.ParseCoord("e2")
	e5, _ := board.ParseCoord("e5")
	is.True(errors.Is(g.PlayFromTo(e2, e5), ErrIllegalMove))
}

func TestBestMoveSearchesACopy(t *testing.T) {
	is := is.New(t)
	b, err := board.FromRows([]string{
		"......k.",
		".....ppp",
		"........",
		"........",
		"........",
		"........",
		"........",
		"R.....K.",
	}, board.White, board.NoRights)
	is.NoErr(err)
	g := FromBoard(b)
	before := g.Board().Clone()

	res, err := g.BestMove(context.Background(), 2)
	is.NoErr(err)
	is.Equal(res.Outcome, alphabeta.OutcomeMove)
	is.True(g.Board().Equal(before))
	is.True(strings.Contains(res.RankingText(), "Ra1-a8"))

	is.NoErr(g.Play(res.Best))
	is.Equal(g.Status(), StatusCheckmate)
	res, err = g.BestMove(context.Background(), 2)
	is.NoErr(err)
	is.True(res.NoMoves())
	is.Equal(res.Outcome, alphabeta.OutcomeCheckmate)
}

func TestRandomMove(t *testing.T) {
	is := is.New(t)
	g := NewGame()
	for i := 0; i < 20; i++ {
		m, err := g.RandomMove()
		if errors.Is(err, ErrNoLegalMoves) {
			break
		}
		is.NoErr(err)
		is.NoErr(g.Play(m))
	}
	is.True(len(g.History()) > 0)
}

func TestHistoryText(t *testing.T) {
	is := is.New(t)
	g := NewGame()
	for _, mv := range [][2]string{{"e2", "e4"}, {"e7", "e5"}, {"g1", "f3"}} {
		from, _ := board.ParseCoord(mv[0])
		to, _ := board.ParseCoord(mv[1])
		is.NoErr(g.PlayFromTo(from, to))
	}
	is.Equal(g.HistoryText(), " 1. e2-e4 e7-e5\n 2. Ng1-f3")
}
