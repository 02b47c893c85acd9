package alphabeta

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/eval"
	"github.com/castellan-chess/castellan/move"
	"github.com/castellan-chess/castellan/movegen"
)

func mustBoard(t *testing.T, rows []string, toMove board.Player, rights board.CastleRights) *board.Board {
	t.Helper()
	b, err := board.FromRows(rows, toMove, rights)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

var kiwipete = []string{
	"r...k..r",
	"p.ppqpb.",
	"bn..pnp.",
	"...PN...",
	".p..P...",
	"..N..Q.p",
	"PPPBBPPP",
	"R...K..R",
}

var rookEndgame = []string{
	"........",
	"..p.....",
	"...p....",
	"KP.....r",
	".R...p.k",
	"........",
	"....P.P.",
	"........",
}

var backRankMate = []string{
	"......k.",
	".....ppp",
	"........",
	"........",
	"........",
	"........",
	"........",
	"R.....K.",
}

// minimax is an exhaustive reference search sharing nothing with the
// solver but the generator and evaluator.
func minimax(gen *movegen.Generator, b *board.Board, plies int) float64 {
	buf := move.NewBuffer(64)
	n := gen.GenAll(b, buf)
	if n == 0 {
		return eval.Mated(b.ToMove())
	}
	white := b.ToMove() == board.White
	best := math.Inf(1)
	if white {
		best = math.Inf(-1)
	}
	for i := 0; i < n; i++ {
		m := buf.Get(i)
		m.Apply(b)
		var v float64
		if plies > 1 {
			v = minimax(gen, b, plies-1)
		} else {
			v = eval.Evaluate(b)
		}
		m.Undo(b)
		if white {
			best = math.Max(best, v)
		} else {
			best = math.Min(best, v)
		}
	}
	return best
}

func TestAlphaBetaMatchesMinimax(t *testing.T) {
	gen := movegen.NewGenerator()
	for _, tc := range []struct {
		name  string
		b     *board.Board
		depth int
	}{
		{"start-1", board.NewStandard(), 1},
		{"start-2", board.NewStandard(), 2},
		{"start-3", board.NewStandard(), 3},
		{"kiwipete-2", mustBoard(t, kiwipete, board.White, board.AllRights), 2},
		{"kiwipete-black-2", mustBoard(t, kiwipete, board.Black, board.AllRights), 2},
		{"rook-endgame-3", mustBoard(t, rookEndgame, board.White, board.NoRights), 3},
		{"rook-endgame-black-3", mustBoard(t, rookEndgame, board.Black, board.NoRights), 3},
		{"back-rank-3", mustBoard(t, backRankMate, board.White, board.NoRights), 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			before := tc.b.Clone()
			expected := minimax(gen, tc.b.Clone(), tc.depth)

			s := NewSolver(0)
			pruned, err := s.Solve(context.Background(), tc.b, tc.depth)
			is.NoErr(err)
			is.Equal(pruned.Value, expected)
			is.True(tc.b.Equal(before)) // Solve must not touch the caller's board

			s.SetPruningDisabled(true)
			full, err := s.Solve(context.Background(), tc.b, tc.depth)
			is.NoErr(err)
			is.Equal(full.Value, expected)
			is.True(full.Best.Equal(pruned.Best)) // pruning changes nodes, not the choice
			is.True(pruned.Leaves <= full.Leaves)
		})
	}
}

func TestDepthZeroIsStaticEval(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t, kiwipete, board.White, board.AllRights)
	res, err := NewSolver(0).Solve(context.Background(), b, 0)
	is.NoErr(err)
	is.Equal(res.Outcome, OutcomeStatic)
	is.Equal(res.Value, eval.Evaluate(b))
	is.True(res.Best == nil)
	is.Equal(res.Leaves, uint64(0))
}

func TestFindsMateInOne(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t, backRankMate, board.White, board.NoRights)
	res, err := NewSolver(0).Solve(context.Background(), b, 2)
	is.NoErr(err)
	is.Equal(res.Outcome, OutcomeMove)
	is.Equal(res.Best.ShortDescription(), "Ra1-a8")
	is.Equal(res.Value, eval.MaxEval)
	is.Equal(res.Best.Eval(), eval.MaxEval)
	is.Equal(res.Ranking[0].ShortDescription(), "Ra1-a8")
}

func TestNoLegalMoves(t *testing.T) {
	is := is.New(t)
	mated := mustBoard(t, []string{
		"R.....k.",
		".....ppp",
		"........",
		"........",
		"........",
		"........",
		"........",
		"......K.",
	}, board.Black, board.NoRights)
	res, err := NewSolver(0).Solve(context.Background(), mated, 3)
	is.NoErr(err)
	is.Equal(res.Outcome, OutcomeCheckmate)
	is.True(res.NoMoves())
	is.True(res.Best == nil)
	is.Equal(len(res.Ranking), 0)
	is.Equal(res.Value, eval.Mated(board.Black))

	stalemate := mustBoard(t, []string{
		"k.......",
		"..Q.....",
		".K......",
		"........",
		"........",
		"........",
		"........",
		"........",
	}, board.Black, board.NoRights)
	res, err = NewSolver(0).Solve(context.Background(), stalemate, 2)
	is.NoErr(err)
	is.Equal(res.Outcome, OutcomeStalemate)
	is.True(res.Best == nil)
	is.True(strings.Contains(res.String(), "no legal moves"))
}

func TestTiesPreferEarliestMove(t *testing.T) {
	is := is.New(t)
	// Lone kings: every king move scores the same at depth 1 except for
	// the centralization term, which is equal for all moves within a rank.
	b := mustBoard(t, []string{
		"k.......",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....K...",
	}, board.White, board.NoRights)
	res, err := NewSolver(0).Solve(context.Background(), b, 1)
	is.NoErr(err)

	buf := move.NewBuffer(16)
	n := movegen.NewGenerator().GenAll(b, buf)
	var first *move.Snapshot
	for i := 0; i < n; i++ {
		m := buf.At(i)
		m.Apply(b)
		v := eval.Evaluate(b)
		m.Undo(b)
		if v == res.Value {
			first = m
			break
		}
	}
	is.True(first != nil)
	is.True(res.Best.Equal(first))
}

func TestLeafCounterIsShared(t *testing.T) {
	is := is.New(t)
	var counter atomic.Uint64
	s1, s2 := NewSolver(0), NewSolver(0)
	s1.SetLeafCounter(&counter)
	s2.SetLeafCounter(&counter)
	s1.SetPruningDisabled(true)
	s2.SetPruningDisabled(true)

	r1, err := s1.Solve(context.Background(), board.NewStandard(), 2)
	is.NoErr(err)
	is.Equal(r1.Leaves, uint64(400))
	r2, err := s2.Solve(context.Background(), board.NewStandard(), 1)
	is.NoErr(err)
	is.Equal(r2.Leaves, uint64(20))
	is.Equal(counter.Load(), uint64(420))
}

func TestBufferCursorRestored(t *testing.T) {
	is := is.New(t)
	s := NewSolver(4) // forces growth
	res, err := s.Solve(context.Background(), board.NewStandard(), 3)
	is.NoErr(err)
	is.Equal(s.buf.Cursor(), 0)
	is.True(s.buf.Len() >= 60) // three frames of ~20 moves
	is.Equal(len(res.Ranking), 20)
	for i := 1; i < len(res.Ranking); i++ {
		is.True(res.Ranking[i-1].Eval() >= res.Ranking[i].Eval())
	}
}

func TestBlackRankingAscending(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t, kiwipete, board.Black, board.AllRights)
	res, err := NewSolver(0).Solve(context.Background(), b, 1)
	is.NoErr(err)
	is.True(len(res.Ranking) > 1)
	for i := 1; i < len(res.Ranking); i++ {
		is.True(res.Ranking[i-1].Eval() <= res.Ranking[i].Eval())
	}
	is.Equal(res.Ranking[0].Eval(), res.Value)
	is.Equal(len(strings.Split(res.RankingText(), "\n")), len(res.Ranking))
}

func TestCancelledSearch(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSolver(0).Solve(ctx, board.NewStandard(), 3)
	is.True(errors.Is(err, context.Canceled))
}

func TestLogStream(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	s := NewSolver(0)
	s.SetLogStream(&out)
	_, err := s.Solve(context.Background(), board.NewStandard(), 1)
	is.NoErr(err)

	var entries []logSearch
	is.NoErr(yaml.Unmarshal(out.Bytes(), &entries))
	is.Equal(len(entries), 1)
	is.Equal(entries[0].Depth, 1)
	is.Equal(entries[0].Outcome, "move")
	assert.Len(t, entries[0].Ranking, 20)
	assert.Equal(t, uint64(20), entries[0].Leaves)
}

func BenchmarkSolveDepth3(b *testing.B) {
	s := NewSolver(0)
	pos := board.NewStandard()
	for i := 0; i < b.N; i++ {
		if _, err := s.Solve(context.Background(), pos, 3); err != nil {
			b.Fatal(err)
		}
	}
}
