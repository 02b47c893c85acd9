// Package alphabeta picks a move by depth-limited minimax search with
// alpha-beta pruning. White maximizes the static evaluation, black
// minimizes it.
package alphabeta

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/common"
	"github.com/castellan-chess/castellan/eval"
	"github.com/castellan-chess/castellan/move"
	"github.com/castellan-chess/castellan/movegen"
)

const DefaultBufferCapacity = 1024

// Solver searches on its own copy of the position. A Solver must not be used
// by more than one goroutine at a time; concurrent searches need separate
// Solvers.
type Solver struct {
	board board.Board
	gen   *movegen.Generator
	buf   *move.Buffer

	leaves *atomic.Uint64

	pruningDisabled bool
	logStream       io.Writer

	rootEnd int
}

// NewSolver creates a solver whose shared move buffer starts with the given
// capacity. It grows on demand.
func NewSolver(bufferCapacity int) *Solver {
	if bufferCapacity <= 0 {
		bufferCapacity = DefaultBufferCapacity
	}
	return &Solver{
		gen:    movegen.NewGenerator(),
		buf:    move.NewBuffer(bufferCapacity),
		leaves: &atomic.Uint64{},
	}
}

// SetLeafCounter makes the solver count evaluated leaves on c, which another
// goroutine may read while a search runs.
func (s *Solver) SetLeafCounter(c *atomic.Uint64) {
	s.leaves = c
}

func (s *Solver) LeafCounter() *atomic.Uint64 {
	return s.leaves
}

// SetPruningDisabled turns the search into plain minimax.
func (s *Solver) SetPruningDisabled(d bool) {
	s.pruningDisabled = d
}

// SetLogStream makes every Solve write a YAML record of its root ranking
// to l. Pass nil to stop logging.
func (s *Solver) SetLogStream(l io.Writer) {
	s.logStream = l
}

// Solve searches b to depth plies and returns the chosen move. b itself is
// not modified. Depth 0 returns the static evaluation of b. The search
// stops between sibling moves if ctx is cancelled.
func (s *Solver) Solve(ctx context.Context, b *board.Board, depth int) (*Result, error) {
	s.board.CopyFrom(b)
	s.buf.SetCursor(0)
	s.rootEnd = 0
	mover := b.ToMove()

	log.Debug().Int("depth", depth).Stringer("to-move", mover).Msg("alphabeta-solve-config")

	if depth <= 0 {
		return &Result{
			Outcome: OutcomeStatic,
			Value:   eval.Evaluate(&s.board),
			Mover:   mover,
		}, nil
	}

	tstart := time.Now()
	startLeaves := s.leaves.Load()
	var pv common.PVLine
	var value float64

	g := &errgroup.Group{}
	done := make(chan bool)

	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		lastLeaves := s.leaves.Load()
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				leaves := s.leaves.Load()
				log.Debug().Uint64("nps", leaves-lastLeaves).Msg("nodes-per-second")
				lastLeaves = leaves
			}
		}
	})

	g.Go(func() error {
		var err error
		value, err = s.alphabeta(ctx, depth, math.Inf(-1), math.Inf(1), &pv)
		done <- true
		return err
	})

	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("search to depth %d: %w", depth, err)
	}

	res := &Result{
		Value:  value,
		Mover:  mover,
		Depth:  depth,
		Leaves: s.leaves.Load() - startLeaves,
		PV:     pv.Copy(),
	}
	switch {
	case s.rootEnd == 0 && s.gen.InCheck(&s.board, mover):
		res.Outcome = OutcomeCheckmate
	case s.rootEnd == 0:
		res.Outcome = OutcomeStalemate
	default:
		res.Outcome = OutcomeMove
		res.Best = res.PV.GetPVMove()
		res.Ranking = s.rank(mover)
	}

	log.Debug().
		Uint64("leaves", res.Leaves).
		Float64("value", res.Value).
		Str("outcome", res.Outcome.String()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("solve-returning")

	if s.logStream != nil {
		if err := s.writeLog(res); err != nil {
			log.Err(err).Msg("writing-search-log")
		}
	}
	return res, nil
}

// alphabeta searches the position on s.board. The moves it generates
// occupy the buffer from the cursor on entry; children write above them.
// The cursor is back where it started on return. The node's best move is
// written to pv.
func (s *Solver) alphabeta(ctx context.Context, plies int, alpha, beta float64, pv *common.PVLine) (float64, error) {
	mover := s.board.ToMove()
	base := s.buf.Cursor()
	defer s.buf.SetCursor(base)

	s.gen.GenAll(&s.board, s.buf)
	end := s.buf.Cursor()
	if base == 0 {
		s.rootEnd = end
	}
	pv.Clear()
	if base == end {
		return eval.Mated(mover), nil
	}

	var childPV common.PVLine
	best := 0.0
	found := false

	for i := base; i < end; i++ {
		if i > base {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		m := s.buf.Get(i)
		m.Apply(&s.board)

		var v float64
		if plies > 1 {
			var err error
			v, err = s.alphabeta(ctx, plies-1, alpha, beta, &childPV)
			if err != nil {
				m.Undo(&s.board)
				return 0, err
			}
		} else {
			v = eval.Evaluate(&s.board)
			s.leaves.Add(1)
			childPV.Clear()
		}
		m.Undo(&s.board)
		s.buf.SetEval(i, v)

		if !found || better(mover, v, best) {
			found = true
			best = v
			pv.Update(m, childPV, v)
		}

		if mover == board.White {
			alpha = math.Max(alpha, best)
			if best >= beta && !s.pruningDisabled {
				return best, nil
			}
		} else {
			beta = math.Min(beta, best)
			if best <= alpha && !s.pruningDisabled {
				return best, nil
			}
		}
	}
	return best, nil
}

// better reports whether v is strictly better than best for p. Ties keep
// the earlier move.
func better(p board.Player, v, best float64) bool {
	if p == board.White {
		return v > best
	}
	return v < best
}

// rank returns the root moves ordered best first for the mover.
func (s *Solver) rank(mover board.Player) []move.Snapshot {
	if s.rootEnd == 0 {
		return nil
	}
	s.buf.SortRange(0, s.rootEnd, mover == board.White)
	return append([]move.Snapshot(nil), s.buf.Slice(0, s.rootEnd)...)
}

type logRankedMove struct {
	Move string  `yaml:"move"`
	Eval float64 `yaml:"eval"`
}

type logSearch struct {
	Depth   int             `yaml:"depth"`
	Mover   string          `yaml:"mover"`
	Outcome string          `yaml:"outcome"`
	Value   float64         `yaml:"value"`
	Leaves  uint64          `yaml:"leaves"`
	PV      []string        `yaml:"pv,omitempty"`
	Ranking []logRankedMove `yaml:"ranking,omitempty"`
}

func (s *Solver) writeLog(res *Result) error {
	entry := logSearch{
		Depth:   res.Depth,
		Mover:   res.Mover.String(),
		Outcome: res.Outcome.String(),
		Value:   res.Value,
		Leaves:  res.Leaves,
	}
	for i := range res.PV.Moves {
		entry.PV = append(entry.PV, res.PV.Moves[i].ShortDescription())
	}
	for i := range res.Ranking {
		entry.Ranking = append(entry.Ranking, logRankedMove{
			Move: res.Ranking[i].ShortDescription(),
			Eval: res.Ranking[i].Eval(),
		})
	}
	out, err := yaml.Marshal([]logSearch{entry})
	if err != nil {
		return err
	}
	_, err = s.logStream.Write(out)
	return err
}
