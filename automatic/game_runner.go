package automatic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"

	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/game"
	"github.com/castellan-chess/castellan/search/alphabeta"
)

const (
	OutcomeCheckmate  = "checkmate"
	OutcomeStalemate  = "stalemate"
	OutcomeUnfinished = "unfinished"
)

// GameResult is how one self-play game ended. Engine A and B are the two
// search depths being compared; either may play white.
type GameResult struct {
	GameID     string `yaml:"game_id"`
	AIsWhite   bool   `yaml:"a_is_white"`
	Outcome    string `yaml:"outcome"`
	Winner     string `yaml:"winner,omitempty"`
	Plies      int    `yaml:"plies"`
	LeavesA    uint64 `yaml:"leaves_a"`
	LeavesB    uint64 `yaml:"leaves_b"`
	FinalBoard string `yaml:"-"`
}

// AWon reports whether engine A delivered mate.
func (r *GameResult) AWon() bool {
	return r.Winner != "" && (r.Winner == board.White.String()) == r.AIsWhite
}

// BWon reports whether engine B delivered mate.
func (r *GameResult) BWon() bool {
	return r.Winner != "" && !r.AWon()
}

// GameRunner plays one game at a time between two engines. Each runner
// owns its solvers, so runners on different goroutines never share search
// state.
type GameRunner struct {
	opts    Options
	solvers [2]*alphabeta.Solver // engine A, engine B
	logchan chan []string
}

func NewGameRunner(opts Options, logchan chan []string) *GameRunner {
	r := &GameRunner{opts: opts, logchan: logchan}
	for i := range r.solvers {
		r.solvers[i] = alphabeta.NewSolver(opts.BufferCapacity)
	}
	return r
}

// aPlaysWhite decides colours from the game ID, so that a rerun with the
// same IDs gives the same pairings.
func aPlaysWhite(gameID string) bool {
	return xxhash.Sum64String(gameID)&1 == 0
}

func (r *GameRunner) depth(engine int) int {
	if engine == 0 {
		return r.opts.DepthA
	}
	return r.opts.DepthB
}

// search asks engine for a move. A nil result with a nil error means the
// per-move time limit ran out before the search finished.
func (r *GameRunner) search(ctx context.Context, g *game.Game, engine int) (*alphabeta.Result, error) {
	sctx := ctx
	if r.opts.MaxTime > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, r.opts.MaxTime)
		defer cancel()
	}
	sr, err := r.solvers[engine].Solve(sctx, g.Board(), r.depth(engine))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, nil
		}
		return nil, err
	}
	return sr, nil
}

// PlayGame plays a game to mate, stalemate or the ply limit.
func (r *GameRunner) PlayGame(ctx context.Context, gameID string) (*GameResult, error) {
	g := game.NewGame()
	res := &GameResult{GameID: gameID, AIsWhite: aPlaysWhite(gameID)}
	engineFor := func(p board.Player) int {
		if (p == board.White) == res.AIsWhite {
			return 0
		}
		return 1
	}

	if r.opts.SearchLogDir != "" {
		f, err := os.Create(filepath.Join(r.opts.SearchLogDir, gameID+".yaml"))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		for _, s := range r.solvers {
			s.SetLogStream(f)
			defer s.SetLogStream(nil)
		}
	}

	for ply := 0; ; ply++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch g.Status() {
		case game.StatusCheckmate:
			res.Outcome = OutcomeCheckmate
			res.Winner = g.ToMove().Other().String()
		case game.StatusStalemate:
			res.Outcome = OutcomeStalemate
		}
		if res.Outcome == "" && ply >= r.opts.MaxPlies {
			res.Outcome = OutcomeUnfinished
		}
		if res.Outcome != "" {
			res.Plies = ply
			res.FinalBoard = g.ToDisplayText()
			break
		}

		mover := g.ToMove()
		engine := engineFor(mover)
		var played string
		var evalText string
		if ply < r.opts.RandomPlies {
			m, err := g.RandomMove()
			if err != nil {
				return nil, err
			}
			if err := g.Play(m); err != nil {
				return nil, err
			}
			played = m.ShortDescription()
			evalText = "random"
		} else {
			sr, err := r.search(ctx, g, engine)
			if err != nil {
				return nil, err
			}
			if sr == nil {
				log.Warn().Str("game-id", gameID).Int("ply", ply+1).Msg("search-timeout-random-move")
				m, err := g.RandomMove()
				if err != nil {
					return nil, err
				}
				sr = &alphabeta.Result{Best: m}
			}
			if sr.Best == nil {
				return nil, fmt.Errorf("game %s ply %d: search found no move in a playable position", gameID, ply)
			}
			if err := g.Play(sr.Best); err != nil {
				return nil, err
			}
			if engine == 0 {
				res.LeavesA += sr.Leaves
			} else {
				res.LeavesB += sr.Leaves
			}
			played = sr.Best.ShortDescription()
			evalText = strconv.FormatFloat(sr.Value, 'f', 3, 64)
		}
		if r.logchan != nil {
			r.logchan <- []string{
				gameID,
				strconv.Itoa(ply + 1),
				mover.String(),
				string(rune('A' + engine)),
				played,
				evalText,
			}
		}
	}

	log.Debug().
		Str("game-id", gameID).
		Str("outcome", res.Outcome).
		Str("winner", res.Winner).
		Int("plies", res.Plies).
		Msg("game-over")
	return res, nil
}
