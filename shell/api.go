package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/castellan-chess/castellan/automatic"
	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/config"
	"github.com/castellan-chess/castellan/eval"
	"github.com/castellan-chess/castellan/game"
	"github.com/castellan-chess/castellan/movegen"
	"github.com/castellan-chess/castellan/search/alphabeta"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	sc.setGame(game.NewGame())
	return msg(sc.game.ToDisplayText()), nil
}

// setup <side> <rights> <rank8/rank7/.../rank1>
func (sc *ShellController) setup(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 3 {
		return nil, errors.New("usage: setup <w|b> <KQkq|-> <rank8/.../rank1>")
	}
	toMove, err := board.ParsePlayer(cmd.args[0])
	if err != nil {
		return nil, err
	}
	rights, err := board.ParseCastleRights(cmd.args[1])
	if err != nil {
		return nil, err
	}
	b, err := board.FromRows(strings.Split(cmd.args[2], "/"), toMove, rights)
	if err != nil {
		return nil, err
	}
	if movegen.NewGenerator().InCheck(b, toMove.Other()) {
		return nil, fmt.Errorf("%v is in check with %v to move", toMove.Other(), toMove)
	}
	sc.setGame(game.FromBoard(b))
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	sb.WriteString(sc.game.ToDisplayText())
	if h := sc.game.HistoryText(); h != "" {
		sb.WriteString("\n")
		sb.WriteString(h)
		sb.WriteString("\n")
	}
	return msg(sb.String()), nil
}

// parseSquare splits "e4" into a file letter and rank number so that the
// board reports which of the two is out of bounds.
func parseSquare(s string) (rune, int, error) {
	if len(s) < 2 {
		return 0, 0, board.ErrBadCoordinate
	}
	rank, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, 0, board.ErrBadCoordinate
	}
	return rune(s[0]), rank, nil
}

func (sc *ShellController) moves(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		sc.game.AllMoves(&sc.lastList)
	} else {
		file, rank, err := parseSquare(cmd.args[0])
		if err != nil {
			return nil, err
		}
		if err := sc.game.Moves(file, rank, &sc.lastList); err != nil {
			return nil, err
		}
	}
	if sc.lastList.Len() == 0 {
		return msg("no moves"), nil
	}
	return msg(sc.lastList.String()), nil
}

// play <n> plays the n-th move of the last list; play <from> <to> plays
// the move between two squares.
func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	switch len(cmd.args) {
	case 1:
		n, err := strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
		if err := sc.game.MakeMove(&sc.lastList, n); err != nil {
			return nil, err
		}
	case 2:
		from, err := board.ParseCoord(cmd.args[0])
		if err != nil {
			return nil, err
		}
		to, err := board.ParseCoord(cmd.args[1])
		if err != nil {
			return nil, err
		}
		if err := sc.game.PlayFromTo(from, to); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("usage: play <n> or play <from> <to>")
	}
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) searchDepth(cmd *shellcmd) (int, error) {
	if len(cmd.args) > 0 {
		return strconv.Atoi(cmd.args[0])
	}
	sc.config.Lock()
	defer sc.config.Unlock()
	return sc.config.GetInt(config.ConfigSearchDepth), nil
}

func (sc *ShellController) search(cmd *shellcmd) (*alphabeta.Result, error) {
	depth, err := sc.searchDepth(cmd)
	if err != nil {
		return nil, err
	}
	sc.config.Lock()
	maxTime := sc.config.GetDuration(config.ConfigSearchMaxTime)
	sc.config.Unlock()

	ctx := context.Background()
	if maxTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxTime)
		defer cancel()
	}
	solver := sc.game.Solver()
	solver.SetPruningDisabled(cmd.options.Bool("nopruning"))
	defer solver.SetPruningDisabled(false)
	return sc.game.BestMove(ctx, depth)
}

func (sc *ShellController) aiplay(cmd *shellcmd) (*Response, error) {
	res, err := sc.search(cmd)
	if err != nil {
		return nil, err
	}
	if res.Best == nil {
		return msg(res.String()), nil
	}
	if err := sc.game.Play(res.Best); err != nil {
		return nil, err
	}
	return msg(res.String() + "\n" + sc.game.ToDisplayText()), nil
}

func (sc *ShellController) best(cmd *shellcmd) (*Response, error) {
	res, err := sc.search(cmd)
	if err != nil {
		return nil, err
	}
	if res.Best == nil {
		return msg(res.String()), nil
	}
	return msg(res.String() + "\n" + res.PV.String() + "\n" + res.RankingText()), nil
}

func (sc *ShellController) random(cmd *shellcmd) (*Response, error) {
	m, err := sc.game.RandomMove()
	if err != nil {
		return nil, err
	}
	if err := sc.game.Play(m); err != nil {
		return nil, err
	}
	return msg("played " + m.ShortDescription() + "\n" + sc.game.ToDisplayText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if err := sc.game.UndoMove(); err != nil {
		return nil, err
	}
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) history(cmd *shellcmd) (*Response, error) {
	h := sc.game.HistoryText()
	if h == "" {
		return msg("no moves played"), nil
	}
	return msg(h), nil
}

func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	b := sc.game.Board()
	return msg(fmt.Sprintf("white %.3f, black %.3f, total %.3f",
		eval.EvaluatePlayer(b, board.White),
		eval.EvaluatePlayer(b, board.Black),
		eval.Evaluate(b))), nil
}

type perftReport struct {
	Depth   int           `yaml:"depth"`
	Nodes   uint64        `yaml:"nodes"`
	Elapsed time.Duration `yaml:"elapsed"`
	Cached  bool          `yaml:"cached"`
	Cache   any           `yaml:"cache,omitempty"`
}

// perft <depth> [-nocache true]
func (sc *ShellController) perft(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: perft <depth>")
	}
	depth, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if depth < 0 {
		return nil, errors.New("depth must not be negative")
	}
	rep := perftReport{Depth: depth, Cached: !cmd.options.Bool("nocache")}
	tstart := time.Now()
	if rep.Cached {
		rep.Nodes = movegen.PerftCached(sc.game.Board(), depth, sc.zobrist, sc.perftCache)
		rep.Cache = sc.perftCache.Stats()
	} else {
		rep.Nodes = movegen.Perft(sc.game.Board(), depth)
	}
	rep.Elapsed = time.Since(tstart)
	log.Debug().Int("depth", depth).Uint64("nodes", rep.Nodes).Dur("elapsed", rep.Elapsed).Msg("perft-done")
	out, err := yaml.Marshal(rep)
	if err != nil {
		return nil, err
	}
	return msg(string(out)), nil
}

// autoplay [stop|status] [-games n] [-threads n] [-depth-a n] [-depth-b n] [-logfile f]
func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) > 0 {
		switch cmd.args[0] {
		case "stop":
			sc.autoplayMu.Lock()
			defer sc.autoplayMu.Unlock()
			if sc.autoplayCancel == nil {
				return nil, errors.New("autoplay is not running")
			}
			sc.autoplayCancel()
			return msg("stopping autoplay"), nil
		case "status":
			sc.autoplayMu.Lock()
			defer sc.autoplayMu.Unlock()
			status := fmt.Sprintf("running: %v, games played: %d",
				sc.autoplayCancel != nil, automatic.GamesPlayed.Value())
			if sc.lastSummary != nil {
				status += "\nlast run:\n" + sc.lastSummary.String()
			}
			return msg(status), nil
		default:
			return nil, errors.New("usage: autoplay [stop|status]")
		}
	}

	opts := automatic.OptionsFromConfig(sc.config)
	var err error
	if opts.Games, err = cmd.options.IntDefault("games", opts.Games); err != nil {
		return nil, err
	}
	if opts.Threads, err = cmd.options.IntDefault("threads", opts.Threads); err != nil {
		return nil, err
	}
	if opts.DepthA, err = cmd.options.IntDefault("depth-a", opts.DepthA); err != nil {
		return nil, err
	}
	if opts.DepthB, err = cmd.options.IntDefault("depth-b", opts.DepthB); err != nil {
		return nil, err
	}
	if f := cmd.options.String("logfile"); f != "" {
		opts.LogFile = f
	}

	sc.autoplayMu.Lock()
	defer sc.autoplayMu.Unlock()
	if sc.autoplayCancel != nil {
		return nil, automatic.ErrAlreadyPlaying
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sc.autoplayCancel = cancel
	sc.autoplayDone = done

	go func() {
		defer close(done)
		defer cancel()
		sum, err := automatic.Play(ctx, opts)
		sc.autoplayMu.Lock()
		sc.autoplayCancel = nil
		if sum != nil {
			sc.lastSummary = sum
		}
		sc.autoplayMu.Unlock()
		if err != nil {
			sc.showError(err)
			return
		}
		sc.showMessage("autoplay finished\n" + sum.String())
	}()

	return msg(fmt.Sprintf("autoplay started: %d games, depth %d vs %d, logging to %s",
		opts.Games, opts.DepthA, opts.DepthB, opts.LogFile)), nil
}

func (sc *ShellController) waitAutoplay() {
	sc.autoplayMu.Lock()
	done := sc.autoplayDone
	sc.autoplayMu.Unlock()
	if done != nil {
		<-done
	}
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	switch len(cmd.args) {
	case 0:
		out, err := sc.config.Dump()
		if err != nil {
			return nil, err
		}
		return msg(out), nil
	case 1:
		sc.config.Lock()
		defer sc.config.Unlock()
		if !sc.config.IsSet(cmd.args[0]) {
			return nil, fmt.Errorf("unknown setting %q", cmd.args[0])
		}
		return msg(fmt.Sprintf("%s: %v", cmd.args[0], sc.config.Get(cmd.args[0]))), nil
	}
	key, value := cmd.args[0], strings.Join(cmd.args[1:], " ")
	if err := sc.config.SetValue(key, value); err != nil {
		return nil, err
	}
	switch key {
	case config.ConfigDebug:
		sc.config.Lock()
		debug := sc.config.GetBool(config.ConfigDebug)
		sc.config.Unlock()
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	case config.ConfigBufferCapacity:
		sc.setGame(sc.game)
	}
	return msg("set " + key + " to " + value), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	if len(cmd.args) == 0 {
		usage(&sb, "standard")
	} else {
		usageTopic(&sb, cmd.args[0])
	}
	return msg(sb.String()), nil
}
