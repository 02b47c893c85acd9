// Package automatic plays engine-versus-engine games for comparing search
// depths and for soak-testing the move generator.
package automatic

import (
	"context"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"expvar"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/config"
	"github.com/castellan-chess/castellan/stats"
)

var (
	GamesPlayed *expvar.Int
	IsPlaying   *expvar.Int
)

func init() {
	GamesPlayed = expvar.NewInt("castellanGamesPlayed")
	IsPlaying = expvar.NewInt("castellanIsPlaying")
}

var playing atomic.Bool

var ErrAlreadyPlaying = errors.New("self-play is already running")

var logHeader = []string{"gameID", "ply", "player", "engine", "move", "eval"}

type Options struct {
	Games          int
	Threads        int
	DepthA         int
	DepthB         int
	MaxPlies       int
	RandomPlies    int
	MaxTime        time.Duration
	BufferCapacity int
	// LogFile receives one CSV row per ply; empty for none.
	LogFile string
	// SearchLogDir receives a YAML search log per game; empty for none.
	SearchLogDir string
}

func OptionsFromConfig(cfg *config.Config) Options {
	cfg.Lock()
	defer cfg.Unlock()
	return Options{
		Games:          cfg.GetInt(config.ConfigAutoplayGames),
		Threads:        cfg.GetInt(config.ConfigAutoplayThreads),
		DepthA:         cfg.GetInt(config.ConfigAutoplayDepthA),
		DepthB:         cfg.GetInt(config.ConfigAutoplayDepthB),
		MaxPlies:       cfg.GetInt(config.ConfigAutoplayMaxPlies),
		RandomPlies:    cfg.GetInt(config.ConfigAutoplayRandomPlies),
		MaxTime:        cfg.GetDuration(config.ConfigSearchMaxTime),
		BufferCapacity: cfg.GetInt(config.ConfigBufferCapacity),
		LogFile:        cfg.GetString(config.ConfigAutoplayLogfile),
		SearchLogDir:   cfg.GetString(config.ConfigAutoplaySearchLogDir),
	}
}

// Summary is the outcome of a self-play run, scored from engine A's side.
// Stalemates and unfinished games count as draws.
type Summary struct {
	RunID      string         `yaml:"run_id"`
	DepthA     int            `yaml:"depth_a"`
	DepthB     int            `yaml:"depth_b"`
	Completed  int            `yaml:"completed"`
	ScoreA     stats.Score    `yaml:"score_a"`
	RateA      float64        `yaml:"rate_a"`
	RateALow   float64        `yaml:"rate_a_low_95"`
	RateAHigh  float64        `yaml:"rate_a_high_95"`
	Outcomes   map[string]int `yaml:"outcomes"`
	Plies      stats.Summary  `yaml:"plies"`
	LeavesA    stats.Summary  `yaml:"leaves_a"`
	LeavesB    stats.Summary  `yaml:"leaves_b"`
	WhiteWins  int            `yaml:"white_wins"`
	BlackWins  int            `yaml:"black_wins"`
	Elapsed    time.Duration  `yaml:"elapsed"`
	Cancelled  bool           `yaml:"cancelled"`
	GameErrors int            `yaml:"game_errors"`
}

func (s *Summary) String() string {
	out, err := yaml.Marshal(s)
	if err != nil {
		return err.Error()
	}
	return string(out)
}

func summarize(runID string, opts Options, results []*GameResult) *Summary {
	sum := &Summary{
		RunID:  runID,
		DepthA: opts.DepthA,
		DepthB: opts.DepthB,
	}
	var plies, leavesA, leavesB stats.Sample
	for _, r := range results {
		plies.Push(float64(r.Plies))
		leavesA.Push(float64(r.LeavesA))
		leavesB.Push(float64(r.LeavesB))
		switch {
		case r.AWon():
			sum.ScoreA.Wins++
		case r.BWon():
			sum.ScoreA.Losses++
		default:
			sum.ScoreA.Draws++
		}
	}
	sum.Completed = len(results)
	sum.Outcomes = lo.CountValuesBy(results, func(r *GameResult) string { return r.Outcome })
	sum.WhiteWins = lo.CountBy(results, func(r *GameResult) bool { return r.Winner == board.White.String() })
	sum.BlackWins = lo.CountBy(results, func(r *GameResult) bool { return r.Winner == board.Black.String() })
	sum.RateA = sum.ScoreA.Rate()
	sum.RateALow, sum.RateAHigh = sum.ScoreA.Interval(95)
	sum.Plies = plies.Summary()
	sum.LeavesA = leavesA.Summary()
	sum.LeavesB = leavesB.Summary()
	return sum
}

// newRunID tags the game IDs of one run.
func newRunID() string {
	return hex.EncodeToString(frand.Bytes(4))
}

// Play runs opts.Games games on opts.Threads goroutines and summarizes
// them. Cancelling ctx stops handing out new games; the summary then
// covers the games that finished. Only one run may be in progress.
func Play(ctx context.Context, opts Options) (*Summary, error) {
	if !playing.CompareAndSwap(false, true) {
		return nil, ErrAlreadyPlaying
	}
	defer playing.Store(false)
	IsPlaying.Set(1)
	defer IsPlaying.Set(0)

	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.SearchLogDir != "" {
		if err := os.MkdirAll(opts.SearchLogDir, 0o755); err != nil {
			return nil, err
		}
	}
	var logw io.Writer = io.Discard
	if opts.LogFile != "" {
		f, err := os.Create(opts.LogFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		logw = f
	}

	runID := newRunID()
	log.Info().
		Str("run-id", runID).
		Int("games", opts.Games).
		Int("threads", opts.Threads).
		Int("depth-a", opts.DepthA).
		Int("depth-b", opts.DepthB).
		Str("logfile", opts.LogFile).
		Msg("autoplay-starting")
	tstart := time.Now()

	logChan := make(chan []string, 100)
	logDone := make(chan error, 1)
	go func() {
		logDone <- writeLog(logw, logChan)
	}()

	jobs := make(chan string, opts.Threads)
	var mu sync.Mutex
	var results []*GameResult
	gameErrors := 0

	g := &errgroup.Group{}
	for t := 0; t < opts.Threads; t++ {
		g.Go(func() error {
			r := NewGameRunner(opts, logChan)
			for id := range jobs {
				res, err := r.PlayGame(ctx, id)
				if err != nil {
					if ctx.Err() == nil {
						log.Err(err).Str("game-id", id).Msg("game-error")
						mu.Lock()
						gameErrors++
						mu.Unlock()
					}
					continue
				}
				GamesPlayed.Add(1)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
			return nil
		})
	}

queue:
	for i := 0; i < opts.Games; i++ {
		select {
		case <-ctx.Done():
			log.Info().Int("queued", i).Msg("autoplay-stopping")
			break queue
		case jobs <- fmt.Sprintf("%s-%d", runID, i):
		}
	}
	close(jobs)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(logChan)
	if err := <-logDone; err != nil {
		return nil, fmt.Errorf("writing %s: %w", opts.LogFile, err)
	}

	sum := summarize(runID, opts, results)
	sum.Elapsed = time.Since(tstart)
	sum.Cancelled = ctx.Err() != nil
	sum.GameErrors = gameErrors
	log.Info().
		Str("run-id", runID).
		Int("completed", sum.Completed).
		Float64("rate-a", sum.RateA).
		Dur("elapsed", sum.Elapsed).
		Msg("autoplay-done")
	return sum, nil
}

// writeLog writes one CSV row per record until ch is closed. It keeps
// draining ch after a write error so the players never block.
func writeLog(w io.Writer, ch <-chan []string) error {
	cw := csv.NewWriter(w)
	err := cw.Write(logHeader)
	for rec := range ch {
		if err != nil {
			continue
		}
		err = cw.Write(rec)
	}
	cw.Flush()
	if err != nil {
		return err
	}
	return cw.Error()
}
