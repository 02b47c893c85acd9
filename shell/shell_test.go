package shell

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/castellan-chess/castellan/board"
	"github.com/castellan-chess/castellan/config"
	"github.com/castellan-chess/castellan/game"
)

const backRankMate = "......k./.....ppp/......../......../......../......../......../R.....K."

func newTestController(t *testing.T) (*ShellController, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	cfg := config.DefaultConfig()
	if err := cfg.SetValue(config.ConfigAutoplayLogfile, filepath.Join(t.TempDir(), "autoplay.csv")); err != nil {
		t.Fatal(err)
	}
	return newController(cfg, out), out
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"autoplay -logfile /path/to/log.csv",
			&shellcmd{"autoplay", nil, CmdOptions{"logfile": {"/path/to/log.csv"}}},
			nil},
		{"autoplay stop",
			&shellcmd{"autoplay", []string{"stop"}, CmdOptions{}},
			nil},
		{"play e2 e4 ",
			&shellcmd{"play", []string{"e2", "e4"}, CmdOptions{}},
			nil},
		{`ai 3 -nopruning true -nopruning "false"`,
			&shellcmd{"ai", []string{"3"}, CmdOptions{"nopruning": {"true", "false"}}},
			nil},
		{"setup w - 8/8",
			&shellcmd{"setup", []string{"w", "-", "8/8"}, CmdOptions{}},
			nil},
		{"perft 3 -nocache",
			nil, errWrongOptionSyntax},
	}
	for _, tc := range cases {
		cmd, err := extractFields(tc.line)
		is.Equal(cmd, tc.expCmd)
		is.Equal(err, tc.expErr)
	}
}

func TestCmdOptions(t *testing.T) {
	is := is.New(t)
	opts := CmdOptions{"games": {"12"}, "x": {"TRUE"}, "bad": {"two"}}
	n, err := opts.Int("games")
	is.NoErr(err)
	is.Equal(n, 12)
	n, err = opts.IntDefault("threads", 3)
	is.NoErr(err)
	is.Equal(n, 3)
	_, err = opts.Int("threads")
	is.True(err != nil)
	_, err = opts.IntDefault("bad", 1)
	is.True(err != nil)
	is.True(opts.Bool("x"))
	is.True(!opts.Bool("y"))
	is.Equal(opts.String("games"), "12")
	is.Equal(opts.String("nope"), "")
}

func TestMovesAndPlay(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)

	resp, err := sc.handle("moves e2")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "e2-e3"))
	is.True(strings.Contains(resp.message, "e2-e4"))

	resp, err = sc.handle("moves e7")
	is.NoErr(err)
	is.Equal(resp.message, "no moves")

	// the list from e7 is empty, so index 0 is out of range
	_, err = sc.handle("play 0")
	var rangeErr *game.MoveIndexOutOfRangeError
	is.True(errors.As(err, &rangeErr))

	_, err = sc.handle("moves g1")
	is.NoErr(err)
	_, err = sc.handle("play 0")
	is.NoErr(err)
	is.Equal(sc.game.ToMove(), board.Black)

	// the g1 list was built before the move
	_, err = sc.handle("play 1")
	is.True(errors.Is(err, game.ErrStaleMoveList))

	_, err = sc.handle("play e7 e5")
	is.NoErr(err)
	_, err = sc.handle("play e2 e5")
	is.True(errors.Is(err, game.ErrIllegalMove))

	resp, err = sc.handle("history")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "e7-e5"))

	_, err = sc.handle("undo")
	is.NoErr(err)
	_, err = sc.handle("undo")
	is.NoErr(err)
	_, err = sc.handle("undo")
	is.True(errors.Is(err, game.ErrNothingToUndo))
	is.True(sc.game.Board().Equal(board.NewStandard()))
}

func TestMovesBounds(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	_, err := sc.handle("moves z1")
	is.True(errors.Is(err, board.ErrOutOfBounds))
	var fileErr *board.FileOutOfBoundsError
	is.True(errors.As(err, &fileErr))

	_, err = sc.handle("moves a9")
	var rankErr *board.RankOutOfBoundsError
	is.True(errors.As(err, &rankErr))

	_, err = sc.handle("moves e")
	is.True(errors.Is(err, board.ErrBadCoordinate))
}

func TestSetupAndAI(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	_, err := sc.handle("setup w - " + backRankMate)
	is.NoErr(err)

	resp, err := sc.handle("best 2")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "Ra1-a8"))
	is.Equal(sc.game.ToMove(), board.White)

	resp, err = sc.handle("ai 2")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "checkmate"))
	is.Equal(sc.game.Status(), game.StatusCheckmate)

	// black has no moves to search
	resp, err = sc.handle("ai 2")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "no legal moves"))
}

func TestSetupRejects(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	_, err := sc.handle("setup w KQkq " + backRankMate)
	is.True(errors.Is(err, board.ErrBadRights))
	_, err = sc.handle("setup w - ......../......../......../......../......../......../......../R.....K.")
	is.True(errors.Is(err, board.ErrKingCount))
	_, err = sc.handle("setup x - " + backRankMate)
	is.True(err != nil)
	// the side not to move may not be in check
	_, err = sc.handle("setup w - R.....k./.....ppp/......../......../......../......../......../......K.")
	is.True(err != nil)
}

func TestPerft(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	resp, err := sc.handle("perft 2")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "nodes: 400"))
	is.True(strings.Contains(resp.message, "cached: true"))

	resp, err = sc.handle("perft 2 -nocache true")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "nodes: 400"))
	is.True(strings.Contains(resp.message, "cached: false"))

	_, err = sc.handle("perft")
	is.True(err != nil)
}

func TestEval(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	resp, err := sc.handle("eval")
	is.NoErr(err)
	// the start position is symmetric
	is.True(strings.Contains(resp.message, "total 0.000") || strings.Contains(resp.message, "total -0.000"))
}

func TestSet(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	_, err := sc.handle("set search-depth 2")
	is.NoErr(err)
	is.Equal(sc.config.GetInt(config.ConfigSearchDepth), 2)

	resp, err := sc.handle("set search-depth")
	is.NoErr(err)
	is.Equal(resp.message, "search-depth: 2")

	_, err = sc.handle("set no-such-setting 1")
	is.True(err != nil)

	resp, err = sc.handle("set")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "autoplay-games"))
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	resp, err := sc.handle("help")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "Commands:"))

	resp, err = sc.handle("help perft")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "197281"))

	resp, err = sc.handle("help ../shell")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "There is no help text"))
}

func TestUnknownCommand(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	_, err := sc.handle("castle")
	is.True(err != nil)
}

func TestExecuteAutoplay(t *testing.T) {
	if testing.Short() {
		t.Skip("plays games")
	}
	is := is.New(t)
	sc, out := newTestController(t)
	for _, line := range []string{
		"set autoplay-games 2",
		"set autoplay-threads 2",
		"set autoplay-max-plies 6",
		"set autoplay-depth-a 1",
		"set autoplay-depth-b 1",
	} {
		_, err := sc.handle(line)
		is.NoErr(err)
	}
	sig := make(chan os.Signal, 1)
	sc.Execute(sig, "autoplay")
	is.True(strings.Contains(out.String(), "autoplay started"))
	is.True(strings.Contains(out.String(), "autoplay finished"))
	is.True(strings.Contains(out.String(), "completed: 2"))

	resp, err := sc.handle("autoplay status")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "running: false"))

	_, err = sc.handle("autoplay stop")
	is.True(err != nil)

	sc.Execute(sig, "exit")
	is.Equal(len(sig), 1)
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	c := NewShellCompleter(sc)

	matches, n := c.Do([]rune("mo"), 2)
	is.Equal(n, 2)
	is.Equal(matches, [][]rune{[]rune("ves")})

	line := []rune("moves ")
	matches, n = c.Do(line, len(line))
	is.Equal(n, 0)
	is.Equal(len(matches), 16)

	line = []rune("autoplay -d")
	matches, _ = c.Do(line, len(line))
	is.Equal(matches, [][]rune{[]rune("epth-a"), []rune("epth-b")})
}
