package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"unicode"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/castellan-chess/castellan/automatic"
	"github.com/castellan-chess/castellan/cache"
	"github.com/castellan-chess/castellan/config"
	"github.com/castellan-chess/castellan/game"
	"github.com/castellan-chess/castellan/search/alphabeta"
	"github.com/castellan-chess/castellan/zobrist"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
)

type ShellController struct {
	l          *readline.Instance
	config     *config.Config
	execPath   string
	gitVersion string

	outMu sync.Mutex
	out   io.Writer

	game     *game.Game
	lastList game.MoveList

	zobrist    *zobrist.Zobrist
	perftCache *cache.Cache[uint64]

	autoplayMu     sync.Mutex
	autoplayCancel context.CancelFunc
	autoplayDone   chan struct{}
	lastSummary    *automatic.Summary
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	sc.outMu.Lock()
	defer sc.outMu.Unlock()
	writeln(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	sc := newController(cfg, os.Stderr)
	sc.execPath = execPath
	sc.gitVersion = gitVersion

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mcastellan>\033[0m ",
		HistoryFile:     "/tmp/castellan-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stderr()
	log.Debug().Str("exec-path", execPath).Str("version", gitVersion).Msg("shell-created")
	return sc
}

// newController builds a controller that writes to out and reads nothing;
// Loop needs the readline instance NewShellController adds.
func newController(cfg *config.Config, out io.Writer) *ShellController {
	sc := &ShellController{
		config:  cfg,
		out:     out,
		zobrist: zobrist.New(),
	}
	cfg.Lock()
	sc.perftCache = cache.New[uint64](cfg.GetInt(config.ConfigPerftCacheSize))
	cfg.Unlock()
	sc.setGame(game.NewGame())
	return sc
}

func (sc *ShellController) setGame(g *game.Game) {
	sc.config.Lock()
	capacity := sc.config.GetInt(config.ConfigBufferCapacity)
	sc.config.Unlock()
	g.SetSolver(alphabeta.NewSolver(capacity))
	sc.game = g
	sc.lastList = game.MoveList{}
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for i := 1; i < len(fields); i++ {
		if isOption(fields[i]) {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := fields[i][1:]
			options[key] = append(options[key], fields[i+1])
			i++
			continue
		}
		args = append(args, fields[i])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

// isOption is true for -name; a bare "-" is an argument.
func isOption(field string) bool {
	return len(field) > 1 && field[0] == '-' && unicode.IsLetter(rune(field[1]))
}

func isExit(line string) bool {
	return line == "exit" || line == "bye" || line == "quit"
}

func (sc *ShellController) handle(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("cmd", cmd.cmd).Strs("args", cmd.args).Msg("shell-command")

	switch cmd.cmd {
	case "new", "n":
		return sc.newGame(cmd)
	case "setup":
		return sc.setup(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "moves", "m":
		return sc.moves(cmd)
	case "play", "p":
		return sc.play(cmd)
	case "ai", "a":
		return sc.aiplay(cmd)
	case "best":
		return sc.best(cmd)
	case "random", "r":
		return sc.random(cmd)
	case "undo", "u":
		return sc.undo(cmd)
	case "history":
		return sc.history(cmd)
	case "eval":
		return sc.eval(cmd)
	case "perft":
		return sc.perft(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "set":
		return sc.set(cmd)
	case "help":
		return sc.help(cmd)
	case "version":
		return msg(sc.gitVersion), nil
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd.cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

// Execute runs a single command line, as given on the command line rather
// than typed into the shell. It returns once any self-play run the command
// started has finished.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	if isExit(line) {
		sig <- syscall.SIGINT
		return
	}
	resp, err := sc.handle(line)
	if err != nil {
		sc.showError(err)
	} else if resp != nil {
		sc.showMessage(resp.message)
	}
	sc.waitAutoplay()
}

func (sc *ShellController) Loop(sig chan os.Signal) {

	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)

		if isExit(line) {
			sig <- syscall.SIGINT
			break
		}
		resp, err := sc.handle(line)
		if err == errNoData {
			continue
		} else if err != nil {
			sc.showError(err)
		} else if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup stops a running self-play and waits for it.
func (sc *ShellController) Cleanup() {
	sc.autoplayMu.Lock()
	if sc.autoplayCancel != nil {
		sc.autoplayCancel()
	}
	sc.autoplayMu.Unlock()
	sc.waitAutoplay()
	log.Info().Msg("shell-cleanup-done")
}
