package shell

import (
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/castellan-chess/castellan/board"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"ai":       {Options: []string{"-nopruning"}},
	"best":     {Options: []string{"-nopruning"}},
	"perft":    {Options: []string{"-nocache"}},
	"autoplay": {Options: []string{"-games", "-threads", "-depth-a", "-depth-b", "-logfile"}, Args: []string{"stop", "status"}},
	"setup":    {Args: []string{"w", "b"}},
	"help":     {Args: []string{"moves", "play", "ai", "perft", "autoplay", "set", "setup"}},
}

var commandNames = []string{
	"new", "setup", "show", "moves", "play", "ai", "best", "random", "undo",
	"history", "eval", "perft", "autoplay", "set", "help", "version", "exit",
}

var boolValues = []string{"true", "false"}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		if lastCompleteField == "-nopruning" || lastCompleteField == "-nocache" {
			completions = boolValues
		}

		if completions == nil {
			switch cmdName {
			case "moves", "m":
				completions = c.ownSquares()
			case "set":
				completions = c.settingKeys()
			default:
				if metadata, exists := commandMetadata[cmdName]; exists {
					if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
						completions = metadata.Options
					} else {
						completions = metadata.Args
					}
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}

// ownSquares are the squares holding a piece of the side to move.
func (c *ShellCompleter) ownSquares() []string {
	b := c.sc.game.Board()
	return lo.Map(b.Pieces(b.ToMove()).Coords(), func(co board.Coord, _ int) string {
		return co.String()
	})
}

func (c *ShellCompleter) settingKeys() []string {
	keys := lo.Keys(c.sc.config.SanitizedSettings())
	sort.Strings(keys)
	return keys
}
