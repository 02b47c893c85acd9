package move

import (
	"fmt"
	"strings"

	"github.com/castellan-chess/castellan/board"
)

// MaxDeltas is the most squares a single move changes. Queenside castling
// touches all five squares between the rook and the king.
const MaxDeltas = 5

type Kind uint8

const (
	KindMove Kind = iota
	KindCapture
	KindCastleKingside
	KindCastleQueenside
	KindSpecial
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindCapture:
		return "capture"
	case KindCastleKingside:
		return "castle-kingside"
	case KindCastleQueenside:
		return "castle-queenside"
	}
	return "special"
}

// A Delta is one square a move changes.
type Delta struct {
	Coord  board.Coord
	Before board.Square
	After  board.Square
}

// A Snapshot is a reversible description of one move: every square it
// changes with its contents before and after, plus the castling rights it
// takes away. Applying and undoing a snapshot are exact inverses.
type Snapshot struct {
	deltas   [MaxDeltas]Delta
	n        uint8
	kind     Kind
	forfeits board.CastleRights
	eval     float64
}

// NewStep builds the snapshot of the piece on from going to to, on
// position b. It revokes whatever castling rights the move breaks: the
// mover's if the king or a home rook leaves, the opponent's if a home rook
// is captured in its corner.
func NewStep(b *board.Board, from, to board.Coord) Snapshot {
	piece := b.At(from)
	target := b.At(to)
	s := Snapshot{kind: KindMove}
	if !target.IsBlank() {
		s.kind = KindCapture
	}
	s.add(from, piece, board.Blank)
	s.add(to, target, piece)

	mover := piece.Player()
	var lost board.CastleRights
	switch {
	case piece.Piece() == board.King:
		lost = board.RightsOf(mover)
	case piece.Piece() == board.Rook && from == board.RookHome(mover, true):
		lost = board.KingsideRight(mover)
	case piece.Piece() == board.Rook && from == board.RookHome(mover, false):
		lost = board.QueensideRight(mover)
	}
	opp := mover.Other()
	if target.Is(board.Rook, opp) {
		if to == board.RookHome(opp, true) {
			lost |= board.KingsideRight(opp)
		} else if to == board.RookHome(opp, false) {
			lost |= board.QueensideRight(opp)
		}
	}
	s.forfeits = lost & b.CastleRights()
	return s
}

// NewCastle builds the constant castling snapshot for the player. It
// forfeits both of the player's rights; callers that emit it on a board
// where one right is already gone must mask it with WithForfeits.
func NewCastle(p board.Player, kingside bool) Snapshot {
	r := p.HomeRank()
	king := board.Occupied(board.King, p)
	rook := board.Occupied(board.Rook, p)
	s := Snapshot{forfeits: board.RightsOf(p)}
	if kingside {
		s.kind = KindCastleKingside
		s.add(board.C(4, r), king, board.Blank)
		s.add(board.C(5, r), board.Blank, rook)
		s.add(board.C(6, r), board.Blank, king)
		s.add(board.C(7, r), rook, board.Blank)
		return s
	}
	s.kind = KindCastleQueenside
	s.add(board.C(0, r), rook, board.Blank)
	s.add(board.C(1, r), board.Blank, board.Blank)
	s.add(board.C(2, r), board.Blank, king)
	s.add(board.C(3, r), board.Blank, rook)
	s.add(board.C(4, r), king, board.Blank)
	return s
}

func (s *Snapshot) add(c board.Coord, before, after board.Square) {
	if int(s.n) == MaxDeltas {
		panic("move snapshot overflow")
	}
	s.deltas[s.n] = Delta{Coord: c, Before: before, After: after}
	s.n++
}

// Apply plays the move on b, hands the turn to the other player and
// revokes the forfeited rights.
func (s *Snapshot) Apply(b *board.Board) {
	for i := uint8(0); i < s.n; i++ {
		b.Set(s.deltas[i].Coord, s.deltas[i].After)
	}
	b.RevokeRights(s.forfeits)
	b.SetToMove(b.ToMove().Other())
}

// Undo takes the move back. b must be the position Apply left.
func (s *Snapshot) Undo(b *board.Board) {
	for i := int(s.n) - 1; i >= 0; i-- {
		b.Set(s.deltas[i].Coord, s.deltas[i].Before)
	}
	b.RestoreRights(s.forfeits)
	b.SetToMove(b.ToMove().Other())
}

func (s *Snapshot) Kind() Kind {
	return s.kind
}

func (s *Snapshot) IsCastle() bool {
	return s.kind == KindCastleKingside || s.kind == KindCastleQueenside
}

func (s *Snapshot) Len() int {
	return int(s.n)
}

func (s *Snapshot) Delta(i int) Delta {
	if i >= int(s.n) {
		panic(fmt.Sprintf("delta %d of %d", i, s.n))
	}
	return s.deltas[i]
}

func (s *Snapshot) Eval() float64 {
	return s.eval
}

func (s *Snapshot) SetEval(v float64) {
	s.eval = v
}

// Forfeits is every castling right the move revokes, for both players.
func (s *Snapshot) Forfeits() board.CastleRights {
	return s.forfeits
}

// WithForfeits returns a copy that only revokes rights within mask.
func (s Snapshot) WithForfeits(mask board.CastleRights) Snapshot {
	s.forfeits &= mask
	return s
}

func (s *Snapshot) ForfeitsKingside() bool {
	return s.forfeits&board.KingsideRight(s.Mover()) != 0
}

func (s *Snapshot) ForfeitsQueenside() bool {
	return s.forfeits&board.QueensideRight(s.Mover()) != 0
}

// Moved is the piece that moves; for castles, the king.
func (s *Snapshot) Moved() board.Square {
	for i := uint8(0); i < s.n; i++ {
		if d := s.deltas[i]; d.After.IsBlank() && !d.Before.IsBlank() && d.Before.Piece() == board.King {
			return d.Before
		}
	}
	return s.deltas[0].Before
}

func (s *Snapshot) Mover() board.Player {
	return s.Moved().Player()
}

// From is the square the moving piece leaves.
func (s *Snapshot) From() board.Coord {
	if s.IsCastle() {
		return board.KingHome(s.Mover())
	}
	return s.deltas[0].Coord
}

// To is the square the moving piece lands on.
func (s *Snapshot) To() board.Coord {
	switch s.kind {
	case KindCastleKingside:
		return board.C(6, s.Mover().HomeRank())
	case KindCastleQueenside:
		return board.C(2, s.Mover().HomeRank())
	}
	return s.deltas[1].Coord
}

// Captured is the piece taken by the move, or Blank.
func (s *Snapshot) Captured() board.Square {
	if s.kind != KindCapture {
		return board.Blank
	}
	return s.deltas[1].Before
}

// ShortDescription renders the move the way the shell prints it:
// "Ng1-f3", "e4xd5", "O-O".
func (s *Snapshot) ShortDescription() string {
	switch s.kind {
	case KindCastleKingside:
		return "O-O"
	case KindCastleQueenside:
		return "O-O-O"
	}
	sep := "-"
	if s.kind == KindCapture {
		sep = "x"
	}
	return s.Moved().Piece().Letter() + s.From().String() + sep + s.To().String()
}

func (s *Snapshot) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<%s %s", s.kind, s.ShortDescription())
	if s.forfeits != board.NoRights {
		fmt.Fprintf(&sb, " forfeits:%v", s.forfeits)
	}
	fmt.Fprintf(&sb, " eval:%.3f>", s.eval)
	return sb.String()
}

// Equal compares the squares and rights of two moves, ignoring evaluation.
func (s *Snapshot) Equal(o *Snapshot) bool {
	return s.deltas == o.deltas && s.n == o.n && s.kind == o.kind && s.forfeits == o.forfeits
}
