package board

import (
	"fmt"
	"strings"
)

// CastleRights holds the four castling flags as a bitmask.
type CastleRights uint8

const (
	WhiteKingside CastleRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	NoRights  CastleRights = 0
	AllRights              = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
)

func KingsideRight(p Player) CastleRights {
	if p == White {
		return WhiteKingside
	}
	return BlackKingside
}

func QueensideRight(p Player) CastleRights {
	if p == White {
		return WhiteQueenside
	}
	return BlackQueenside
}

// RightsOf returns both castling rights of the player.
func RightsOf(p Player) CastleRights {
	return KingsideRight(p) | QueensideRight(p)
}

func (r CastleRights) String() string {
	if r == NoRights {
		return "-"
	}
	var sb strings.Builder
	for i, l := range "KQkq" {
		if r&(1<<i) != 0 {
			sb.WriteRune(l)
		}
	}
	return sb.String()
}

// ParseCastleRights reads the form String writes.
func ParseCastleRights(s string) (CastleRights, error) {
	if s == "-" {
		return NoRights, nil
	}
	var r CastleRights
	for _, l := range s {
		i := strings.IndexRune("KQkq", l)
		if i < 0 {
			return NoRights, fmt.Errorf("%w: %q", ErrBadRights, s)
		}
		r |= 1 << i
	}
	if r == NoRights {
		return NoRights, fmt.Errorf("%w: %q", ErrBadRights, s)
	}
	return r, nil
}

// ParsePlayer reads "w", "white", "b" or "black".
func ParsePlayer(s string) (Player, error) {
	switch strings.ToLower(s) {
	case "w", "white":
		return White, nil
	case "b", "black":
		return Black, nil
	}
	return White, fmt.Errorf("no such player %q", s)
}

// KingHome is the square the player's king starts on.
func KingHome(p Player) Coord {
	return Coord{File: 4, Rank: p.HomeRank()}
}

// RookHome is the corner the player's kingside or queenside rook starts on.
func RookHome(p Player, kingside bool) Coord {
	if kingside {
		return Coord{File: 7, Rank: p.HomeRank()}
	}
	return Coord{File: 0, Rank: p.HomeRank()}
}

var backRank = [Dim]Piece{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// Board is the full position: the squares, who is to move, castling rights,
// and an index of which squares each player occupies. The index is kept in
// sync by Set and is never rebuilt by scanning.
type Board struct {
	squares  [Dim * Dim]Square
	pieces   [2]LocationSet
	toMove   Player
	rights   CastleRights
	revision uint64
}

// NewStandard returns the standard starting position, white to move.
func NewStandard() *Board {
	b := &Board{rights: AllRights}
	for f := int8(0); f < Dim; f++ {
		b.Set(C(f, White.HomeRank()), Occupied(backRank[f], White))
		b.Set(C(f, White.PawnRank()), Occupied(Pawn, White))
		b.Set(C(f, Black.PawnRank()), Occupied(Pawn, Black))
		b.Set(C(f, Black.HomeRank()), Occupied(backRank[f], Black))
	}
	b.revision = 0
	return b
}

// FromRows builds a position from a diagram: eight rows of eight letters,
// rank 8 first. Uppercase letters are white, lowercase black, '.' blank.
// Spaces are ignored. Rights must agree with piece placement.
func FromRows(rows []string, toMove Player, rights CastleRights) (*Board, error) {
	if len(rows) != Dim {
		return nil, ErrBadDiagram
	}
	b := &Board{toMove: toMove}
	for i, row := range rows {
		row = strings.ReplaceAll(row, " ", "")
		if len(row) != Dim {
			return nil, fmt.Errorf("%w: row %d is %q", ErrBadDiagram, i+1, row)
		}
		rank := int8(Dim - 1 - i)
		for f := 0; f < Dim; f++ {
			sq, ok := SquareFromLetter(row[f])
			if !ok {
				return nil, fmt.Errorf("%w: unknown piece %q", ErrBadDiagram, row[f])
			}
			b.Set(C(int8(f), rank), sq)
		}
	}
	for _, p := range []Player{White, Black} {
		kings := 0
		for s := b.pieces[p]; s != 0; {
			var c Coord
			c, s = s.Pop()
			if b.At(c).Piece() == King {
				kings++
			}
		}
		if kings != 1 {
			return nil, fmt.Errorf("%w: %v has %d", ErrKingCount, p, kings)
		}
		for _, kingside := range []bool{true, false} {
			r := QueensideRight(p)
			if kingside {
				r = KingsideRight(p)
			}
			if rights&r == 0 {
				continue
			}
			if !b.At(KingHome(p)).Is(King, p) || !b.At(RookHome(p, kingside)).Is(Rook, p) {
				return nil, fmt.Errorf("%w: %v", ErrBadRights, r)
			}
		}
	}
	b.rights = rights
	b.revision = 0
	return b, nil
}

func (b *Board) At(c Coord) Square {
	return b.squares[c.Index()]
}

// Get reads a square by file letter ('a'-'h') and rank number (1-8).
func (b *Board) Get(file rune, rank int) (Square, error) {
	c, err := CoordFromAlgebraic(file, rank)
	if err != nil {
		return Blank, err
	}
	return b.At(c), nil
}

// GetXY reads a square by raw zero-based indexes.
func (b *Board) GetXY(x, y int) (Square, error) {
	if x < 0 || x >= Dim || y < 0 || y >= Dim {
		return Blank, &CoordinateOutOfBoundsError{X: x, Y: y}
	}
	return b.At(C(int8(x), int8(y))), nil
}

// Set writes a square and updates the location sets of whoever owned the
// old and new contents.
func (b *Board) Set(c Coord, sq Square) {
	idx := c.Index()
	bit := LocationSet(1) << uint(idx)
	old := b.squares[idx]
	if !old.IsBlank() {
		b.pieces[old.Player()] &^= bit
	}
	if !sq.IsBlank() {
		b.pieces[sq.Player()] |= bit
	}
	b.squares[idx] = sq
	b.revision++
}

func (b *Board) ToMove() Player {
	return b.toMove
}

func (b *Board) SetToMove(p Player) {
	b.toMove = p
	b.revision++
}

func (b *Board) CastleRights() CastleRights {
	return b.rights
}

func (b *Board) HasRight(r CastleRights) bool {
	return b.rights&r == r
}

// RevokeRights clears the given rights.
func (b *Board) RevokeRights(r CastleRights) {
	if r == NoRights {
		return
	}
	b.rights &^= r
	b.revision++
}

// RestoreRights sets the given rights again. Only used to undo a revocation.
func (b *Board) RestoreRights(r CastleRights) {
	if r == NoRights {
		return
	}
	b.rights |= r
	b.revision++
}

// Pieces is the set of squares the player occupies.
func (b *Board) Pieces(p Player) LocationSet {
	return b.pieces[p]
}

// KingCoord finds the player's king. ok is false if the player has none.
func (b *Board) KingCoord(p Player) (c Coord, ok bool) {
	for s := b.pieces[p]; s != 0; {
		c, s = s.Pop()
		if b.At(c).Piece() == King {
			return c, true
		}
	}
	return Coord{}, false
}

// Revision increases on every mutation. Callers use it to detect that a
// position changed after they looked at it.
func (b *Board) Revision() uint64 {
	return b.revision
}

// CopyFrom makes b an exact copy of other, revision included.
func (b *Board) CopyFrom(other *Board) {
	*b = *other
}

func (b *Board) Clone() *Board {
	n := &Board{}
	n.CopyFrom(b)
	return n
}

// Equal compares squares, location sets, rights and turn. The revision is
// not part of the position.
func (b *Board) Equal(other *Board) bool {
	return b.squares == other.squares &&
		b.pieces == other.pieces &&
		b.toMove == other.toMove &&
		b.rights == other.rights
}

// Material counts each piece kind per player.
func (b *Board) Material(p Player) [King + 1]int {
	var m [King + 1]int
	for s := b.pieces[p]; s != 0; {
		var c Coord
		c, s = s.Pop()
		m[b.At(c).Piece()]++
	}
	return m
}
