package board

import (
	"fmt"
)

type Player uint8

const (
	White Player = iota
	Black
)

func (p Player) Other() Player {
	return p ^ 1
}

// HomeRank is the rank index the player's king and rooks start on.
func (p Player) HomeRank() int8 {
	if p == White {
		return 0
	}
	return 7
}

// PawnRank is the rank index the player's pawns start on. A pawn may only
// push two squares from here.
func (p Player) PawnRank() int8 {
	if p == White {
		return 1
	}
	return 6
}

// Forward is the rank delta of a pawn push for this player.
func (p Player) Forward() int8 {
	if p == White {
		return 1
	}
	return -1
}

func (p Player) String() string {
	if p == White {
		return "white"
	}
	return "black"
}

type Piece uint8

const (
	Pawn Piece = iota
	Rook
	Knight
	Bishop
	Queen
	King
)

var pieceLetters = [...]byte{'p', 'r', 'n', 'b', 'q', 'k'}

var pieceNames = [...]string{"pawn", "rook", "knight", "bishop", "queen", "king"}

func (p Piece) String() string {
	return pieceNames[p]
}

// Letter returns the algebraic letter of the piece, uppercase. Pawns return
// an empty string, as in standard notation.
func (p Piece) Letter() string {
	if p == Pawn {
		return ""
	}
	return string(pieceLetters[p] - 'a' + 'A')
}

// A Square is a single square on the board. The zero value is Blank; an
// occupied square packs the piece into the low three bits (offset by one)
// and the owner into bit 3.
type Square uint8

const Blank Square = 0

func Occupied(pc Piece, pl Player) Square {
	return Square(uint8(pc)+1) | Square(pl)<<3
}

func (s Square) IsBlank() bool {
	return s == Blank
}

// Piece returns the piece on the square. Only meaningful if the square
// is not blank.
func (s Square) Piece() Piece {
	return Piece(s&7) - 1
}

func (s Square) Player() Player {
	return Player(s >> 3)
}

// Is reports whether the square holds the given piece of the given player.
func (s Square) Is(pc Piece, pl Player) bool {
	return s == Occupied(pc, pl)
}

// OwnedBy reports whether the square holds any piece of the given player.
func (s Square) OwnedBy(pl Player) bool {
	return !s.IsBlank() && s.Player() == pl
}

// Letter is the diagram letter of the square: uppercase for white, lowercase
// for black, '.' for blank.
func (s Square) Letter() byte {
	if s.IsBlank() {
		return '.'
	}
	l := pieceLetters[s.Piece()]
	if s.Player() == White {
		l = l - 'a' + 'A'
	}
	return l
}

func (s Square) String() string {
	if s.IsBlank() {
		return "blank"
	}
	return fmt.Sprintf("%v %v", s.Player(), s.Piece())
}

// SquareFromLetter is the inverse of Letter.
func SquareFromLetter(l byte) (Square, bool) {
	if l == '.' {
		return Blank, true
	}
	pl := Black
	lower := l
	if l >= 'A' && l <= 'Z' {
		pl = White
		lower = l - 'A' + 'a'
	}
	for i, pc := range pieceLetters {
		if pc == lower {
			return Occupied(Piece(i), pl), true
		}
	}
	return Blank, false
}
