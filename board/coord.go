package board

import (
	"fmt"
	"math/bits"
)

const Dim = 8

// Coord addresses a square by file (0 is the a-file) and rank (0 is rank 1).
type Coord struct {
	File int8
	Rank int8
}

func C(file, rank int8) Coord {
	return Coord{File: file, Rank: rank}
}

func (c Coord) Valid() bool {
	return c.File >= 0 && c.File < Dim && c.Rank >= 0 && c.Rank < Dim
}

// Index is the rank-major array index of the coordinate.
func (c Coord) Index() int {
	return int(c.Rank)*Dim + int(c.File)
}

func CoordOf(idx int) Coord {
	return Coord{File: int8(idx % Dim), Rank: int8(idx / Dim)}
}

// Offset returns the coordinate shifted by the given deltas, and whether it
// is still on the board.
func (c Coord) Offset(df, dr int8) (Coord, bool) {
	n := Coord{File: c.File + df, Rank: c.Rank + dr}
	return n, n.Valid()
}

func (c Coord) String() string {
	if !c.Valid() {
		return fmt.Sprintf("(%d,%d)", c.File, c.Rank)
	}
	return string([]byte{byte('a' + c.File), byte('1' + c.Rank)})
}

// ParseCoord parses algebraic text such as "e4".
func ParseCoord(s string) (Coord, error) {
	if len(s) != 2 {
		return Coord{}, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
	}
	return CoordFromAlgebraic(rune(s[0]), int(s[1]-'0'))
}

// CoordFromAlgebraic converts a file letter and a 1-based rank number.
func CoordFromAlgebraic(file rune, rank int) (Coord, error) {
	if file < 'a' || file > 'h' {
		return Coord{}, &FileOutOfBoundsError{File: file}
	}
	if rank < 1 || rank > Dim {
		return Coord{}, &RankOutOfBoundsError{Rank: rank}
	}
	return Coord{File: int8(file - 'a'), Rank: int8(rank - 1)}, nil
}

// A LocationSet is the set of squares a player occupies, one bit per array
// index.
type LocationSet uint64

func (s LocationSet) Has(c Coord) bool {
	return s&(1<<uint(c.Index())) != 0
}

func (s LocationSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Pop returns the lowest coordinate in the set and the set without it.
// The set must not be empty.
func (s LocationSet) Pop() (Coord, LocationSet) {
	idx := bits.TrailingZeros64(uint64(s))
	return CoordOf(idx), s & (s - 1)
}

// Coords lists the set in ascending index order.
func (s LocationSet) Coords() []Coord {
	cs := make([]Coord, 0, s.Len())
	for s != 0 {
		var c Coord
		c, s = s.Pop()
		cs = append(cs, c)
	}
	return cs
}
