package board

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds matches every bounds error below with errors.Is.
	ErrOutOfBounds   = errors.New("out of bounds")
	ErrBadCoordinate = errors.New("coordinate must be a file a-h followed by a rank 1-8")
	ErrBadDiagram    = errors.New("board diagram must have 8 rows of 8 squares")
	ErrKingCount     = errors.New("each player must have exactly one king")
	ErrBadRights     = errors.New("castling right without king and rook on their home squares")
)

type RankOutOfBoundsError struct {
	Rank int
}

func (e *RankOutOfBoundsError) Error() string {
	return fmt.Sprintf("rank %d out of bounds", e.Rank)
}

func (e *RankOutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

type FileOutOfBoundsError struct {
	File rune
}

func (e *FileOutOfBoundsError) Error() string {
	return fmt.Sprintf("file %q out of bounds", e.File)
}

func (e *FileOutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

type CoordinateOutOfBoundsError struct {
	X, Y int
}

func (e *CoordinateOutOfBoundsError) Error() string {
	return fmt.Sprintf("coordinate (%d, %d) out of bounds", e.X, e.Y)
}

func (e *CoordinateOutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}
