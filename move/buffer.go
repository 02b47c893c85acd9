package move

import (
	"fmt"
	"sort"
)

// A Buffer is a growable arena of snapshots with a write cursor. It is never
// cleared: a caller sets the cursor to a base index, writes, and owns the
// region [base, Cursor()). Recursive searches stack their regions on top of
// each other and put the cursor back on return.
type Buffer struct {
	moves  []Snapshot
	cursor int
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{moves: make([]Snapshot, 0, capacity)}
}

func (b *Buffer) Cursor() int {
	return b.cursor
}

// SetCursor moves the write cursor. It may not move past the last written
// entry.
func (b *Buffer) SetCursor(i int) {
	if i < 0 || i > len(b.moves) {
		panic(fmt.Sprintf("buffer cursor %d outside [0, %d]", i, len(b.moves)))
	}
	b.cursor = i
}

// Push writes s at the cursor and advances it, growing the arena if needed.
// It returns the index written.
func (b *Buffer) Push(s Snapshot) int {
	idx := b.cursor
	if idx < len(b.moves) {
		b.moves[idx] = s
	} else {
		b.moves = append(b.moves, s)
	}
	b.cursor++
	return idx
}

func (b *Buffer) Get(i int) Snapshot {
	return b.moves[i]
}

// At returns a pointer into the arena. It is invalidated by the next Push
// that grows the buffer.
func (b *Buffer) At(i int) *Snapshot {
	return &b.moves[i]
}

func (b *Buffer) SetEval(i int, v float64) {
	b.moves[i].eval = v
}

// Slice returns the arena entries [start, end) without copying.
func (b *Buffer) Slice(start, end int) []Snapshot {
	return b.moves[start:end]
}

// Len is the number of entries ever written, regardless of the cursor.
func (b *Buffer) Len() int {
	return len(b.moves)
}

// SortRange orders [start, end) by evaluation. Equal evaluations keep their
// generation order.
func (b *Buffer) SortRange(start, end int, descending bool) {
	r := b.moves[start:end]
	sort.SliceStable(r, func(i, j int) bool {
		if descending {
			return r[i].eval > r[j].eval
		}
		return r[i].eval < r[j].eval
	})
}
