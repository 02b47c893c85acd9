package board

import (
	"fmt"
	"strings"
)

// ToDisplayText renders the board as a diagram, rank 8 on top.
func (b *Board) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("   a b c d e f g h\n")
	sb.WriteString("  -----------------\n")
	for r := int8(Dim - 1); r >= 0; r-- {
		fmt.Fprintf(&sb, "%d|", r+1)
		for f := int8(0); f < Dim; f++ {
			sb.WriteByte(' ')
			sb.WriteByte(b.At(C(f, r)).Letter())
		}
		fmt.Fprintf(&sb, " |%d\n", r+1)
	}
	sb.WriteString("  -----------------\n")
	sb.WriteString("   a b c d e f g h\n")
	fmt.Fprintf(&sb, "%v to move, castling %v\n", b.toMove, b.rights)
	return sb.String()
}

// Rows is the inverse of FromRows.
func (b *Board) Rows() []string {
	rows := make([]string, Dim)
	for r := int8(Dim - 1); r >= 0; r-- {
		row := make([]byte, Dim)
		for f := int8(0); f < Dim; f++ {
			row[f] = b.At(C(f, r)).Letter()
		}
		rows[Dim-1-r] = string(row)
	}
	return rows
}
