package chess

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Color int

const (
	White Color = iota
	Black
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

type Kind int

const (
	Pawn Kind = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type Piece struct {
	Color Color `json:"color"`
	Kind  Kind  `json:"type"`
}

func (p Piece) String() string {
	return p.Color.String() + " " + p.Kind.String()
}

// Square is a (row, column) pair. Row 0 is rank 8 and column 0 is file a.
type Square struct {
	Row int
	Col int
}

func (s Square) String() string {
	if !InBounds(s) {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, 8-s.Row)
}

func InBounds(s Square) bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

// Board maps occupied squares to their piece. A missing key is an empty square.
type Board map[Square]Piece

func (b Board) Get(s Square) (Piece, bool) {
	p, ok := b[s]
	return p, ok
}

func (b Board) Set(s Square, p Piece) {
	b[s] = p
}

func (b Board) Remove(s Square) {
	delete(b, s)
}

func (b Board) Empty(s Square) bool {
	_, ok := b[s]
	return !ok
}

func (b Board) Clone() Board {
	return maps.Clone(b)
}

// Squares returns the occupied squares in row-major order.
func (b Board) Squares() []Square {
	squares := make([]Square, 0, len(b))
	for s := range b {
		squares = append(squares, s)
	}
	slices.SortFunc(squares, func(a, c Square) int {
		if a.Row != c.Row {
			return a.Row - c.Row
		}
		return a.Col - c.Col
	})
	return squares
}

// King returns the first square, in row-major order, holding the king of color.
func (b Board) King(color Color) (Square, bool) {
	for _, s := range b.Squares() {
		if b[s] == (Piece{Color: color, Kind: King}) {
			return s, true
		}
	}
	return Square{}, false
}

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func standardBoard() Board {
	board := make(Board, 32)
	for col := 0; col < 8; col++ {
		board[Square{Row: 0, Col: col}] = Piece{Color: Black, Kind: backRank[col]}
		board[Square{Row: 1, Col: col}] = Piece{Color: Black, Kind: Pawn}
		board[Square{Row: 6, Col: col}] = Piece{Color: White, Kind: Pawn}
		board[Square{Row: 7, Col: col}] = Piece{Color: White, Kind: backRank[col]}
	}
	return board
}
