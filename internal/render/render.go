// Package render draws board snapshots as text, SVG and PNG.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/benbeisheim/chessrules-backend/internal/chess"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	lightSquare     = "#f0d9b5"
	darkSquare      = "#b58863"
	highlightSquare = "#cdd26a"
	defaultSize     = 60
	files           = "abcdefgh"
)

// MaxSquareSize is the largest square edge rendered; bigger requests are clamped.
const MaxSquareSize = 256

var glyphs = map[chess.Piece]string{
	{Color: chess.White, Kind: chess.Pawn}:   "♙",
	{Color: chess.White, Kind: chess.Rook}:   "♖",
	{Color: chess.White, Kind: chess.Knight}: "♘",
	{Color: chess.White, Kind: chess.Bishop}: "♗",
	{Color: chess.White, Kind: chess.Queen}:  "♕",
	{Color: chess.White, Kind: chess.King}:   "♔",
	{Color: chess.Black, Kind: chess.Pawn}:   "♟",
	{Color: chess.Black, Kind: chess.Rook}:   "♜",
	{Color: chess.Black, Kind: chess.Knight}: "♞",
	{Color: chess.Black, Kind: chess.Bishop}: "♝",
	{Color: chess.Black, Kind: chess.Queen}:  "♛",
	{Color: chess.Black, Kind: chess.King}:   "♚",
}

var letters = map[chess.Kind]string{
	chess.Pawn: "P", chess.Knight: "N", chess.Bishop: "B",
	chess.Rook: "R", chess.Queen: "Q", chess.King: "K",
}

// Glyph returns the Unicode chess symbol of p.
func Glyph(p chess.Piece) string {
	return glyphs[p]
}

// Letter returns the FEN-style letter of p: upper case for White.
func Letter(p chess.Piece) string {
	l := letters[p.Kind]
	if p.Color == chess.Black {
		return strings.ToLower(l)
	}
	return l
}

type Options struct {
	// Highlight marks squares, usually the last move's origin and destination.
	Highlight []chess.Square
	// SquareSize is the edge of one square in pixels. Zero means 60.
	SquareSize int
}

func (o Options) squareSize() int {
	switch {
	case o.SquareSize <= 0:
		return defaultSize
	case o.SquareSize > MaxSquareSize:
		return MaxSquareSize
	}
	return o.SquareSize
}

func (o Options) highlighted(s chess.Square) bool {
	for _, h := range o.Highlight {
		if h == s {
			return true
		}
	}
	return false
}

func squareFill(s chess.Square, opts Options) string {
	if opts.highlighted(s) {
		return highlightSquare
	}
	if (s.Row+s.Col)%2 == 0 {
		return lightSquare
	}
	return darkSquare
}

// Text renders the board as a grid with files a-h and ranks 8-1.
func Text(board chess.Board) string {
	var b strings.Builder
	b.WriteString("  a b c d e f g h\n")
	b.WriteString("  ---------------\n")
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&b, "%d| ", 8-row)
		for col := 0; col < 8; col++ {
			if p, ok := board.Get(chess.Square{Row: row, Col: col}); ok {
				b.WriteString(Glyph(p))
			} else {
				b.WriteString(".")
			}
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "|%d\n", 8-row)
	}
	b.WriteString("  ---------------\n")
	b.WriteString("  a b c d e f g h\n")
	return b.String()
}

// SVG writes the board with glyph pieces and coordinates.
func SVG(w io.Writer, board chess.Board, opts Options) {
	size := opts.squareSize()
	canvas := svg.New(w)
	canvas.Start(size*8, size*8)
	writeSquares(canvas, opts)
	for _, s := range board.Squares() {
		p := board[s]
		x := s.Col*size + size/2
		y := s.Row*size + size*3/4
		canvas.Text(x, y, Glyph(p), fmt.Sprintf("text-anchor:middle;font-size:%dpx;fill:#000", size*3/4))
	}
	for col := 0; col < 8; col++ {
		canvas.Text(col*size+2, size*8-3, files[col:col+1], fmt.Sprintf("font-size:%dpx;fill:#333", size/5))
	}
	for row := 0; row < 8; row++ {
		canvas.Text(size*8-size/6, row*size+size/5+1, fmt.Sprint(8-row), fmt.Sprintf("font-size:%dpx;fill:#333", size/5))
	}
	canvas.End()
}

func writeSquares(canvas *svg.SVG, opts Options) {
	size := opts.squareSize()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			s := chess.Square{Row: row, Col: col}
			canvas.Rect(col*size, row*size, size, size, "fill:"+squareFill(s, opts))
		}
	}
}

// PNG rasterises the board squares and stamps piece letters on top.
func PNG(board chess.Board, opts Options) ([]byte, error) {
	size := opts.squareSize()
	edge := size * 8

	var squares bytes.Buffer
	canvas := svg.New(&squares)
	canvas.Start(edge, edge)
	writeSquares(canvas, opts)
	canvas.End()

	icon, err := oksvg.ReadIconStream(&squares)
	if err != nil {
		return nil, fmt.Errorf("parse board svg: %w", err)
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.W, icon.ViewBox.H = float64(edge), float64(edge)
	}
	icon.SetTarget(0, 0, float64(edge), float64(edge))

	img := image.NewRGBA(image.Rect(0, 0, edge, edge))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(edge, edge, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(edge, edge, scanner), 1.0)

	face := basicfont.Face7x13
	for _, s := range board.Squares() {
		p := board[s]
		ink := color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff}
		if p.Color == chess.White {
			ink = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
		}
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(ink),
			Face: face,
			Dot: fixed.Point26_6{
				X: fixed.I(s.Col*size + size/2 - face.Width/2),
				Y: fixed.I(s.Row*size + size/2 + face.Ascent/2),
			},
		}
		d.DrawString(Letter(p))
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}
