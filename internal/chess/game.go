package chess

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

var (
	ErrOutOfBounds = errors.New("square out of bounds")
	ErrNoPiece     = errors.New("no piece at square")
	ErrNotYourTurn = errors.New("piece does not belong to the side to move")
	ErrIllegalMove = errors.New("illegal move")
)

// CastlingRights holds the two castling flags of one color.
type CastlingRights struct {
	Kingside  bool `json:"kingside"`
	Queenside bool `json:"queenside"`
}

// LastMove is the most recently committed move. Kind is the kind before promotion.
type LastMove struct {
	Color Color
	Kind  Kind
	From  Square
	To    Square
}

type Status int

const (
	StatusNone Status = iota
	StatusCheckmate
	StatusStalemate
)

func (s Status) String() string {
	switch s {
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	}
	return ""
}

// Rules selects optional rule variations.
type Rules struct {
	// StrictCastling forbids castling across an attacked square. Without it only
	// the king's starting square is tested.
	StrictCastling bool
}

type Option func(*Game)

func WithStrictCastling() Option {
	return func(g *Game) {
		g.rules.StrictCastling = true
	}
}

func WithRules(r Rules) Option {
	return func(g *Game) {
		g.rules = r
	}
}

// Game is the full rules state of one match. It is not safe for concurrent use.
type Game struct {
	board         Board
	castling      [2]CastlingRights
	lastMove      *LastMove
	currentPlayer Color
	rules         Rules
}

// NewGame returns the standard starting position with White to move.
func NewGame(opts ...Option) *Game {
	g := &Game{
		board:         standardBoard(),
		castling:      [2]CastlingRights{{true, true}, {true, true}},
		currentPlayer: White,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Game) Rules() Rules {
	return g.rules
}

func (g *Game) CurrentPlayer() Color {
	return g.currentPlayer
}

func (g *Game) SetCurrentPlayer(c Color) {
	g.currentPlayer = c
}

// Snapshot returns a copy of the board. Mutating it does not affect the game.
func (g *Game) Snapshot() Board {
	return g.board.Clone()
}

func (g *Game) ClearBoard() {
	g.board = make(Board)
}

func (g *Game) Piece(s Square) (Piece, error) {
	if !InBounds(s) {
		return Piece{}, fmt.Errorf("%w: %v", ErrOutOfBounds, s)
	}
	p, ok := g.board.Get(s)
	if !ok {
		return Piece{}, fmt.Errorf("%w: %v", ErrNoPiece, s)
	}
	return p, nil
}

func (g *Game) SetPiece(s Square, p Piece) {
	g.board.Set(s, p)
}

func (g *Game) RemovePiece(s Square) {
	g.board.Remove(s)
}

func (g *Game) CastlingRights(c Color) CastlingRights {
	return g.castling[c]
}

func (g *Game) SetCastlingRights(c Color, r CastlingRights) {
	g.castling[c] = r
}

// LastMove returns a copy of the last committed move, or nil before the first one.
func (g *Game) LastMove() *LastMove {
	if g.lastMove == nil {
		return nil
	}
	last := *g.lastMove
	return &last
}

// SetLastMove overrides the move history used for en passant. Position setup only.
func (g *Game) SetLastMove(m *LastMove) {
	if m == nil {
		g.lastMove = nil
		return
	}
	last := *m
	g.lastMove = &last
}

func (g *Game) clone() *Game {
	c := *g
	c.board = g.board.Clone()
	if g.lastMove != nil {
		last := *g.lastMove
		c.lastMove = &last
	}
	return &c
}

// ValidMoves returns the legal destinations of the piece on from. It is empty when
// the square is empty or holds a piece of the side not to move.
func (g *Game) ValidMoves(from Square) []Square {
	piece, ok := g.board.Get(from)
	if !ok || piece.Color != g.currentPlayer {
		return []Square{}
	}
	legal := []Square{}
	for _, to := range g.pseudoMoves(from, false) {
		if g.leavesKingSafe(from, to, piece.Color) {
			legal = append(legal, to)
		}
	}
	return legal
}

// leavesKingSafe plays from-to on a working copy and tests the mover's king there.
// The receiver is never mutated.
func (g *Game) leavesKingSafe(from, to Square, mover Color) bool {
	work := g.clone()
	work.commit(from, to)
	return !work.InCheck(mover)
}

// MoveResult describes the side effects of an applied move.
type MoveResult struct {
	Piece     Piece
	From      Square
	To        Square
	Captured  *Piece
	EnPassant bool
	// RookFrom and RookTo are set when the move castled.
	RookFrom  *Square
	RookTo    *Square
	Promotion bool
}

// MakeMove applies from-to if it is legal and reports whether it was applied.
func (g *Game) MakeMove(from, to Square) bool {
	_, err := g.Apply(from, to)
	return err == nil
}

// Apply validates and commits a move. On error the game is unchanged.
func (g *Game) Apply(from, to Square) (MoveResult, error) {
	if !InBounds(from) || !InBounds(to) {
		return MoveResult{}, fmt.Errorf("%w: %v-%v", ErrOutOfBounds, from, to)
	}
	piece, ok := g.board.Get(from)
	if !ok {
		return MoveResult{}, fmt.Errorf("%w: %v", ErrNoPiece, from)
	}
	if piece.Color != g.currentPlayer {
		return MoveResult{}, fmt.Errorf("%w: %v", ErrNotYourTurn, from)
	}
	if !slices.Contains(g.ValidMoves(from), to) {
		return MoveResult{}, fmt.Errorf("%w: %v-%v", ErrIllegalMove, from, to)
	}
	return g.commit(from, to), nil
}

// commit applies a move without validation, in the fixed order: castling rook and
// rights, rook rights, en passant capture, relocation, promotion, last move, turn.
func (g *Game) commit(from, to Square) MoveResult {
	piece := g.board[from]
	res := MoveResult{Piece: piece, From: from, To: to}
	rights := &g.castling[piece.Color]

	switch piece.Kind {
	case King:
		if abs(to.Col-from.Col) == 2 {
			rookFrom := Square{Row: from.Row, Col: 0}
			rookTo := Square{Row: from.Row, Col: 3}
			if to.Col > from.Col {
				rookFrom = Square{Row: from.Row, Col: 7}
				rookTo = Square{Row: from.Row, Col: 5}
			}
			if rook, ok := g.board.Get(rookFrom); ok {
				g.board.Remove(rookFrom)
				g.board.Set(rookTo, rook)
				res.RookFrom, res.RookTo = &rookFrom, &rookTo
			}
		}
		*rights = CastlingRights{}
	case Rook:
		switch from.Col {
		case 0:
			rights.Queenside = false
		case 7:
			rights.Kingside = false
		}
	}

	if piece.Kind == Pawn && to.Col != from.Col && g.board.Empty(to) {
		victim := Square{Row: from.Row, Col: to.Col}
		if captured, ok := g.board.Get(victim); ok {
			res.Captured = &captured
			res.EnPassant = true
			g.board.Remove(victim)
		}
	}

	if captured, ok := g.board.Get(to); ok {
		res.Captured = &captured
		g.revokeCapturedRook(to, captured)
	}
	g.board.Remove(from)
	g.board.Set(to, piece)

	if piece.Kind == Pawn && (to.Row == 0 || to.Row == 7) {
		g.board.Set(to, Piece{Color: piece.Color, Kind: Queen})
		res.Promotion = true
	}

	g.lastMove = &LastMove{Color: piece.Color, Kind: piece.Kind, From: from, To: to}
	g.currentPlayer = g.currentPlayer.Opponent()
	return res
}

// revokeCapturedRook drops the right tied to a rook taken on its home corner.
func (g *Game) revokeCapturedRook(s Square, captured Piece) {
	if captured.Kind != Rook || s.Row != homeRow(captured.Color) {
		return
	}
	switch s.Col {
	case 0:
		g.castling[captured.Color].Queenside = false
	case 7:
		g.castling[captured.Color].Kingside = false
	}
}

func homeRow(c Color) int {
	if c == White {
		return 7
	}
	return 0
}

// IsGameOver reports checkmate or stalemate for the side to move.
func (g *Game) IsGameOver() Status {
	for _, s := range g.board.Squares() {
		if g.board[s].Color != g.currentPlayer {
			continue
		}
		if len(g.ValidMoves(s)) > 0 {
			return StatusNone
		}
	}
	if g.InCheck(g.currentPlayer) {
		return StatusCheckmate
	}
	return StatusStalemate
}
