package chess

var (
	knightOffsets   = []Square{{2, 1}, {2, -1}, {-2, 1}, {-2, -1}, {1, 2}, {1, -2}, {-1, 2}, {-1, -2}}
	kingOffsets     = []Square{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	diagonalDirs    = []Square{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	orthogonalDirs  = []Square{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	queenDirections = append(append([]Square{}, diagonalDirs...), orthogonalDirs...)
)

func offset(s Square, d Square) Square {
	return Square{Row: s.Row + d.Row, Col: s.Col + d.Col}
}

// pseudoMoves returns the geometric destinations of the piece on from, ignoring
// whether the move exposes its own king. With forAttackCheck set castling is never
// considered, which keeps check detection from re-entering itself.
func (g *Game) pseudoMoves(from Square, forAttackCheck bool) []Square {
	piece, ok := g.board.Get(from)
	if !ok {
		return nil
	}
	switch piece.Kind {
	case Pawn:
		if forAttackCheck {
			return pawnAttacks(from, piece)
		}
		return g.pseudoPawnMoves(from, piece)
	case Knight:
		return g.pseudoStepMoves(from, piece, knightOffsets)
	case Bishop:
		return g.pseudoSlidingMoves(from, piece, diagonalDirs)
	case Rook:
		return g.pseudoSlidingMoves(from, piece, orthogonalDirs)
	case Queen:
		return g.pseudoSlidingMoves(from, piece, queenDirections)
	case King:
		moves := g.pseudoStepMoves(from, piece, kingOffsets)
		if !forAttackCheck {
			moves = append(moves, g.castlingMoves(from, piece)...)
		}
		return moves
	default:
		return nil
	}
}

func pawnDirection(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

func pawnHomeRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

func (g *Game) pseudoPawnMoves(from Square, piece Piece) []Square {
	moves := []Square{}
	dir := pawnDirection(piece.Color)

	next := Square{Row: from.Row + dir, Col: from.Col}
	if InBounds(next) && g.board.Empty(next) {
		moves = append(moves, next)
		double := Square{Row: from.Row + 2*dir, Col: from.Col}
		if from.Row == pawnHomeRow(piece.Color) && InBounds(double) && g.board.Empty(double) {
			moves = append(moves, double)
		}
	}

	for _, dc := range []int{-1, 1} {
		target := Square{Row: from.Row + dir, Col: from.Col + dc}
		if !InBounds(target) {
			continue
		}
		if occupant, ok := g.board.Get(target); ok {
			if occupant.Color != piece.Color {
				moves = append(moves, target)
			}
			continue
		}
		if g.enPassantTarget(from, target.Col) {
			moves = append(moves, target)
		}
	}
	return moves
}

// pawnAttacks returns the diagonal squares a pawn controls, occupied or not.
// Pushes are left out since they can never capture.
func pawnAttacks(from Square, piece Piece) []Square {
	dir := pawnDirection(piece.Color)
	attacks := make([]Square, 0, 2)
	for _, dc := range []int{-1, 1} {
		if target := (Square{Row: from.Row + dir, Col: from.Col + dc}); InBounds(target) {
			attacks = append(attacks, target)
		}
	}
	return attacks
}

// enPassantTarget reports whether the previous move was an opponent's two-rank pawn
// advance that landed beside from on column col.
func (g *Game) enPassantTarget(from Square, col int) bool {
	last := g.lastMove
	if last == nil || last.Kind != Pawn {
		return false
	}
	if last.Color != g.board[from].Color.Opponent() || abs(last.From.Row-last.To.Row) != 2 {
		return false
	}
	return last.To.Row == from.Row && last.To.Col == col
}

func (g *Game) pseudoStepMoves(from Square, piece Piece, offsets []Square) []Square {
	moves := []Square{}
	for _, d := range offsets {
		target := offset(from, d)
		if !InBounds(target) {
			continue
		}
		if occupant, ok := g.board.Get(target); !ok || occupant.Color != piece.Color {
			moves = append(moves, target)
		}
	}
	return moves
}

func (g *Game) pseudoSlidingMoves(from Square, piece Piece, dirs []Square) []Square {
	moves := []Square{}
	for _, d := range dirs {
		for target := offset(from, d); InBounds(target); target = offset(target, d) {
			occupant, ok := g.board.Get(target)
			if !ok {
				moves = append(moves, target)
				continue
			}
			if occupant.Color != piece.Color {
				moves = append(moves, target)
			}
			break
		}
	}
	return moves
}

func (g *Game) castlingMoves(from Square, piece Piece) []Square {
	rights := g.castling[piece.Color]
	if !rights.Kingside && !rights.Queenside {
		return nil
	}
	if from != (Square{Row: homeRow(piece.Color), Col: 4}) {
		return nil
	}
	rook := Piece{Color: piece.Color, Kind: Rook}
	row := from.Row
	moves := []Square{}

	if rights.Kingside &&
		g.board.Empty(Square{row, 5}) && g.board.Empty(Square{row, 6}) &&
		g.board[Square{row, 7}] == rook &&
		g.castlePathSafe(piece.Color, Square{row, 5}) {
		moves = append(moves, Square{row, 6})
	}
	if rights.Queenside &&
		g.board.Empty(Square{row, 3}) && g.board.Empty(Square{row, 2}) && g.board.Empty(Square{row, 1}) &&
		g.board[Square{row, 0}] == rook &&
		g.castlePathSafe(piece.Color, Square{row, 3}) {
		moves = append(moves, Square{row, 2})
	}
	return moves
}

// castlePathSafe checks the king's own square and, under strict rules, the square
// it crosses. The landing square is left to the legality filter.
func (g *Game) castlePathSafe(color Color, crossed Square) bool {
	if g.InCheck(color) {
		return false
	}
	if g.rules.StrictCastling && g.Attacked(crossed, color.Opponent()) {
		return false
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
