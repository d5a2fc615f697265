package chess

import "golang.org/x/exp/slices"

// InCheck reports whether color's king is attacked. A board without a king of
// that color is never in check.
func (g *Game) InCheck(color Color) bool {
	king, ok := g.board.King(color)
	if !ok {
		return false
	}
	return g.Attacked(king, color.Opponent())
}

// Attacked reports whether any piece of color by reaches target. Attack mode
// generation is used, so castling never counts as an attack.
func (g *Game) Attacked(target Square, by Color) bool {
	for _, from := range g.board.Squares() {
		if g.board[from].Color != by {
			continue
		}
		if slices.Contains(g.pseudoMoves(from, true), target) {
			return true
		}
	}
	return false
}
