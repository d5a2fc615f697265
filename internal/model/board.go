package model

import "github.com/benbeisheim/chessrules-backend/internal/chess"

type SquarePiece struct {
	Square chess.Square `json:"square"`
	Color  chess.Color  `json:"color"`
	Kind   chess.Kind   `json:"type"`
}

type BoardState struct {
	Pieces []SquarePiece `json:"pieces"`
}

func newBoardState(board chess.Board) BoardState {
	state := BoardState{Pieces: make([]SquarePiece, 0, len(board))}
	for _, s := range board.Squares() {
		p := board[s]
		state.Pieces = append(state.Pieces, SquarePiece{Square: s, Color: p.Color, Kind: p.Kind})
	}
	return state
}

// At returns the piece listed on s, if any.
func (b BoardState) At(s chess.Square) (chess.Piece, bool) {
	for _, sp := range b.Pieces {
		if sp.Square == s {
			return chess.Piece{Color: sp.Color, Kind: sp.Kind}, true
		}
	}
	return chess.Piece{}, false
}
