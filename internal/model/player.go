package model

import "github.com/benbeisheim/chessrules-backend/internal/chess"

type ClientPlayer struct {
	ID    string `json:"name"`
	Color string `json:"color"`
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

type PlayerColor string

const (
	PlayerColorWhite PlayerColor = "white"
	PlayerColorBlack PlayerColor = "black"
)

func (c PlayerColor) Chess() chess.Color {
	if c == PlayerColorBlack {
		return chess.Black
	}
	return chess.White
}

// MatchFoundEvent is pushed to both players when matchmaking pairs them.
type MatchFoundEvent struct {
	GameID string      `json:"gameId"`
	Color  PlayerColor `json:"color"`
}
