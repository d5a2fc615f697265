package model

import "github.com/benbeisheim/chessrules-backend/internal/chess"

// WSMove is a move request as sent by clients, squares in coordinate notation.
type WSMove struct {
	From chess.Square `json:"from"`
	To   chess.Square `json:"to"`
}

type CastleRookMove struct {
	From chess.Square `json:"from"`
	To   chess.Square `json:"to"`
}

type Ply struct {
	Piece          chess.Piece     `json:"piece"`
	From           chess.Square    `json:"from"`
	To             chess.Square    `json:"to"`
	CapturedPiece  *chess.Piece    `json:"capturedPiece"`
	CastleRookMove *CastleRookMove `json:"castleRookMove"`
	EnPassant      bool            `json:"enPassant"`
	Promotion      bool            `json:"promotion"`
	Notation       string          `json:"notation"`
}

type Move struct {
	WhitePly *Ply `json:"whitePly"`
	BlackPly *Ply `json:"blackPly"`
}

type SimpleMove struct {
	From chess.Square `json:"from"`
	To   chess.Square `json:"to"`
}

func newPly(res chess.MoveResult) Ply {
	ply := Ply{
		Piece:         res.Piece,
		From:          res.From,
		To:            res.To,
		CapturedPiece: res.Captured,
		EnPassant:     res.EnPassant,
		Promotion:     res.Promotion,
	}
	if res.RookFrom != nil && res.RookTo != nil {
		ply.CastleRookMove = &CastleRookMove{From: *res.RookFrom, To: *res.RookTo}
	}
	ply.Notation = plyNotation(ply)
	return ply
}

// plyNotation is long coordinate notation: "e2e4", "e5xd6", "O-O", "e7e8=Q".
func plyNotation(p Ply) string {
	if p.CastleRookMove != nil {
		if p.To.Col == 6 {
			return "O-O"
		}
		return "O-O-O"
	}
	sep := ""
	if p.CapturedPiece != nil {
		sep = "x"
	}
	notation := p.From.String() + sep + p.To.String()
	if p.Promotion {
		notation += "=Q"
	}
	return notation
}
