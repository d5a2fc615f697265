package service

import (
	"context"
	"fmt"

	"github.com/benbeisheim/chessrules-backend/internal/chess"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/obslog"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) CreateGame() (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(gameID); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	obslog.L().Info("game created", zap.String("game_id", gameID))
	return gameID, nil
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.PlayerColor, error) {
	color, err := gs.gameManager.AddPlayerToGame(gameID, playerID)
	if err != nil {
		return "", err
	}
	obslog.L().Info("player joined",
		zap.String("game_id", gameID),
		zap.String("player_id", playerID),
		zap.String("color", string(color)))
	return color, nil
}

func (gs *GameService) JoinMatchmaking(ctx context.Context, playerID string) error {
	if err := gs.gameManager.JoinMatchmaking(ctx, playerID); err != nil {
		return err
	}
	obslog.L().Debug("player queued", zap.String("player_id", playerID))
	return nil
}

func (gs *GameService) LeaveMatchmaking(ctx context.Context, playerID string) error {
	return gs.gameManager.LeaveMatchmaking(ctx, playerID)
}

func (gs *GameService) Game(gameID string) (*model.Game, error) {
	return gs.gameManager.GetGame(gameID)
}

func (gs *GameService) GetGameState(gameID string) (model.GameState, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.GetState(), nil
}

// ValidMoves lists the legal destinations of the piece on square, which is in
// coordinate notation.
func (gs *GameService) ValidMoves(gameID string, square string) (chess.Square, []chess.Square, error) {
	from, err := chess.ParseSquare(square)
	if err != nil {
		return chess.Square{}, nil, err
	}
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return chess.Square{}, nil, err
	}
	return from, game.ValidMoves(from), nil
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.WSMove) (model.Ply, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.Ply{}, err
	}
	ply, err := game.MakeMove(playerID, move)
	if err != nil {
		obslog.L().Debug("move rejected",
			zap.String("game_id", gameID),
			zap.String("player_id", playerID),
			zap.Error(err))
		return model.Ply{}, err
	}
	return ply, nil
}

// Board returns a copy of the position and the squares of the last move.
func (gs *GameService) Board(gameID string) (chess.Board, []chess.Square, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, nil, err
	}
	board, last := game.Board()
	if last == nil {
		return board, nil, nil
	}
	return board, []chess.Square{last.From, last.To}, nil
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	if !game.IsPlayerInGame(playerID) {
		return model.ErrNotParticipant
	}
	return game.RegisterConnection(playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
