package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/benbeisheim/chessrules-backend/internal/chess"
	"github.com/benbeisheim/chessrules-backend/internal/obslog"
	"github.com/benbeisheim/chessrules-backend/internal/ws"
	"go.uber.org/zap"
)

var (
	ErrGameFull       = errors.New("game is full")
	ErrNotParticipant = errors.New("player not in game")
	ErrWrongTurn      = errors.New("not your turn")
	ErrGameOver       = errors.New("game is over")
)

// Conn is the part of a websocket connection a game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// The connections for a specific game
type GameConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.RWMutex
	writeMu     sync.Mutex
}

// Game is one hosted match: the rules engine plus seats, history and observers.
type Game struct {
	ID          string
	mu          sync.Mutex
	engine      *chess.Game
	players     Players
	history     []Move
	captured    CapturedPieces
	resolve     *string
	connections *GameConnections
}

type GameState struct {
	ID             string                               `json:"id"`
	Board          BoardState                           `json:"boardState"`
	ToMove         chess.Color                          `json:"toMove"`
	MoveHistory    []Move                               `json:"moveHistory"`
	CapturedPieces CapturedPieces                       `json:"capturedPieces"`
	IsCheck        bool                                 `json:"isCheck"`
	Resolve        *string                              `json:"resolve"`
	Castling       map[chess.Color]chess.CastlingRights `json:"castling"`
	LastMove       *SimpleMove                          `json:"lastMove"`
	Players        Players                              `json:"players"`
}

type CapturedPieces struct {
	White []chess.Piece `json:"white"`
	Black []chess.Piece `json:"black"`
}

func NewGame(id string, opts ...chess.Option) *Game {
	return &Game{
		ID:          id,
		engine:      chess.NewGame(opts...),
		history:     make([]Move, 0),
		captured:    newCapturedPieces(),
		connections: NewGameConnections(),
	}
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

func newCapturedPieces() CapturedPieces {
	return CapturedPieces{
		White: make([]chess.Piece, 0),
		Black: make([]chess.Piece, 0),
	}
}

// AddPlayer seats playerID, white first. A player already seated keeps the seat.
func (g *Game) AddPlayer(playerID string) (PlayerColor, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if color, ok := g.colorOf(playerID); ok {
		return color, nil
	}
	if g.players.White.ID == "" {
		g.players.White = ClientPlayer{ID: playerID, Color: string(PlayerColorWhite)}
		return PlayerColorWhite, nil
	}
	if g.players.Black.ID == "" {
		g.players.Black = ClientPlayer{ID: playerID, Color: string(PlayerColorBlack)}
		return PlayerColorBlack, nil
	}
	return "", ErrGameFull
}

func (g *Game) colorOf(playerID string) (PlayerColor, bool) {
	switch {
	case playerID == "":
		return "", false
	case g.players.White.ID == playerID:
		return PlayerColorWhite, true
	case g.players.Black.ID == playerID:
		return PlayerColorBlack, true
	}
	return "", false
}

func (g *Game) Rules() chess.Rules {
	return g.engine.Rules()
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.colorOf(playerID)
	return ok
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

func (g *Game) stateLocked() GameState {
	state := GameState{
		ID:          g.ID,
		Board:       newBoardState(g.engine.Snapshot()),
		ToMove:      g.engine.CurrentPlayer(),
		MoveHistory: append([]Move(nil), g.history...),
		CapturedPieces: CapturedPieces{
			White: append([]chess.Piece{}, g.captured.White...),
			Black: append([]chess.Piece{}, g.captured.Black...),
		},
		IsCheck: g.engine.InCheck(g.engine.CurrentPlayer()),
		Resolve: g.resolve,
		Castling: map[chess.Color]chess.CastlingRights{
			chess.White: g.engine.CastlingRights(chess.White),
			chess.Black: g.engine.CastlingRights(chess.Black),
		},
		Players: g.players,
	}
	if state.MoveHistory == nil {
		state.MoveHistory = []Move{}
	}
	if last := g.engine.LastMove(); last != nil {
		state.LastMove = &SimpleMove{From: last.From, To: last.To}
	}
	return state
}

// Board returns a copy of the position and the last move, for renderers.
func (g *Game) Board() (chess.Board, *chess.LastMove) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Snapshot(), g.engine.LastMove()
}

func (g *Game) ValidMoves(from chess.Square) []chess.Square {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.resolve != nil {
		return []chess.Square{}
	}
	return g.engine.ValidMoves(from)
}

// MakeMove plays move for playerID, records it and notifies observers.
func (g *Game) MakeMove(playerID string, move WSMove) (Ply, error) {
	g.mu.Lock()
	ply, err := g.makeMoveLocked(playerID, move)
	if err != nil {
		g.mu.Unlock()
		return Ply{}, err
	}
	state := g.stateLocked()
	// writeMu is taken before mu is released so states reach observers in move order.
	g.connections.writeMu.Lock()
	g.mu.Unlock()
	defer g.connections.writeMu.Unlock()

	g.writeStateLocked(state)
	return ply, nil
}

func (g *Game) makeMoveLocked(playerID string, move WSMove) (Ply, error) {
	color, ok := g.colorOf(playerID)
	if !ok {
		return Ply{}, ErrNotParticipant
	}
	if g.resolve != nil {
		return Ply{}, ErrGameOver
	}
	if color.Chess() != g.engine.CurrentPlayer() {
		return Ply{}, ErrWrongTurn
	}

	res, err := g.engine.Apply(move.From, move.To)
	if err != nil {
		return Ply{}, fmt.Errorf("move %v-%v: %w", move.From, move.To, err)
	}
	ply := newPly(res)
	g.recordPly(ply)

	if status := g.engine.IsGameOver(); status != chess.StatusNone {
		result := status.String()
		g.resolve = &result
		obslog.L().Info("game finished",
			zap.String("game_id", g.ID),
			zap.String("result", result),
			zap.Int("moves", len(g.history)))
	}
	return ply, nil
}

func (g *Game) recordPly(ply Ply) {
	if ply.Piece.Color == chess.White || len(g.history) == 0 {
		mv := Move{}
		if ply.Piece.Color == chess.White {
			mv.WhitePly = &ply
		} else {
			mv.BlackPly = &ply
		}
		g.history = append(g.history, mv)
	} else {
		last := &g.history[len(g.history)-1]
		if last.BlackPly != nil {
			g.history = append(g.history, Move{BlackPly: &ply})
		} else {
			last.BlackPly = &ply
		}
	}

	if ply.CapturedPiece != nil {
		switch ply.Piece.Color {
		case chess.White:
			g.captured.White = append(g.captured.White, *ply.CapturedPiece)
		case chess.Black:
			g.captured.Black = append(g.captured.Black, *ply.CapturedPiece)
		}
	}
}

// RegisterConnection attaches conn as playerID's observer. A second connection for
// the same player is closed and the first one kept.
func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		g.connections.mu.Unlock()
		obslog.L().Info("rejecting duplicate connection",
			zap.String("game_id", g.ID), zap.String("player_id", playerID))
		_ = conn.Close()
		return nil
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()
	obslog.L().Debug("registered connection", zap.String("game_id", g.ID), zap.String("player_id", playerID))

	g.mu.Lock()
	state := g.stateLocked()
	g.connections.writeMu.Lock()
	g.mu.Unlock()
	defer g.connections.writeMu.Unlock()

	g.writeStateLocked(state)
	return nil
}

// UnregisterConnection drops playerID's connection if conn is still the current one.
func (g *Game) UnregisterConnection(playerID string, conn Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if current, exists := g.connections.connections[playerID]; exists && current == conn {
		delete(g.connections.connections, playerID)
		obslog.L().Debug("unregistered connection", zap.String("game_id", g.ID), zap.String("player_id", playerID))
	}
}

func (g *Game) ConnectionCount() int {
	g.connections.mu.RLock()
	defer g.connections.mu.RUnlock()
	return len(g.connections.connections)
}

// writeStateLocked sends state to every connection. Callers hold connections.writeMu.
func (g *Game) writeStateLocked(state GameState) {
	payload, err := json.Marshal(state)
	if err != nil {
		obslog.L().Error("marshal game state", zap.String("game_id", g.ID), zap.Error(err))
		return
	}

	g.connections.mu.RLock()
	active := make(map[string]Conn, len(g.connections.connections))
	for playerID, conn := range g.connections.connections {
		active[playerID] = conn
	}
	g.connections.mu.RUnlock()

	for playerID, conn := range active {
		if err := conn.WriteJSON(ws.Message{
			Type:    ws.MessageTypeGameState,
			Payload: json.RawMessage(payload),
		}); err != nil {
			obslog.L().Warn("send state failed",
				zap.String("game_id", g.ID), zap.String("player_id", playerID), zap.Error(err))
			g.UnregisterConnection(playerID, conn)
		}
	}
}

// Send writes one message to playerID's connection, if connected.
func (g *Game) Send(playerID string, msg ws.Message) error {
	g.connections.mu.RLock()
	conn, ok := g.connections.connections[playerID]
	g.connections.mu.RUnlock()
	if !ok {
		return nil
	}
	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()
	return conn.WriteJSON(msg)
}
