package controller

import (
	"encoding/json"
	"fmt"

	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/obslog"
	"github.com/benbeisheim/chessrules-backend/internal/service"
	"github.com/benbeisheim/chessrules-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID, _ := c.Locals("wsGameID").(string)
	playerID, _ := c.Locals("wsPlayerID").(string)
	log := obslog.L().With(zap.String("game_id", gameID), zap.String("player_id", playerID))

	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		log.Info("connection refused", zap.Error(err))
		_ = c.WriteJSON(ws.ErrorMessage(err.Error()))
		_ = c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debug("read loop ended", zap.Error(err))
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debug("parse error", zap.Error(err))
			wsc.reply(gameID, playerID, ws.ErrorMessage("malformed message"))
			continue
		}

		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			log.Debug("handle error", zap.String("type", string(msg.Type)), zap.Error(err))
			wsc.reply(gameID, playerID, ws.ErrorMessage(err.Error()))
		}
	}
}

// Handle different types of incoming messages
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.WSMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return err
		}
		_, err := wsc.gameService.HandleMove(gameID, playerID, move)
		return err

	case ws.MessageTypeValidMoves:
		var req ws.ValidMovesRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return err
		}
		from, moves, err := wsc.gameService.ValidMoves(gameID, req.Square)
		if err != nil {
			return err
		}
		resp := ws.ValidMovesResponse{Square: from.String(), Moves: make([]string, 0, len(moves))}
		for _, m := range moves {
			resp.Moves = append(resp.Moves, m.String())
		}
		out, err := ws.NewMessage(ws.MessageTypeValidMoves, resp)
		if err != nil {
			return err
		}
		wsc.reply(gameID, playerID, out)
		return nil

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// reply goes through the game so it is serialised with state broadcasts.
func (wsc *WebSocketController) reply(gameID, playerID string, msg ws.Message) {
	game, err := wsc.gameService.Game(gameID)
	if err != nil {
		return
	}
	if err := game.Send(playerID, msg); err != nil {
		obslog.L().Debug("reply failed", zap.String("game_id", gameID), zap.Error(err))
	}
}

// HandleMatchmaking waits for the player's match and forwards it as a matchFound message.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals("wsPlayerID").(string)
	log := obslog.L().With(zap.String("player_id", playerID))

	ch := make(chan string, 1)
	wsc.gameService.RegisterMatchmakingChannel(playerID, ch)
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	// Detect the client going away while we wait.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			log.Debug("matchmaking listener replaced")
			return
		}
		if err := c.WriteJSON(ws.Message{
			Type:    ws.MessageTypeMatchFound,
			Payload: json.RawMessage(event),
		}); err != nil {
			log.Warn("send match event", zap.Error(err))
		}
	case <-closed:
		log.Debug("matchmaking client left")
	}
}
