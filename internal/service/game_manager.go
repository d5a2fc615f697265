package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/chessrules-backend/internal/chess"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/obslog"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

// Matchmaker is the waiting room players are paired from.
type Matchmaker interface {
	Enqueue(ctx context.Context, playerID string) error
	NextPair(ctx context.Context) (first, second string, ok bool, err error)
	Remove(ctx context.Context, playerID string) error
	Size(ctx context.Context) (int, error)
}

// pendingMatchTTL bounds how long a match event waits for its player to listen.
const pendingMatchTTL = time.Minute

type pendingMatch struct {
	payload string
	at      time.Time
}

type GameManager struct {
	games            map[string]*model.Game
	queue            Matchmaker
	matchingChannels map[string]chan string
	pendingMatches   map[string]pendingMatch
	rules            chess.Rules
	interval         time.Duration
	now              func() time.Time
	mu               sync.RWMutex
}

type ManagerOption func(*GameManager)

func WithQueue(q Matchmaker) ManagerOption {
	return func(gm *GameManager) { gm.queue = q }
}

func WithRules(r chess.Rules) ManagerOption {
	return func(gm *GameManager) { gm.rules = r }
}

func WithMatchInterval(d time.Duration) ManagerOption {
	return func(gm *GameManager) {
		if d > 0 {
			gm.interval = d
		}
	}
}

func NewGameManager(opts ...ManagerOption) *GameManager {
	gm := &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		pendingMatches:   make(map[string]pendingMatch),
		interval:         time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(gm)
	}
	return gm
}

// Start runs matchmaking until ctx is cancelled.
func (gm *GameManager) Start(ctx context.Context) {
	ticker := time.NewTicker(gm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := gm.MatchOnce(ctx); err != nil {
				obslog.L().Warn("matchmaking tick failed", zap.Error(err))
			}
		}
	}
}

// MatchOnce drops expired held events, then pairs queued players until fewer
// than two remain.
func (gm *GameManager) MatchOnce(ctx context.Context) error {
	gm.prunePending()
	for {
		p1, p2, ok, err := gm.queue.NextPair(ctx)
		if err != nil {
			return fmt.Errorf("next pair: %w", err)
		}
		if !ok {
			return nil
		}
		gm.startMatch(p1, p2)
	}
}

func (gm *GameManager) startMatch(player1, player2 string) {
	gameID := uuid.New().String()
	game := model.NewGame(gameID, chess.WithRules(gm.rules))

	p1Color, err := game.AddPlayer(player1)
	if err != nil {
		obslog.L().Error("seat matched player", zap.String("player_id", player1), zap.Error(err))
		return
	}
	p2Color, err := game.AddPlayer(player2)
	if err != nil {
		obslog.L().Error("seat matched player", zap.String("player_id", player2), zap.Error(err))
		return
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.games[gameID] = game
	obslog.L().Info("match found",
		zap.String("game_id", gameID),
		zap.String("white", player1),
		zap.String("black", player2))

	gm.notifyMatch(player1, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
	gm.notifyMatch(player2, model.MatchFoundEvent{GameID: gameID, Color: p2Color})
}

// notifyMatch hands event to playerID's waiting channel and retires it. With no
// listener the event is held until one registers. Callers hold gm.mu.
func (gm *GameManager) notifyMatch(playerID string, event model.MatchFoundEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		obslog.L().Error("marshal match event", zap.Error(err))
		return
	}
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		obslog.L().Debug("holding match event", zap.String("player_id", playerID))
		gm.pendingMatches[playerID] = pendingMatch{payload: string(payload), at: gm.now()}
		return
	}
	gm.deliver(playerID, ch, string(payload))
}

func (gm *GameManager) prunePending() {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	cutoff := gm.now().Add(-pendingMatchTTL)
	for playerID, pending := range gm.pendingMatches {
		if pending.at.Before(cutoff) {
			delete(gm.pendingMatches, playerID)
			obslog.L().Debug("held match event expired", zap.String("player_id", playerID))
		}
	}
}

func (gm *GameManager) deliver(playerID string, ch chan string, payload string) {
	select {
	case ch <- payload:
		delete(gm.matchingChannels, playerID)
		close(ch)
	default:
		obslog.L().Warn("match event dropped", zap.String("player_id", playerID))
	}
}

// RegisterMatchmakingChannel makes ch the player's match listener. ch needs a buffer of one.
func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existing, exists := gm.matchingChannels[playerID]; exists {
		delete(gm.matchingChannels, playerID)
		close(existing)
	}
	gm.matchingChannels[playerID] = ch

	if pending, ok := gm.pendingMatches[playerID]; ok {
		delete(gm.pendingMatches, playerID)
		gm.deliver(playerID, ch, pending.payload)
	}
}

// UnregisterMatchmakingChannel removes ch if it is still registered for playerID.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if current, ok := gm.matchingChannels[playerID]; ok && current == ch {
		delete(gm.matchingChannels, playerID)
	}
}

func (gm *GameManager) CreateGame(gameID string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return ErrGameExists
	}
	gm.games[gameID] = model.NewGame(gameID, chess.WithRules(gm.rules))
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}
	return game, nil
}

func (gm *GameManager) GameCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.games)
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.PlayerColor, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return game.AddPlayer(playerID)
}

func (gm *GameManager) JoinMatchmaking(ctx context.Context, playerID string) error {
	gm.mu.Lock()
	delete(gm.pendingMatches, playerID)
	gm.mu.Unlock()
	return gm.queue.Enqueue(ctx, playerID)
}

func (gm *GameManager) LeaveMatchmaking(ctx context.Context, playerID string) error {
	gm.mu.Lock()
	delete(gm.pendingMatches, playerID)
	gm.mu.Unlock()
	return gm.queue.Remove(ctx, playerID)
}

func (gm *GameManager) QueueSize(ctx context.Context) (int, error) {
	return gm.queue.Size(ctx)
}
