package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/benbeisheim/chessrules-backend/internal/chess"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(opts ...ManagerOption) (*GameService, *GameManager) {
	gm := NewGameManager(opts...)
	return NewGameService(gm), gm
}

func TestCreateAndJoin(t *testing.T) {
	gs, gm := newService()

	gameID, err := gs.CreateGame()
	require.NoError(t, err)
	assert.Equal(t, 1, gm.GameCount())
	assert.ErrorIs(t, gm.CreateGame(gameID), ErrGameExists)

	color, err := gs.JoinGame(gameID, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.PlayerColorWhite, color)
	color, err = gs.JoinGame(gameID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.PlayerColorBlack, color)

	_, err = gs.JoinGame(gameID, "carol")
	assert.ErrorIs(t, err, model.ErrGameFull)
	_, err = gs.JoinGame("missing", "carol")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestHandleMoveAndValidMoves(t *testing.T) {
	gs, _ := newService()
	gameID, err := gs.CreateGame()
	require.NoError(t, err)
	_, err = gs.JoinGame(gameID, "alice")
	require.NoError(t, err)
	_, err = gs.JoinGame(gameID, "bob")
	require.NoError(t, err)

	from, moves, err := gs.ValidMoves(gameID, "e2")
	require.NoError(t, err)
	assert.Equal(t, chess.MustSquare("e2"), from)
	assert.ElementsMatch(t, []chess.Square{chess.MustSquare("e3"), chess.MustSquare("e4")}, moves)

	_, _, err = gs.ValidMoves(gameID, "z9")
	assert.ErrorIs(t, err, chess.ErrBadSquare)
	_, _, err = gs.ValidMoves("missing", "e2")
	assert.ErrorIs(t, err, ErrGameNotFound)

	ply, err := gs.HandleMove(gameID, "alice", model.WSMove{From: chess.MustSquare("e2"), To: chess.MustSquare("e4")})
	require.NoError(t, err)
	assert.Equal(t, "e2e4", ply.Notation)

	_, err = gs.HandleMove(gameID, "alice", model.WSMove{From: chess.MustSquare("d2"), To: chess.MustSquare("d4")})
	assert.ErrorIs(t, err, model.ErrWrongTurn)

	board, highlight, err := gs.Board(gameID)
	require.NoError(t, err)
	p, ok := board.Get(chess.MustSquare("e4"))
	require.True(t, ok)
	assert.Equal(t, chess.Pawn, p.Kind)
	assert.Equal(t, []chess.Square{chess.MustSquare("e2"), chess.MustSquare("e4")}, highlight)
}

func TestStrictRulesReachGames(t *testing.T) {
	gs, gm := newService(WithRules(chess.Rules{StrictCastling: true}))
	gameID, err := gs.CreateGame()
	require.NoError(t, err)

	game, err := gm.GetGame(gameID)
	require.NoError(t, err)
	assert.True(t, game.Rules().StrictCastling)
}

func TestMatchOncePairsAndNotifies(t *testing.T) {
	gs, gm := newService()
	ctx := context.Background()

	ch1, ch2 := make(chan string, 1), make(chan string, 1)
	gs.RegisterMatchmakingChannel("alice", ch1)
	gs.RegisterMatchmakingChannel("bob", ch2)

	require.NoError(t, gs.JoinMatchmaking(ctx, "alice"))
	assert.ErrorIs(t, gs.JoinMatchmaking(ctx, "alice"), model.ErrAlreadyQueued)
	require.NoError(t, gm.MatchOnce(ctx))
	assert.Equal(t, 0, gm.GameCount(), "one player is not a match")

	require.NoError(t, gs.JoinMatchmaking(ctx, "bob"))
	require.NoError(t, gm.MatchOnce(ctx))
	assert.Equal(t, 1, gm.GameCount())

	var e1, e2 model.MatchFoundEvent
	require.NoError(t, json.Unmarshal([]byte(<-ch1), &e1))
	require.NoError(t, json.Unmarshal([]byte(<-ch2), &e2))
	assert.Equal(t, e1.GameID, e2.GameID)
	assert.Equal(t, model.PlayerColorWhite, e1.Color)
	assert.Equal(t, model.PlayerColorBlack, e2.Color)

	_, open := <-ch1
	assert.False(t, open, "channel is closed after delivery")

	state, err := gs.GetGameState(e1.GameID)
	require.NoError(t, err)
	assert.Equal(t, "alice", state.Players.White.ID)
	assert.Equal(t, "bob", state.Players.Black.ID)

	size, err := gm.QueueSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRegisterReplacesChannel(t *testing.T) {
	gs, _ := newService()
	old, fresh := make(chan string, 1), make(chan string, 1)

	gs.RegisterMatchmakingChannel("alice", old)
	gs.RegisterMatchmakingChannel("alice", fresh)
	_, open := <-old
	assert.False(t, open)

	gs.UnregisterMatchmakingChannel("alice", old)
	gs.UnregisterMatchmakingChannel("alice", fresh)
}

func TestStartStopsOnCancel(t *testing.T) {
	gs, gm := newService(WithMatchInterval(5 * time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		gm.Start(ctx)
		close(done)
	}()

	require.NoError(t, gs.JoinMatchmaking(ctx, "alice"))
	require.NoError(t, gs.JoinMatchmaking(ctx, "bob"))
	require.Eventually(t, func() bool { return gm.GameCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("matchmaking loop did not stop")
	}
}

func TestRegisterConnectionRequiresSeat(t *testing.T) {
	gs, _ := newService()
	gameID, err := gs.CreateGame()
	require.NoError(t, err)

	err = gs.RegisterConnection(gameID, "stranger", nil)
	assert.ErrorIs(t, err, model.ErrNotParticipant)
	err = gs.RegisterConnection("missing", "stranger", nil)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestMatchHeldForLateListener(t *testing.T) {
	gs, gm := newService()
	ctx := context.Background()

	require.NoError(t, gs.JoinMatchmaking(ctx, "alice"))
	require.NoError(t, gs.JoinMatchmaking(ctx, "bob"))
	require.NoError(t, gm.MatchOnce(ctx))

	ch := make(chan string, 1)
	gs.RegisterMatchmakingChannel("bob", ch)

	var event model.MatchFoundEvent
	require.NoError(t, json.Unmarshal([]byte(<-ch), &event))
	assert.Equal(t, model.PlayerColorBlack, event.Color)
	_, err := gs.GetGameState(event.GameID)
	assert.NoError(t, err)
}

func TestLeaveDiscardsHeldMatch(t *testing.T) {
	gs, gm := newService()
	ctx := context.Background()

	require.NoError(t, gs.JoinMatchmaking(ctx, "alice"))
	require.NoError(t, gs.JoinMatchmaking(ctx, "bob"))
	require.NoError(t, gm.MatchOnce(ctx))
	require.NoError(t, gs.LeaveMatchmaking(ctx, "bob"))

	ch := make(chan string, 1)
	gs.RegisterMatchmakingChannel("bob", ch)
	assert.Empty(t, ch)
}

func TestHeldMatchExpires(t *testing.T) {
	gs, gm := newService()
	ctx := context.Background()
	now := time.Now()
	gm.now = func() time.Time { return now }

	require.NoError(t, gs.JoinMatchmaking(ctx, "alice"))
	require.NoError(t, gs.JoinMatchmaking(ctx, "bob"))
	require.NoError(t, gm.MatchOnce(ctx))

	now = now.Add(pendingMatchTTL / 2)
	require.NoError(t, gm.MatchOnce(ctx))
	early := make(chan string, 1)
	gs.RegisterMatchmakingChannel("alice", early)
	assert.Len(t, early, 1, "fresh events are still delivered")

	now = now.Add(pendingMatchTTL)
	require.NoError(t, gm.MatchOnce(ctx))
	late := make(chan string, 1)
	gs.RegisterMatchmakingChannel("bob", late)
	assert.Empty(t, late)
}
