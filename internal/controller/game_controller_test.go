package controller

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benbeisheim/chessrules-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() (*fiber.App, *service.GameService, *service.GameManager) {
	gm := service.NewGameManager()
	gs := service.NewGameService(gm)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	Register(app, gs, nil)
	return app, gs, gm
}

func doRequest(t *testing.T, app *fiber.App, method, path, playerID string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if playerID != "" {
		req.Header.Set("X-Player-ID", playerID)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc), string(raw))
	return doc
}

func createSeatedGame(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, body := doRequest(t, app, fiber.MethodPost, "/api/game/create", "alice", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	gameID, _ := decode(t, body)["game_id"].(string)
	require.NotEmpty(t, gameID)

	resp, body = doRequest(t, app, fiber.MethodPost, "/api/game/join/"+gameID, "alice", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "white", decode(t, body)["color"])

	resp, body = doRequest(t, app, fiber.MethodPost, "/api/game/join/"+gameID, "bob", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "black", decode(t, body)["color"])
	return gameID
}

func TestPlayerIDRequired(t *testing.T) {
	app, _, _ := newTestApp()
	resp, _ := doRequest(t, app, fiber.MethodPost, "/api/game/create", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(fiber.MethodPost, "/api/game/create?playerId=alice", nil)
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestJoinAndState(t *testing.T) {
	app, _, _ := newTestApp()
	gameID := createSeatedGame(t, app)

	resp, body := doRequest(t, app, fiber.MethodPost, "/api/game/join/"+gameID, "carol", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "game is full", decode(t, body)["error"])

	resp, _ = doRequest(t, app, fiber.MethodPost, "/api/game/join/missing", "carol", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = doRequest(t, app, fiber.MethodGet, "/api/game/"+gameID, "carol", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	state := decode(t, body)
	assert.Equal(t, gameID, state["id"])
	assert.Equal(t, "white", state["toMove"])
	players := state["players"].(map[string]interface{})
	assert.Equal(t, "alice", players["white"].(map[string]interface{})["name"])
	assert.Equal(t, "bob", players["black"].(map[string]interface{})["name"])

	resp, _ = doRequest(t, app, fiber.MethodGet, "/api/game/missing", "carol", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestValidMovesEndpoint(t *testing.T) {
	app, _, _ := newTestApp()
	gameID := createSeatedGame(t, app)

	resp, body := doRequest(t, app, fiber.MethodGet, "/api/game/"+gameID+"/moves?square=g1", "alice", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	doc := decode(t, body)
	assert.Equal(t, "g1", doc["square"])
	assert.ElementsMatch(t, []interface{}{"f3", "h3"}, doc["moves"])

	resp, body = doRequest(t, app, fiber.MethodGet, "/api/game/"+gameID+"/moves?square=e4", "alice", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, decode(t, body)["moves"])

	resp, _ = doRequest(t, app, fiber.MethodGet, "/api/game/"+gameID+"/moves?square=k9", "alice", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMoveEndpoint(t *testing.T) {
	app, _, _ := newTestApp()
	gameID := createSeatedGame(t, app)
	path := "/api/game/" + gameID + "/move"

	resp, _ := doRequest(t, app, fiber.MethodPost, path, "carol", fiber.Map{"from": "e2", "to": "e4"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = doRequest(t, app, fiber.MethodPost, path, "bob", fiber.Map{"from": "e7", "to": "e5"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, fiber.MethodPost, path, "alice", fiber.Map{"from": "e2", "to": "e5"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, fiber.MethodPost, path, "alice", fiber.Map{"from": "e2", "to": "x0"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := doRequest(t, app, fiber.MethodPost, path, "alice", fiber.Map{"from": "e2", "to": "e4"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	state := decode(t, body)
	assert.Equal(t, "black", state["toMove"])
	lastMove := state["lastMove"].(map[string]interface{})
	assert.Equal(t, "e2", lastMove["from"])
	assert.Equal(t, "e4", lastMove["to"])

	resp, _ = doRequest(t, app, fiber.MethodPost, "/api/game/missing/move", "alice", fiber.Map{"from": "e2", "to": "e4"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestBoardRenderings(t *testing.T) {
	app, _, _ := newTestApp()
	gameID := createSeatedGame(t, app)
	base := "/api/game/" + gameID

	resp, body := doRequest(t, app, fiber.MethodGet, base+"/board.svg", "alice", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, string(body), "<svg")

	resp, body = doRequest(t, app, fiber.MethodGet, base+"/board.png?size=20", "alice", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())

	for _, q := range []string{"?size=1000000000", "?size=-5"} {
		resp, body = doRequest(t, app, fiber.MethodGet, base+"/board.png"+q, "alice", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, q)
		assert.Contains(t, decode(t, body)["error"], "size")
		resp, _ = doRequest(t, app, fiber.MethodGet, base+"/board.svg"+q, "alice", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, q)
	}

	resp, body = doRequest(t, app, fiber.MethodGet, base+"/board.txt", "alice", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "  a b c d e f g h"))

	resp, _ = doRequest(t, app, fiber.MethodGet, "/api/game/missing/board.svg", "alice", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestMatchmakingEndpoints(t *testing.T) {
	app, _, gm := newTestApp()

	resp, body := doRequest(t, app, fiber.MethodPost, "/api/game/matchmaking/join", "alice", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "queued", decode(t, body)["status"])

	resp, _ = doRequest(t, app, fiber.MethodPost, "/api/game/matchmaking/join", "alice", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, fiber.MethodPost, "/api/game/matchmaking/leave", "alice", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Zero(t, gm.GameCount())
}
