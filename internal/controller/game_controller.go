package controller

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/benbeisheim/chessrules-backend/internal/chess"
	"github.com/benbeisheim/chessrules-backend/internal/middleware"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/obslog"
	"github.com/benbeisheim/chessrules-backend/internal/render"
	"github.com/benbeisheim/chessrules-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// statusFor maps service and rules errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrGameFull):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrNotParticipant):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrAlreadyQueued),
		errors.Is(err, model.ErrWrongTurn),
		errors.Is(err, model.ErrGameOver),
		errors.Is(err, chess.ErrIllegalMove),
		errors.Is(err, chess.ErrNoPiece),
		errors.Is(err, chess.ErrNotYourTurn),
		errors.Is(err, chess.ErrOutOfBounds),
		errors.Is(err, chess.ErrBadSquare):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		obslog.L().Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	gameID, err := gc.gameService.CreateGame()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := middleware.PlayerID(c)

	color, err := gc.gameService.JoinGame(gameID, playerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	if err := gc.gameService.JoinMatchmaking(c.UserContext(), middleware.PlayerID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "queued",
	})
}

func (gc *GameController) LeaveMatchmaking(c *fiber.Ctx) error {
	if err := gc.gameService.LeaveMatchmaking(c.UserContext(), middleware.PlayerID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "left",
	})
}

func (gc *GameController) ValidMoves(c *fiber.Ctx) error {
	from, moves, err := gc.gameService.ValidMoves(c.Params("gameId"), c.Query("square"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"square": from,
		"moves":  moves,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var move model.WSMove
	if err := c.BodyParser(&move); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid move body: " + err.Error(),
		})
	}

	gameID := c.Params("gameId")
	if _, err := gc.gameService.HandleMove(gameID, middleware.PlayerID(c), move); err != nil {
		return fail(c, err)
	}

	gameState, err := gc.gameService.GetGameState(gameID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(gameState)
}

var errBadSize = fmt.Errorf("size must be between 0 and %d", render.MaxSquareSize)

func squareSize(c *fiber.Ctx) (int, error) {
	size := c.QueryInt("size")
	if size < 0 || size > render.MaxSquareSize {
		return 0, errBadSize
	}
	return size, nil
}

func (gc *GameController) BoardSVG(c *fiber.Ctx) error {
	size, err := squareSize(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	board, highlight, err := gc.gameService.Board(c.Params("gameId"))
	if err != nil {
		return fail(c, err)
	}
	var buf bytes.Buffer
	render.SVG(&buf, board, render.Options{Highlight: highlight, SquareSize: size})
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.Send(buf.Bytes())
}

func (gc *GameController) BoardPNG(c *fiber.Ctx) error {
	size, err := squareSize(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	board, highlight, err := gc.gameService.Board(c.Params("gameId"))
	if err != nil {
		return fail(c, err)
	}
	img, err := render.PNG(board, render.Options{Highlight: highlight, SquareSize: size})
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(img)
}

func (gc *GameController) BoardText(c *fiber.Ctx) error {
	board, _, err := gc.gameService.Board(c.Params("gameId"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(render.Text(board))
}
