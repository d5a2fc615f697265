// Command console plays a two-player game on the terminal, moves entered as "e2 e4".
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/benbeisheim/chessrules-backend/internal/chess"
	"github.com/benbeisheim/chessrules-backend/internal/config"
	"github.com/benbeisheim/chessrules-backend/internal/obslog"
	"github.com/benbeisheim/chessrules-backend/internal/render"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	strict := flag.Bool("strict-castling", false, "forbid castling across an attacked square")
	flag.Parse()

	rules := chess.Rules{StrictCastling: *strict}
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			obslog.Init(obslog.Options{}).Fatal("load config", zap.Error(err))
		}
		obslog.Init(obslog.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
		rules.StrictCastling = rules.StrictCastling || cfg.Rules.StrictCastling
	}

	if err := run(os.Stdin, os.Stdout, chess.WithRules(rules)); err != nil {
		obslog.L().Error("console", zap.Error(err))
		os.Exit(1)
	}
}

// run plays until the game ends or in is exhausted.
func run(in io.Reader, out io.Writer, opts ...chess.Option) error {
	game := chess.NewGame(opts...)
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, render.Text(game.Snapshot()))
		fmt.Fprintf(out, "\nCurrent player: %s\n", game.CurrentPlayer())
		fmt.Fprint(out, "Enter move (e.g., 'e2 e4'): ")

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		from, to, err := chess.ParseMove(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, "Invalid input format")
			continue
		}
		if !game.MakeMove(from, to) {
			fmt.Fprintln(out, "Invalid move")
			continue
		}
		if status := game.IsGameOver(); status != chess.StatusNone {
			fmt.Fprint(out, render.Text(game.Snapshot()))
			fmt.Fprintf(out, "\nGame over: %s\n", status)
			return nil
		}
	}
}
