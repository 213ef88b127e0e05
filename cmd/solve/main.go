// Command solve finds a shortest solution for a level and can play it on a
// blockpush server through the session API.
//
//	solve -file levels/level_2.json
//	solve -difficulty normal -play -user alice1 -password ...
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/client"
	"github.com/wricardo/blockpush/game/engine"
	"github.com/wricardo/blockpush/game/level"
	"github.com/wricardo/blockpush/game/service"
)

type options struct {
	server     string
	difficulty string
	file       string
	limit      int
	play       bool
	user       string
	password   string
}

func main() {
	var opts options
	flag.StringVar(&opts.server, "url", client.DefaultBaseURL, "Game server URL")
	flag.StringVar(&opts.difficulty, "difficulty", "easy", "Level difficulty to fetch from the server (easy, normal)")
	flag.StringVar(&opts.file, "file", "", "Solve a level file instead of fetching one")
	flag.IntVar(&opts.limit, "limit", level.DefaultSolveLimit, "Maximum number of positions to explore")
	flag.BoolVar(&opts.play, "play", false, "Play the solution in a server session")
	flag.StringVar(&opts.user, "user", "", "Log in before playing so the clear is recorded")
	flag.StringVar(&opts.password, "password", "", "Password for -user")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, os.Stdout, client.New(opts.server), opts); err != nil {
		log.WithError(err).Error("[APP] solve failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, api *client.Client, opts options) error {
	lvl, err := loadLevel(ctx, api, opts)
	if err != nil {
		return err
	}

	started := time.Now()
	path, err := level.Solve(lvl, opts.limit)
	if err != nil {
		return fmt.Errorf("level %d: %w", lvl.ID, err)
	}
	moves := directionNames(path)
	log.WithFields(log.Fields{"level_id": lvl.ID, "moves": len(moves), "took": time.Since(started)}).Debug("[LEVEL] solved")

	fmt.Fprintf(out, "Level %d solved in %d moves:\n%s\n", lvl.ID, len(moves), strings.Join(moves, " "))

	if !opts.play {
		return nil
	}
	return play(ctx, out, api, opts, moves)
}

func loadLevel(ctx context.Context, api *client.Client, opts options) (*level.Level, error) {
	if opts.file == "" {
		return api.Supply(ctx, level.ParseDifficulty(opts.difficulty))
	}
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return nil, err
	}
	var lvl level.Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", opts.file, err)
	}
	return &lvl, nil
}

func play(ctx context.Context, out io.Writer, api *client.Client, opts options, moves []string) error {
	if opts.user != "" {
		if err := api.Login(ctx, opts.user, opts.password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		defer api.Logout(context.WithoutCancel(ctx))
	}

	info, err := api.CreateSession(ctx, level.ParseDifficulty(opts.difficulty))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	fmt.Fprintf(out, "Playing in session %s\n", info.ID)

	for len(moves) > 0 {
		n := min(len(moves), service.MaxBulkMoves)
		result, err := api.BulkMove(ctx, info.ID, moves[:n])
		if err != nil {
			return fmt.Errorf("bulk move: %w", err)
		}
		if result.Cleared {
			fmt.Fprintf(out, "Cleared in %s\n", result.GameState.ElapsedDisplay)
			return nil
		}
		if !result.Success {
			return fmt.Errorf("server stopped at move %d: %s", result.StoppedOnMove, result.StopReasonCode)
		}
		moves = moves[n:]
	}
	return errors.New("solution did not clear the server's level")
}

func directionNames(path []engine.Direction) []string {
	names := make([]string, len(path))
	for i, d := range path {
		names[i] = d.String()
	}
	return names
}
