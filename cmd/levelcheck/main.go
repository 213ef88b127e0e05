// Command levelcheck validates and analyzes level files.
//
//	levelcheck validate [--strict] [files...]
//	levelcheck analyze [files...]
//
// Without file arguments every levels/*.json file is checked.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/blockpush/game/level"
)

var errCheckFailed = errors.New("one or more levels failed the check")

const defaultPattern = "levels/*.json"

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "levelcheck: %v\n", err)
		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "levelcheck",
		Usage: "validate and analyze blockpush level files",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "check shape, cell codes, player and goal counts",
				ArgsUsage: "[files...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "strict", Usage: "treat warnings as errors"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files, err := levelFiles(cmd.Args().Slice())
					if err != nil {
						return err
					}
					return validate(out, files, cmd.Bool("strict"))
				},
			},
			{
				Name:      "analyze",
				Usage:     "print size, cell counts and goal reachability",
				ArgsUsage: "[files...]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files, err := levelFiles(cmd.Args().Slice())
					if err != nil {
						return err
					}
					return analyze(out, files)
				},
			},
		},
	}
}

func levelFiles(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	files, err := filepath.Glob(defaultPattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no level files match %s", defaultPattern)
	}
	return files, nil
}

func readLevel(path string) (*level.Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var lvl level.Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return &lvl, nil
}

func validate(out io.Writer, files []string, strict bool) error {
	failed := 0
	for _, file := range files {
		name := filepath.Base(file)

		lvl, err := readLevel(file)
		if err != nil {
			fmt.Fprintf(out, "✗ %s\n  - %v\n", name, err)
			failed++
			continue
		}

		report := level.Inspect(lvl)
		ok := report.Valid() && (!strict || len(report.Warnings) == 0)
		if ok {
			fmt.Fprintf(out, "✓ %s (level %d, %dx%d)\n", name, lvl.ID, report.Width, report.Height)
		} else {
			fmt.Fprintf(out, "✗ %s\n", name)
			failed++
		}
		for _, e := range report.Errors {
			fmt.Fprintf(out, "  - error: %s\n", e)
		}
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "  - warning: %s\n", w)
		}
	}

	fmt.Fprintf(out, "\n%d/%d levels valid\n", len(files)-failed, len(files))
	if failed > 0 {
		return errCheckFailed
	}
	return nil
}

func analyze(out io.Writer, files []string) error {
	failed := 0
	for _, file := range files {
		fmt.Fprintf(out, "\n=== Analyzing %s ===\n", filepath.Base(file))

		lvl, err := readLevel(file)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			failed++
			continue
		}
		report := level.Inspect(lvl)
		if !report.Valid() {
			fmt.Fprintf(out, "Error: %s\n", strings.Join(report.Errors, "; "))
			failed++
			continue
		}

		fmt.Fprintf(out, "Level: %d (%s)\n", lvl.ID, level.DifficultyForLevel(lvl.ID))
		fmt.Fprintf(out, "Size: %d x %d\n", report.Width, report.Height)
		fmt.Fprintf(out, "Walls: %d  Blocks: %d  Players: %d  Goals: %d\n",
			report.Walls, report.Blocks, report.Players, report.Goals)

		reach, err := level.Reach(lvl)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			failed++
			continue
		}
		if report.Goals == 0 {
			fmt.Fprintln(out, "⚠️  No goal: the level can never be cleared")
			continue
		}
		fmt.Fprintf(out, "Goal reachable by walking: %s\n", yesNo(reach.Walking))
		fmt.Fprintf(out, "Goal reachable with pushes: %s\n", yesNo(reach.Pushing))
		if !reach.Pushing {
			fmt.Fprintln(out, "⚠️  Goal looks unreachable")
		}
	}

	if failed > 0 {
		return errCheckFailed
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
