// Command blockpush-tui plays blockpush in the terminal against a blockpush
// server: levels are fetched from it and clear times are posted to it.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/client"
	"github.com/wricardo/blockpush/internal/tui"
)

var (
	serverURL = flag.String("server", envOr("BLOCKPUSH_SERVER", client.DefaultBaseURL), "Blockpush server URL")
	logFile   = flag.String("log", "", "Write logs to this file (logs are discarded otherwise)")
	debug     = flag.Bool("debug", false, "Enable debug logging")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	flag.Parse()

	// the terminal belongs to the renderer
	log.SetOutput(io.Discard)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	log.WithField("server", *serverURL).Info("[APP] starting terminal client")

	p := tea.NewProgram(tui.New(client.New(*serverURL)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
