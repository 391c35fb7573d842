// cmd/careerpath/main.go
//
// Entry point for the careerpath terminal client.
//
// Flow:
// 1. Initialize .careerpath in the working directory
// 2. Build the logger, API client, and TUI
// 3. Open the route given on the command line, if any

package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/kingrea/careerpath/internal/api"
	"github.com/kingrea/careerpath/internal/config"
	"github.com/kingrea/careerpath/internal/logging"
	"github.com/kingrea/careerpath/internal/route"
	"github.com/kingrea/careerpath/internal/tui"
)

const journalLines = 200

func main() {
	baseURL := flag.String("api", "", "career guidance service URL (overrides config)")
	level := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: careerpath [flags] [route]\n\n")
		fmt.Fprintf(os.Stderr, "route is one of /, /assessment, /recommendation/{id},\n")
		fmt.Fprintf(os.Stderr, "/study-plan/new/{recommendationId}, /study-plan/{planId}\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		die("determine working directory: %v", err)
	}
	if err := config.InitAppDir(cwd); err != nil {
		die("init %s: %v", config.AppDir, err)
	}
	cfg, err := config.NewConfig(cwd)
	if err != nil {
		die("load config: %v", err)
	}

	logLevel := cfg.LogLevel()
	if *level != "" {
		logLevel = *level
	}
	journal := logging.NewJournal(journalLines)
	logger, err := logging.New(logging.Options{Dir: cfg.LogsDir(), Level: logLevel, Journal: journal})
	if err != nil {
		die("init logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	endpoint := cfg.BaseURL()
	if *baseURL != "" {
		endpoint = *baseURL
	}
	client, err := api.New(endpoint, api.WithHeaders(cfg.Headers()), api.WithLogger(logger))
	if err != nil {
		die("api client: %v", err)
	}

	start := route.Parse("/")
	if flag.NArg() > 0 {
		start = route.Parse(flag.Arg(0))
	}
	app, err := tui.NewApp(cfg, client,
		tui.WithLogger(logger),
		tui.WithJournal(journal),
		tui.WithStartRoute(start),
	)
	if err != nil {
		die("init tui: %v", err)
	}
	logger.Info("careerpath: starting", zap.String("api", endpoint), zap.String("route", start.Path()))

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("careerpath: tui exited", zap.Error(err))
		die("run tui: %v", err)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "careerpath: "+format+"\n", args...)
	os.Exit(1)
}
