// cmd/careerpath-sandbox/main.go
//
// Runs the in-process career guidance service on its own so the client can
// be driven end to end without the real backend.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/careerpath/internal/fakeapi"
	"github.com/kingrea/careerpath/internal/logging"
)

func main() {
	host := flag.String("host", "", "listen host (overrides CAREERPATH_SANDBOX_HOST)")
	port := flag.Int("port", 0, "listen port (overrides CAREERPATH_SANDBOX_PORT)")
	questions := flag.Int("questions", 0, "number of OLQ questions to serve (0 keeps the default)")
	level := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	lvl, err := logging.ParseLevel(*level)
	if err != nil {
		die("%v", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		die("init logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	settings := fakeapi.DefaultSettings()
	if *host != "" {
		settings.Host = *host
	}
	if *port != 0 {
		settings.Port = *port
	}
	opts := []fakeapi.Option{fakeapi.WithLogger(logger)}
	if *questions > 0 {
		opts = append(opts, fakeapi.WithQuestionCount(*questions))
	}
	server := fakeapi.New(settings, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.Start(ctx); err != nil {
		die("%v", err)
	}
	fmt.Fprintf(os.Stderr, "sandbox listening on %s\n", server.BaseURL())
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("sandbox: shutdown", zap.Error(err))
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "careerpath-sandbox: "+format+"\n", args...)
	os.Exit(1)
}
