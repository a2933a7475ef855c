package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geoquiz/hintkit/internal/core/config"
	"github.com/geoquiz/hintkit/internal/core/httpclient"
	"github.com/geoquiz/hintkit/internal/core/observability"
	"github.com/geoquiz/hintkit/internal/core/router"
	"github.com/geoquiz/hintkit/internal/core/server"
	"github.com/geoquiz/hintkit/internal/imagery"
	"github.com/geoquiz/hintkit/internal/imagery/jaxa"
	"github.com/geoquiz/hintkit/internal/logger"
	"github.com/geoquiz/hintkit/internal/metrics"
	"github.com/geoquiz/hintkit/internal/quiz"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	addrFlag := flag.String("addr", "", "listen address (overrides ADDR)")
	renderFlag := flag.String("render-url", "", "imagery render endpoint (overrides RENDER_URL)")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	if *renderFlag != "" {
		cfg.RenderURL = *renderFlag
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "quizd",
		Component: "main",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting quizd",
		"addr", cfg.Addr,
		"version", Version,
		"render_url", cfg.RenderURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		p := metrics.Init(metrics.Config{
			Enabled: true,
			Addr:    cfg.Metrics.Addr,
			Path:    cfg.Metrics.Path,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				Branch:    os.Getenv("BUILD_BRANCH"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		observability.Init(p.Registerer(), true)
		go func() {
			if err := p.Serve(ctx, appLog); err != nil {
				appLog.Error("metrics server exited", "err", err)
			}
		}()
	} else {
		observability.Init(nil, false)
	}

	renderer, err := jaxa.New(appLog, httpclient.NewOutbound(cfg.UpstreamTimeout), cfg.RenderURL)
	if err != nil {
		appLog.Error("failed to initialize render client", "err", err)
		return 1
	}
	fetcher := imagery.NewFetcher(appLog, renderer)

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	handlers := router.NewHandlers(appLog, cfg, fetcher, quiz.NewGenerator(seed))

	if err := server.Run(ctx, cfg, appLog, server.NewRouter(appLog, handlers)); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
