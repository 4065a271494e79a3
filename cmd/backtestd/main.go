// Command backtestd runs one backtest strategy against a file-backed
// kline source until it receives SIGINT or SIGTERM, then prints the
// final equity and realized PnL. It does not exit by itself when the
// play loop reaches the configured end time.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/config"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "strategy.json", "path to the strategy configuration file")
	dataDir := flag.String("data-dir", "./data", "directory of <symbol>_<timeframe>.json kline files")
	timeframe := flag.String("timeframe", "1m", "kline timeframe suffix used to locate data files")
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols to preload from data-dir")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger := setupLogger(*logLevel)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load strategy configuration", zap.Error(err))
	}

	var symbols []string
	if *symbolsFlag != "" {
		symbols = strings.Split(*symbolsFlag, ",")
	}

	klines, err := workflow.LoadFileKlineSource(*dataDir, *timeframe, symbols, nil)
	if err != nil {
		logger.Fatal("failed to load kline data", zap.Error(err))
	}

	registry := prometheus.NewRegistry()

	runtime, err := workflow.New(logger, cfg, klines, registry)
	if err != nil {
		logger.Fatal("failed to build strategy runtime", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := runtime.Play(context.Background()); err != nil {
		logger.Fatal("failed to start strategy runtime", zap.Error(err))
	}

	<-ctx.Done()

	// The report is read before Stop, while the VTS engine's command
	// loop is still serving requests.
	report, err := runtime.GetPerformanceReport(context.Background())
	runtime.Stop()
	if err != nil {
		logger.Error("failed to fetch performance report", zap.Error(err))
		return
	}
	fmt.Printf("final equity: %s, realized pnl: %s\n", report.Equity, report.RealizedPnL)
}

// setupLogger builds a console-encoded zap logger, matching the
// teacher's cmd/server/main.go encoder configuration.
func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
