// Command lambda runs the probe as a scheduled AWS Lambda function.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"api-probe/handler"
	"api-probe/internal/app"
	"api-probe/internal/config"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	probe, err := app.Build(ctx, cfg, app.DefaultAWSLoader, logger)
	if err != nil {
		logger.Error("failed to build probe", "err", err)
		os.Exit(1)
	}

	var history handler.RunHistory
	if probe.History != nil {
		history = probe.History
	}

	h, err := handler.NewHandler(probe.Service, history, os.Stdout, logger)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
