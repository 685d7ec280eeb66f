// Command probe sends one chat-completion request to an OpenAI-compatible
// endpoint and prints the reply or the full error trace. It always exits 0.
package main

import (
	"context"
	"log/slog"
	"os"

	"api-probe/internal/app"
	"api-probe/internal/config"
	"api-probe/internal/domain"
	"api-probe/internal/usecase"
)

func main() {
	ctx := context.Background()
	out := usecase.NewRenderer(os.Stdout)

	// ---- Configuration (read only here) ----
	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		render(out, usecase.ConfigFailure(os.Getenv(config.EnvPrefix+"BASE_URL"), err))
		return
	}
	logger := app.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	probe, err := app.Build(ctx, cfg, app.DefaultAWSLoader, logger)
	if err != nil {
		logger.Error("failed to build probe", "err", err)
		render(out, usecase.ConfigFailure(cfg.BaseURL, err))
		return
	}

	report := probe.Service.Run(ctx)
	render(out, report)

	if probe.History != nil {
		if err := probe.History.SaveRun(ctx, probe.History.NewRunRecord(report)); err != nil {
			logger.Warn("failed to record run", "run_id", report.RunID, "err", err)
		}
	}
}

func render(r *usecase.Renderer, report domain.Report) {
	if err := r.Render(report); err != nil {
		slog.Error("failed to write report", "err", err)
	}
}
