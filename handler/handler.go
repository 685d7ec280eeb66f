package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"api-probe/internal/domain"
	"api-probe/internal/repository"
	"api-probe/internal/usecase"
)

type Prober interface {
	Run(ctx context.Context) domain.Report
}

type RunHistory interface {
	NewRunRecord(r domain.Report) domain.RunRecord
	RecentRuns(ctx context.Context, endpoint string, limit int) ([]domain.RunRecord, error)
	SaveRun(ctx context.Context, rec domain.RunRecord) error
}

// Result is returned to the scheduler for each invocation.
type Result struct {
	RunID    string `json:"runId"`
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
	OK       bool   `json:"ok"`
	Changed  bool   `json:"changed"`
	Content  string `json:"content,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Handler runs the probe on a schedule. A failed probe is reported in the
// Result, never as an invocation error.
type Handler struct {
	prober  Prober
	history RunHistory
	out     io.Writer
	logger  *slog.Logger
}

// NewHandler wires the handler. history may be nil to disable run history.
func NewHandler(prober Prober, history RunHistory, out io.Writer, logger *slog.Logger) (*Handler, error) {
	if prober == nil {
		return nil, errors.New("handler: prober must not be nil")
	}
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{prober: prober, history: history, out: out, logger: logger}, nil
}

func (h *Handler) Handle(ctx context.Context, event events.CloudWatchEvent) (Result, error) {
	report := h.prober.Run(ctx)
	if err := usecase.NewRenderer(h.out).Render(report); err != nil {
		h.logger.Error("failed to write report", "run_id", report.RunID, "err", err)
	}

	res := Result{
		RunID:    report.RunID,
		Endpoint: report.Endpoint,
		Model:    report.Model,
		OK:       report.OK(),
	}
	if report.OK() {
		res.Content = report.Content
	} else {
		res.Error = report.Err.Error()
	}

	if h.history != nil {
		res.Changed = h.record(ctx, report)
	}

	h.logger.Info("scheduled probe finished",
		"event_id", event.ID,
		"run_id", res.RunID,
		"ok", res.OK,
		"changed", res.Changed,
	)
	return res, nil
}

// record stores the run and reports whether its status differs from the
// previous run for the same endpoint. The first recorded run counts as a
// change.
func (h *Handler) record(ctx context.Context, report domain.Report) bool {
	changed := true
	rec := h.history.NewRunRecord(report)

	prev, err := h.history.RecentRuns(ctx, report.Endpoint, 1)
	if err != nil {
		h.logger.Warn("failed to read run history", "run_id", report.RunID, "err", err)
	} else if len(prev) > 0 {
		changed = prev[0].Status != rec.Status
	}

	if err := h.history.SaveRun(ctx, rec); err != nil {
		h.logger.Warn("failed to save run", "run_id", report.RunID, "err", err)
	}
	return changed
}

var _ RunHistory = (*repository.Client)(nil)
