package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"api-probe/internal/config"
	"api-probe/internal/domain"
)

type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

type ChatClient interface {
	Complete(ctx context.Context, model string, messages []domain.ChatMessage) (domain.Completion, error)
}

// ClientFactory builds a chat client for one run.
type ClientFactory func(apiKey, baseURL string) (ChatClient, error)

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// ProbeService issues the single probe request and turns every outcome into
// a Report. It holds no per-run state.
type ProbeService struct {
	keys      KeySource
	newClient ClientFactory
	request   domain.ProbeRequest
	logger    *slog.Logger
}

// BuildRequest returns the fixed two-message request described by cfg.
func BuildRequest(cfg config.Config) domain.ProbeRequest {
	return domain.ProbeRequest{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: cfg.SystemPrompt},
			{Role: domain.RoleUser, Content: cfg.UserPrompt},
		},
	}
}

func NewProbeService(keys KeySource, newClient ClientFactory, req domain.ProbeRequest, logger *slog.Logger) (*ProbeService, error) {
	if keys == nil {
		return nil, errors.New("usecase: key source must not be nil")
	}
	if newClient == nil {
		return nil, errors.New("usecase: client factory must not be nil")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("usecase: request must carry at least one message")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProbeService{
		keys:      keys,
		newClient: newClient,
		request:   req,
		logger:    logger,
	}, nil
}

// Run performs one probe. It never returns an error and never panics: any
// failure, including a panic in the client, is stored in Report.Err.
func (s *ProbeService) Run(ctx context.Context) (report domain.Report) {
	started := time.Now()
	report = domain.Report{
		RunID:     newUUID(),
		Endpoint:  s.request.BaseURL,
		Model:     s.request.Model,
		StartedAt: started.UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			report.Content, report.HasContent = "", false
			report.Err = &Error{Code: ErrorRequestFailed, Reason: reasonPanic, Err: pkgerrors.Errorf("panic: %v", r)}
		}
		report.Duration = time.Since(started)
		s.logReport(report)
	}()

	completion, err := s.complete(ctx)
	if err != nil {
		report.Err = err
		return report
	}
	report.Content = completion.Content
	report.HasContent = completion.HasContent
	return report
}

func (s *ProbeService) complete(ctx context.Context) (domain.Completion, error) {
	apiKey, err := s.keys.APIKey(ctx)
	if err != nil {
		return domain.Completion{}, newError(reasonCredential, err)
	}
	client, err := s.newClient(apiKey, s.request.BaseURL)
	if err != nil {
		return domain.Completion{}, newError(reasonClient, err)
	}
	completion, err := client.Complete(ctx, s.request.Model, s.request.Messages)
	if err != nil {
		return domain.Completion{}, newError(reasonChat, err)
	}
	return completion, nil
}

func (s *ProbeService) logReport(r domain.Report) {
	attrs := []any{
		"run_id", r.RunID,
		"endpoint", r.Endpoint,
		"model", r.Model,
		"duration_ms", r.Duration.Milliseconds(),
	}
	if r.OK() {
		s.logger.Info("probe succeeded", append(attrs, "has_content", r.HasContent)...)
		return
	}
	if status, ok := upstreamStatusCode(r.Err); ok {
		attrs = append(attrs, "status", status)
	}
	s.logger.Warn("probe failed", append(attrs, "err", r.Err)...)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newUUID = func() string {
	return uuid.NewString()
}
