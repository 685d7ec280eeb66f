package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"api-probe/internal/domain"
	"api-probe/internal/usecase"
)

type stubProber struct {
	report domain.Report
	calls  int
}

func (s *stubProber) Run(_ context.Context) domain.Report {
	s.calls++
	return s.report
}

type fakeHistory struct {
	prev     []domain.RunRecord
	queryErr error
	saveErr  error
	saved    []domain.RunRecord
}

func (f *fakeHistory) NewRunRecord(r domain.Report) domain.RunRecord {
	status := "ok"
	if !r.OK() {
		status = "failed"
	}
	return domain.RunRecord{PK: "PROBE#x", SK: "RUN#" + r.RunID, RunID: r.RunID, Status: status}
}

func (f *fakeHistory) RecentRuns(_ context.Context, _ string, _ int) ([]domain.RunRecord, error) {
	return f.prev, f.queryErr
}

func (f *fakeHistory) SaveRun(_ context.Context, rec domain.RunRecord) error {
	f.saved = append(f.saved, rec)
	return f.saveErr
}

func okReport() domain.Report {
	return domain.Report{
		RunID:      "run-1",
		Endpoint:   "https://api.chatanywhere.tech/v1",
		Model:      "gpt-4.1-mini",
		StartedAt:  time.Date(2025, 6, 1, 4, 30, 0, 0, time.UTC),
		Content:    "2025-06-01T10:00:00+05:30",
		HasContent: true,
	}
}

func failedReport() domain.Report {
	r := okReport()
	r.Content, r.HasContent = "", false
	r.Err = errors.New("openai: unexpected status 401")
	return r
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scheduledEvent() events.CloudWatchEvent {
	return events.CloudWatchEvent{ID: "evt-1", DetailType: "Scheduled Event", Source: "aws.events"}
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil, nil, nil, nil)
	require.Error(t, err)
}

func TestHandle_SuccessWithoutHistory(t *testing.T) {
	p := &stubProber{report: okReport()}
	var out bytes.Buffer
	h, err := NewHandler(p, nil, &out, quietLogger())
	require.NoError(t, err)

	res, err := h.Handle(context.Background(), scheduledEvent())
	require.NoError(t, err)
	require.Equal(t, Result{
		RunID:    "run-1",
		Endpoint: "https://api.chatanywhere.tech/v1",
		Model:    "gpt-4.1-mini",
		OK:       true,
		Content:  "2025-06-01T10:00:00+05:30",
	}, res)
	require.Contains(t, out.String(), usecase.SuccessHeader)
	require.Equal(t, 1, p.calls)
}

func TestHandle_FailureIsNotAnInvocationError(t *testing.T) {
	var out bytes.Buffer
	h, err := NewHandler(&stubProber{report: failedReport()}, nil, &out, quietLogger())
	require.NoError(t, err)

	res, err := h.Handle(context.Background(), scheduledEvent())
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Contains(t, res.Error, "401")
	require.Contains(t, out.String(), usecase.FailureHeader)
}

func TestHandle_ChangedAgainstPreviousRun(t *testing.T) {
	cases := []struct {
		name    string
		report  domain.Report
		prev    []domain.RunRecord
		changed bool
	}{
		{name: "first run", report: okReport(), prev: nil, changed: true},
		{name: "still ok", report: okReport(), prev: []domain.RunRecord{{Status: "ok"}}, changed: false},
		{name: "now failing", report: failedReport(), prev: []domain.RunRecord{{Status: "ok"}}, changed: true},
		{name: "recovered", report: okReport(), prev: []domain.RunRecord{{Status: "failed"}}, changed: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hist := &fakeHistory{prev: tc.prev}
			h, err := NewHandler(&stubProber{report: tc.report}, hist, io.Discard, quietLogger())
			require.NoError(t, err)

			res, err := h.Handle(context.Background(), scheduledEvent())
			require.NoError(t, err)
			require.Equal(t, tc.changed, res.Changed)
			require.Len(t, hist.saved, 1)
			require.Equal(t, "run-1", hist.saved[0].RunID)
		})
	}
}

func TestHandle_HistoryErrorsAreLoggedOnly(t *testing.T) {
	hist := &fakeHistory{queryErr: errors.New("ResourceNotFoundException"), saveErr: errors.New("throttled")}
	var logs bytes.Buffer
	h, err := NewHandler(&stubProber{report: okReport()}, hist, io.Discard, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)

	res, err := h.Handle(context.Background(), scheduledEvent())
	require.NoError(t, err)
	require.True(t, res.OK)
	require.True(t, res.Changed)
	require.Contains(t, logs.String(), "failed to read run history")
	require.Contains(t, logs.String(), "failed to save run")
}
