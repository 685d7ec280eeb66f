package domain

import "time"

// Report is the outcome of one probe run.
type Report struct {
	RunID      string
	Endpoint   string
	Model      string
	StartedAt  time.Time
	Duration   time.Duration
	Content    string
	HasContent bool
	Err        error
}

func (r Report) OK() bool {
	return r.Err == nil
}

// RunRecord is the persisted summary of a probe run.
type RunRecord struct {
	PK        string
	SK        string
	RunID     string
	Endpoint  string
	Model     string
	Status    string
	Content   string
	Error     string
	LatencyMS int64
	TTL       int64
}
