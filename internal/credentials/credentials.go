// Package credentials resolves the API key used by the probe.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Getter is satisfied by *paramstore.Client.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Static returns a fixed key.
type Static string

func (s Static) APIKey(_ context.Context) (string, error) {
	key := strings.TrimSpace(string(s))
	if key == "" {
		return "", errors.New("credentials: API key is empty")
	}
	return key, nil
}

// tokenPayload is the expected JSON shape stored in SSM for the API token.
type tokenPayload struct {
	Token string `json:"token"`
}

// ParamStore reads the key from an SSM parameter. A successful lookup is
// reused for the lifetime of the process; failures are not cached.
type ParamStore struct {
	getter Getter
	name   string

	mu     sync.Mutex
	apiKey string
}

func NewParamStore(getter Getter, name string) (*ParamStore, error) {
	if getter == nil {
		return nil, errors.New("credentials: paramstore getter must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("credentials: token parameter name is empty")
	}
	return &ParamStore{getter: getter, name: name}, nil
}

func (p *ParamStore) APIKey(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.apiKey != "" {
		return p.apiKey, nil
	}
	key, err := fetchAPIKey(ctx, p.getter, p.name)
	if err != nil {
		return "", err
	}
	p.apiKey = key
	return key, nil
}

func fetchAPIKey(ctx context.Context, getter Getter, name string) (string, error) {
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("credentials: fetch token from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("credentials: unmarshal paramstore token value as JSON: %w", err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", errors.New("credentials: API token is empty")
	}
	return strings.TrimSpace(tp.Token), nil
}
