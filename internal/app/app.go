// Package app wires configuration to the probe and its AWS integrations.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"api-probe/internal/config"
	"api-probe/internal/credentials"
	"api-probe/internal/integrations/openai"
	"api-probe/internal/integrations/paramstore"
	"api-probe/internal/repository"
	"api-probe/internal/usecase"
)

// Probe bundles a ready probe service with its optional run history.
type Probe struct {
	Service *usecase.ProbeService
	History *repository.Client
}

// AWSLoader matches config.LoadDefaultConfig so tests can avoid real AWS.
type AWSLoader func(ctx context.Context) (aws.Config, error)

func DefaultAWSLoader(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

// Build assembles the probe described by cfg. AWS configuration is only
// loaded when SSM or DynamoDB is enabled.
func Build(ctx context.Context, cfg config.Config, loadAWS AWSLoader, logger *slog.Logger) (*Probe, error) {
	var awsCfg *aws.Config
	awsConfig := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		c, err := loadAWS(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("app: load AWS config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	var keys usecase.KeySource = credentials.Static(cfg.APIKey)
	if cfg.APIKey == "" && cfg.ParamPrefix != "" {
		c, err := awsConfig()
		if err != nil {
			return nil, err
		}
		ps, err := paramstore.New(awsssm.NewFromConfig(c))
		if err != nil {
			return nil, fmt.Errorf("app: create SSM client: %w", err)
		}
		keys, err = credentials.NewParamStore(ps, cfg.TokenParameterName())
		if err != nil {
			return nil, fmt.Errorf("app: create credential source: %w", err)
		}
	}

	svc, err := usecase.NewProbeService(keys, NewChatClient, usecase.BuildRequest(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("app: create probe service: %w", err)
	}

	p := &Probe{Service: svc}
	if cfg.StateTable != "" {
		c, err := awsConfig()
		if err != nil {
			return nil, err
		}
		p.History, err = repository.New(awsdynamodb.NewFromConfig(c), cfg.StateTable)
		if err != nil {
			return nil, fmt.Errorf("app: create run history: %w", err)
		}
	}
	return p, nil
}

// NewChatClient is the production usecase.ClientFactory.
func NewChatClient(apiKey, baseURL string) (usecase.ChatClient, error) {
	c, err := openai.NewClient(apiKey, baseURL)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewLogger returns a text logger on the given writer at level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
