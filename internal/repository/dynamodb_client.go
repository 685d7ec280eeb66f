package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"api-probe/internal/domain"
)

const (
	pkPrefixProbe = "PROBE#"
	skPrefixRun   = "RUN#"
	ttlDuration   = 30 * 24 * time.Hour // 30-day TTL

	StatusOK     = "ok"
	StatusFailed = "failed"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client stores probe run history in a DynamoDB table keyed by endpoint host.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

// probePK groups runs by endpoint host so different paths on one host share
// history.
func probePK(endpoint string) string {
	host := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = u.Host
	}
	return pkPrefixProbe + strings.ToLower(host)
}

func runSK(ts time.Time) string {
	return skPrefixRun + ts.UTC().Format(time.RFC3339Nano)
}

// NewRunRecord projects a report onto its persisted form.
func (c *Client) NewRunRecord(r domain.Report) domain.RunRecord {
	started := r.StartedAt
	if started.IsZero() {
		started = c.now()
	}
	rec := domain.RunRecord{
		PK:        probePK(r.Endpoint),
		SK:        runSK(started),
		RunID:     r.RunID,
		Endpoint:  r.Endpoint,
		Model:     r.Model,
		Status:    StatusOK,
		Content:   r.Content,
		LatencyMS: r.Duration.Milliseconds(),
		TTL:       c.now().Add(ttlDuration).Unix(),
	}
	if !r.OK() {
		rec.Status = StatusFailed
		rec.Content = ""
		rec.Error = r.Err.Error()
	}
	return rec
}

// SaveRun persists a run record. Records are never overwritten.
func (c *Client) SaveRun(ctx context.Context, rec domain.RunRecord) error {
	if rec.PK == "" || rec.SK == "" {
		return errors.New("repository: SaveRun: PK and SK are required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                runItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveRun: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs for the endpoint, newest first.
func (c *Client) RecentRuns(ctx context.Context, endpoint string, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 1
	}
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: probePK(endpoint)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixRun},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: RecentRuns query: %w", err)
	}

	runs := make([]domain.RunRecord, 0, len(out.Items))
	for _, item := range out.Items {
		rec, err := itemToRun(item)
		if err != nil {
			return nil, fmt.Errorf("repository: RecentRuns unmarshal: %w", err)
		}
		runs = append(runs, rec)
	}
	return runs, nil
}

func runItem(rec domain.RunRecord) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: rec.PK},
		"SK":        &types.AttributeValueMemberS{Value: rec.SK},
		"runId":     &types.AttributeValueMemberS{Value: rec.RunID},
		"endpoint":  &types.AttributeValueMemberS{Value: rec.Endpoint},
		"model":     &types.AttributeValueMemberS{Value: rec.Model},
		"status":    &types.AttributeValueMemberS{Value: rec.Status},
		"latencyMs": &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.LatencyMS, 10)},
		"ttl":       &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.TTL, 10)},
	}
	if rec.Content != "" {
		item["content"] = &types.AttributeValueMemberS{Value: rec.Content}
	}
	if rec.Error != "" {
		item["error"] = &types.AttributeValueMemberS{Value: rec.Error}
	}
	return item
}

func itemToRun(item map[string]types.AttributeValue) (domain.RunRecord, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.RunRecord{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.RunRecord{}, err
	}
	status, err := strAttr(item, "status")
	if err != nil {
		return domain.RunRecord{}, err
	}
	runID, _ := strAttr(item, "runId")
	endpoint, _ := strAttr(item, "endpoint")
	model, _ := strAttr(item, "model")
	content, _ := strAttr(item, "content")
	errText, _ := strAttr(item, "error")
	latency, _ := intAttr(item, "latencyMs")

	return domain.RunRecord{
		PK:        pk,
		SK:        sk,
		RunID:     runID,
		Endpoint:  endpoint,
		Model:     model,
		Status:    status,
		Content:   content,
		Error:     errText,
		LatencyMS: latency,
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
