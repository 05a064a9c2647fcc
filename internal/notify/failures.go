package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"lead-intake/internal/common/config"
	"lead-intake/internal/common/database"
	"lead-intake/internal/models"
)

// RedisFailureStore keeps the most recent delivery failures in a capped
// Redis list, newest first.
type RedisFailureStore struct {
	client *database.RedisClient
	key    string
	maxLen int64
}

func NewRedisFailureStore(client *database.RedisClient, key string, maxLen int64) *RedisFailureStore {
	return &RedisFailureStore{client: client, key: key, maxLen: maxLen}
}

func (s *RedisFailureStore) Backend() string { return config.FailureStoreRedis }

func (s *RedisFailureStore) Record(ctx context.Context, failure models.DeliveryFailure) error {
	payload, err := json.Marshal(failure)
	if err != nil {
		return fmt.Errorf("marshal delivery failure: %w", err)
	}
	return s.client.PushCapped(ctx, s.key, payload, s.maxLen)
}

// Recent returns up to n records, newest first.
func (s *RedisFailureStore) Recent(ctx context.Context, n int64) ([]models.DeliveryFailure, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := s.client.Range(ctx, s.key, 0, n-1)
	if err != nil {
		return nil, fmt.Errorf("read delivery failures: %w", err)
	}
	out := make([]models.DeliveryFailure, 0, len(raw))
	for _, item := range raw {
		var f models.DeliveryFailure
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

const (
	createFailuresTable = `CREATE TABLE IF NOT EXISTS delivery_failures (
	id            BIGSERIAL PRIMARY KEY,
	submission_id TEXT NOT NULL,
	form          TEXT NOT NULL,
	channel       TEXT NOT NULL,
	template      TEXT NOT NULL,
	recipient     TEXT NOT NULL,
	error         TEXT NOT NULL,
	failed_at     TIMESTAMPTZ NOT NULL
)`

	insertFailure = `INSERT INTO delivery_failures
	(submission_id, form, channel, template, recipient, error, failed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// PostgresFailureStore appends delivery failures to a table.
type PostgresFailureStore struct {
	client *database.PostgresClient
}

func NewPostgresFailureStore(client *database.PostgresClient) *PostgresFailureStore {
	return &PostgresFailureStore{client: client}
}

func (s *PostgresFailureStore) Backend() string { return config.FailureStorePostgres }

// EnsureSchema creates the delivery_failures table if it does not exist.
func (s *PostgresFailureStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.Exec(ctx, createFailuresTable); err != nil {
		return fmt.Errorf("create delivery_failures table: %w", err)
	}
	return nil
}

func (s *PostgresFailureStore) Record(ctx context.Context, failure models.DeliveryFailure) error {
	_, err := s.client.Exec(ctx, insertFailure,
		failure.SubmissionID,
		string(failure.Form),
		failure.Channel,
		failure.Template,
		failure.Recipient,
		failure.Error,
		failure.FailedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery failure: %w", err)
	}
	return nil
}

const selectRecentFailures = `SELECT submission_id, form, channel, template, recipient, error, failed_at
	FROM delivery_failures ORDER BY failed_at DESC LIMIT $1`

// Recent returns up to n records, newest first.
func (s *PostgresFailureStore) Recent(ctx context.Context, n int64) ([]models.DeliveryFailure, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.client.DB.QueryContext(ctx, selectRecentFailures, n)
	if err != nil {
		return nil, fmt.Errorf("query delivery failures: %w", err)
	}
	defer rows.Close()

	out := []models.DeliveryFailure{}
	for rows.Next() {
		var f models.DeliveryFailure
		var form string
		if err := rows.Scan(&f.SubmissionID, &form, &f.Channel, &f.Template, &f.Recipient, &f.Error, &f.FailedAt); err != nil {
			return nil, fmt.Errorf("scan delivery failure: %w", err)
		}
		f.Form = models.FormType(form)
		out = append(out, f)
	}
	return out, rows.Err()
}
