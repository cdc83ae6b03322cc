package historian

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the action table written by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS thief_actions (
	game_id      UUID        NOT NULL,
	action_index INTEGER     NOT NULL,
	actor        INTEGER     NOT NULL,
	action_type  TEXT        NOT NULL,
	payload      JSONB       NOT NULL DEFAULT '{}',
	recorded_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, action_index)
)`

// PostgresOptions configures the Postgres store.
type PostgresOptions struct {
	DSN      string
	MaxConns int32
}

// PostgresStore inserts action records into thief_actions.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore opens a pool for opts.DSN, verifies the connection and
// creates the table if needed.
func NewPostgresStore(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	s := NewPostgresStoreFromPool(db)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromPool wraps an existing pool.
func NewPostgresStoreFromPool(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates thief_actions if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create thief_actions: %w", err)
	}
	return nil
}

// Publish inserts rec. A replayed record with the same game and index is ignored.
func (s *PostgresStore) Publish(ctx context.Context, rec ActionRecord) error {
	query := `
		INSERT INTO thief_actions (game_id, action_index, actor, action_type, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	payload := rec.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	_, err := s.db.Exec(ctx, query,
		rec.GameID.String(),
		rec.ActionIndex,
		rec.Actor,
		rec.ActionType,
		payload,
		time.UnixMilli(rec.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert action %d: %w", rec.ActionIndex, err)
	}
	return nil
}

// Actions returns a game's records in order.
func (s *PostgresStore) Actions(ctx context.Context, gameID uuid.UUID) ([]ActionRecord, error) {
	query := `
		SELECT action_index, actor, action_type, payload, recorded_at
		FROM thief_actions WHERE game_id = $1 ORDER BY action_index
	`
	rows, err := s.db.Query(ctx, query, gameID.String())
	if err != nil {
		return nil, fmt.Errorf("query actions of %s: %w", gameID, err)
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		var (
			rec = ActionRecord{GameID: gameID}
			at  time.Time
		)
		if err := rows.Scan(&rec.ActionIndex, &rec.Actor, &rec.ActionType, &rec.Payload, &at); err != nil {
			return nil, err
		}
		rec.Timestamp = at.UnixMilli()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
