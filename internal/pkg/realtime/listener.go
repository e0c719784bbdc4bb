package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// DefaultChannel is the NOTIFY channel the row triggers write to.
const DefaultChannel = "row_inserted"

// RowLoader reads the full row behind a NOTIFY payload.
type RowLoader interface {
	LoadRow(ctx context.Context, table, id string) (json.RawMessage, error)
}

// tables the triggers notify about
var notifiedTables = map[string]bool{"notifications": true, "messages": true}

type pgRowLoader struct {
	pool *pgxpool.Pool
}

func (l pgRowLoader) LoadRow(ctx context.Context, table, id string) (json.RawMessage, error) {
	if !notifiedTables[table] {
		return nil, fmt.Errorf("unexpected table %q", table)
	}
	query, args, err := squirrel.Select("row_to_json(t)").
		From(pgx.Identifier{table}.Sanitize() + " AS t").
		Where(squirrel.Eq{"t.id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}
	var row json.RawMessage
	if err := l.pool.QueryRow(ctx, query, args...).Scan(&row); err != nil {
		return nil, fmt.Errorf("load %s %s: %w", table, id, err)
	}
	return row, nil
}

// PGListener turns PostgreSQL NOTIFY payloads of the form
// {"table": "...", "row": {"id": ..., <filter column>: ...}} into broker events
// carrying the full row.
type PGListener struct {
	pool      *pgxpool.Pool
	channel   string
	publisher Publisher
	loader    RowLoader
	retry     time.Duration
	logger    zerolog.Logger
}

// NewPGListener creates a listener on channel that publishes into publisher.
func NewPGListener(pool *pgxpool.Pool, channel string, publisher Publisher, logger zerolog.Logger) *PGListener {
	if channel == "" {
		channel = DefaultChannel
	}
	return &PGListener{
		pool:      pool,
		channel:   channel,
		publisher: publisher,
		loader:    pgRowLoader{pool: pool},
		retry:     2 * time.Second,
		logger:    logger,
	}
}

// Run listens until ctx is cancelled, reconnecting after connection failures.
func (l *PGListener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn().Err(err).Str("channel", l.channel).Msg("Realtime listener disconnected, retrying")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
	}
}

func (l *PGListener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.channel, err)
	}
	l.logger.Info().Str("channel", l.channel).Msg("Realtime listener started")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if err := l.Dispatch(ctx, n.Payload); err != nil {
			l.logger.Error().Err(err).Str("channel", l.channel).Msg("Failed to dispatch notification")
		}
	}
}

// Dispatch decodes one NOTIFY payload, loads the row it points at and publishes it.
func (l *PGListener) Dispatch(ctx context.Context, payload string) error {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if ev.Table == "" || len(ev.Row) == 0 {
		return errors.New("payload missing table or row")
	}

	var key struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(ev.Row, &key); err != nil || key.ID == "" {
		return errors.New("payload row has no id")
	}
	row, err := l.loader.LoadRow(ctx, ev.Table, key.ID)
	if err != nil {
		return err
	}

	l.publisher.Publish(Event{Table: ev.Table, Row: row})
	return nil
}
