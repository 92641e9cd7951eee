package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// AppendEvent stores a lifecycle event in the outbox table. The relay
// publishes it to Kafka after the surrounding transaction commits.
func (t *sqlTxStore) AppendEvent(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	var currentVersion int
	err := t.q.QueryRowContext(ctx, t.d.rebind(
		`SELECT COALESCE(MAX(version), 0) FROM outbox WHERE aggregate_id = ?`),
		aggregateID,
	).Scan(&currentVersion)
	if err != nil {
		return nil, err
	}

	event, err := NewEvent(aggregateID, aggregateType, eventType, data, currentVersion+1, time.Now())
	if err != nil {
		return nil, err
	}

	_, err = t.exec(ctx,
		`INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, data, version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		string(event.Data),
		event.Version,
		event.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append %s event: %w", eventType, err)
	}
	return &event, nil
}

func (t *sqlTxStore) PendingEvents(ctx context.Context, limit int) ([]Event, error) {
	rows, err := t.q.QueryContext(ctx, t.d.rebind(
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM outbox
		 WHERE published_at IS NULL
		 ORDER BY created_at ASC, version ASC
		 LIMIT ?`+t.d.skipLocked),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e    Event
			data string
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &data, &e.Version, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Data = []byte(data)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (t *sqlTxStore) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, at.UTC())
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")

	_, err := t.exec(ctx,
		`UPDATE outbox SET published_at = ? WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to mark events published: %w", err)
	}
	return nil
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open(DriverPostgres, connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
