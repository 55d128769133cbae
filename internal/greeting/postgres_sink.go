package greeting

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"greeter/internal/constants"
)

// PostgresSink writes one row per greeting into the greeting table created
// by the embedded migrations.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Name() string {
	return constants.SinkTypePostgres
}

func (s *PostgresSink) Store(ctx context.Context, g *Greeting) error {
	events, err := json.Marshal(g.Events())
	if err != nil {
		return NewSinkError(s.Name(), OpStore, KindPersistence, fmt.Errorf("failed to encode events: %w", err))
	}

	query := `
		INSERT INTO greeting (id, external_reference, "from", "to", heading, message, created, events_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.db.ExecContext(ctx, query,
		g.ID,
		nullableString(g.ExternalReference),
		g.From,
		g.To,
		g.Heading,
		g.Message,
		g.Created,
		events,
	)
	if err != nil {
		return NewSinkError(s.Name(), OpStore, KindPersistence, fmt.Errorf("failed to insert greeting: %w", err))
	}
	return nil
}

func (s *PostgresSink) All(ctx context.Context) ([]Greeting, error) {
	query := `
		SELECT id, external_reference, "from", "to", heading, message, created, events_created
		FROM greeting
		ORDER BY created ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, NewSinkError(s.Name(), OpAll, KindPersistence, fmt.Errorf("failed to query greetings: %w", err))
	}
	defer rows.Close()

	var greetings []Greeting
	for rows.Next() {
		var (
			g           Greeting
			externalRef sql.NullString
			eventsRaw   []byte
		)
		if err := rows.Scan(
			&g.ID,
			&externalRef,
			&g.From,
			&g.To,
			&g.Heading,
			&g.Message,
			&g.Created,
			&eventsRaw,
		); err != nil {
			return nil, NewSinkError(s.Name(), OpAll, KindPersistence, fmt.Errorf("failed to scan greeting: %w", err))
		}
		g.ExternalReference = externalRef.String
		g.Created = g.Created.UTC()

		if len(eventsRaw) > 0 {
			var events map[string]time.Time
			if err := json.Unmarshal(eventsRaw, &events); err != nil {
				return nil, NewSinkError(s.Name(), OpAll, KindPersistence, fmt.Errorf("failed to decode events for %s: %w", g.ID, err))
			}
			g.eventsCreated = events
		}
		greetings = append(greetings, g)
	}

	if err := rows.Err(); err != nil {
		return nil, NewSinkError(s.Name(), OpAll, KindPersistence, fmt.Errorf("rows iteration error: %w", err))
	}

	return greetings, nil
}

func (s *PostgresSink) CheckLiveness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewSinkError(s.Name(), OpPing, KindPersistence, err)
	}
	return nil
}

func nullableString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
