package sinks

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/oarkflow/date"
	"github.com/oarkflow/squealx"

	"github.com/oarkflow/permit"
)

//go:embed audit_migrations.sql
var migrationsSQL string

// Migrate creates the decision log table used by SQLSink.
func Migrate(db *squealx.DB) error {
	if _, err := db.ExecContext(context.Background(), migrationsSQL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// SQLSink persists audit events in SQL (squealx).
type SQLSink struct {
	db *squealx.DB
}

func NewSQLSink(db *squealx.DB) (*SQLSink, error) {
	return &SQLSink{db: db}, nil
}

func (s *SQLSink) Record(ctx context.Context, ev *permit.Event) error {
	q := `INSERT INTO decision_log(id, recorded_at, subject, requirement, allowed) VALUES(:id, :recorded_at, :subject, :requirement, :allowed)`
	allowed := 0
	if ev.Allowed {
		allowed = 1
	}
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{
		"id":          ev.ID,
		"recorded_at": ev.Time,
		"subject":     ev.Subject,
		"requirement": ev.Requirement,
		"allowed":     allowed,
	})
	return err
}

// EventFilter narrows Query results. Zero values match everything.
type EventFilter struct {
	Subject   string
	Allowed   *bool
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// Query returns recorded events matching the filter, oldest first.
func (s *SQLSink) Query(ctx context.Context, filter EventFilter) ([]*permit.Event, error) {
	q := `SELECT id, recorded_at, subject, requirement, allowed FROM decision_log WHERE 1=1`
	params := map[string]any{}
	if filter.Subject != "" {
		q += " AND subject = :subject"
		params["subject"] = filter.Subject
	}
	if filter.Allowed != nil {
		q += " AND allowed = :allowed"
		if *filter.Allowed {
			params["allowed"] = 1
		} else {
			params["allowed"] = 0
		}
	}
	if !filter.StartTime.IsZero() {
		q += " AND recorded_at >= :start"
		params["start"] = filter.StartTime
	}
	if !filter.EndTime.IsZero() {
		q += " AND recorded_at <= :end"
		params["end"] = filter.EndTime
	}
	q += " ORDER BY recorded_at"
	if filter.Limit > 0 {
		q += " LIMIT :limit"
		params["limit"] = filter.Limit
	} else {
		q += " LIMIT 100"
	}
	r, err := s.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]*permit.Event, 0)
	for r.Next() {
		var id, subject, requirement string
		var recordedRaw any
		var allowedInt int
		if err := r.Scan(&id, &recordedRaw, &subject, &requirement, &allowedInt); err != nil {
			return nil, err
		}
		ev := &permit.Event{ID: id, Subject: subject, Requirement: requirement, Allowed: allowedInt != 0}
		switch v := recordedRaw.(type) {
		case time.Time:
			ev.Time = v
		case string:
			if t, err := date.Parse(v); err == nil {
				ev.Time = t
			}
		case []byte:
			if t, err := date.Parse(string(v)); err == nil {
				ev.Time = t
			}
		}
		out = append(out, ev)
	}
	return out, nil
}
