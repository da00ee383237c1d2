package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"

	"github.com/curaious/taskboard/internal/pubsub"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Entry is one row of a project's activity feed
type Entry struct {
	Type       string    `json:"type" ch:"Type"`
	ProjectID  uuid.UUID `json:"project_id" ch:"ProjectId"`
	ResourceID uuid.UUID `json:"resource_id" ch:"ResourceId"`
	ActorID    uuid.UUID `json:"actor_id" ch:"ActorId"`
	At         time.Time `json:"at" ch:"Timestamp"`
}

// ActivityService records relayed project events in ClickHouse
type ActivityService struct {
	conn driver.Conn
}

func NewActivityService(conn driver.Conn) *ActivityService {
	return &ActivityService{conn: conn}
}

// EnsureSchema creates the activity table if it is missing.
func (s *ActivityService) EnsureSchema(ctx context.Context) error {
	return s.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS project_activity (
			Timestamp  DateTime64(3),
			Type       LowCardinality(String),
			ProjectId  UUID,
			ResourceId UUID,
			ActorId    UUID
		) ENGINE = MergeTree
		ORDER BY (ProjectId, Timestamp)
	`)
}

func (s *ActivityService) Record(ctx context.Context, event pubsub.Event) error {
	err := s.conn.Exec(ctx, `
		INSERT INTO project_activity (Timestamp, Type, ProjectId, ResourceId, ActorId)
		VALUES (?, ?, ?, ?, ?)
	`, event.At, string(event.Type), event.ProjectID, event.ResourceID, event.ActorID)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// Handler adapts Record to a pubsub subscription.
func (s *ActivityService) Handler() pubsub.EventHandler {
	return func(event pubsub.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Record(ctx, event); err != nil {
			slog.Warn("Failed to record activity", slog.String("type", string(event.Type)), slog.Any("error", err))
		}
	}
}

// ListForProject returns the newest entries first.
func (s *ActivityService) ListForProject(ctx context.Context, projectID uuid.UUID, limit int) ([]Entry, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT Type, ProjectId, ResourceId, ActorId, Timestamp
		FROM project_activity
		WHERE ProjectId = ?
		ORDER BY Timestamp DESC
		LIMIT ?
	`, projectID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Type, &e.ProjectID, &e.ResourceID, &e.ActorID, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}
