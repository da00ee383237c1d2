package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/curaious/taskboard/internal/config"
)

// Channel is the postgres NOTIFY channel project events travel on.
const Channel = "project_events"

// EventType names what changed
type EventType string

const (
	EventProjectCreated  EventType = "project.created"
	EventProjectUpdated  EventType = "project.updated"
	EventProjectArchived EventType = "project.archived"
	EventMemberAdded     EventType = "member.added"
	EventMemberRemoved   EventType = "member.removed"
	EventMemberUpdated   EventType = "member.role_updated"
	EventBoardCreated    EventType = "board.created"
	EventBoardUpdated    EventType = "board.updated"
	EventBoardDeleted    EventType = "board.deleted"
	EventTaskCreated     EventType = "task.created"
	EventTaskUpdated     EventType = "task.updated"
	EventTaskMoved       EventType = "task.moved"
	EventTaskCompleted   EventType = "task.completed"
	EventTaskReopened    EventType = "task.reopened"
	EventTaskDeleted     EventType = "task.deleted"
	EventCommentAdded    EventType = "comment.added"
	EventCommentDeleted  EventType = "comment.deleted"
)

// Event is published after a guarded write succeeds.
type Event struct {
	Type       EventType `json:"type"`
	ProjectID  uuid.UUID `json:"project_id"`
	ResourceID uuid.UUID `json:"resource_id"`
	ActorID    uuid.UUID `json:"actor_id"`
	At         time.Time `json:"at"`
}

// EventHandler is a callback for relayed events
type EventHandler func(event Event)

// Publisher sends events through pg_notify. Delivery is best effort.
type Publisher struct {
	db *sqlx.DB
}

func NewPublisher(db *sqlx.DB) *Publisher {
	return &Publisher{db: db}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, Channel, string(payload)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// PubSub handles PostgreSQL LISTEN for project events
type PubSub struct {
	connStr  string
	listener *pq.Listener
	handlers []EventHandler
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewPubSub creates a new PubSub instance
func NewPubSub(conf *config.Config) *PubSub {
	ctx, cancel := context.WithCancel(context.Background())

	return &PubSub{
		connStr:  conf.ConnString(),
		handlers: make([]EventHandler, 0),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Subscribe adds a handler for project events
func (ps *PubSub) Subscribe(handler EventHandler) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.handlers = append(ps.handlers, handler)
}

// Start begins listening for notifications
func (ps *PubSub) Start() error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Error("PubSub listener error", slog.Any("error", err))
		}
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed:
			slog.Warn("PubSub connection attempt failed, will retry")
		case pq.ListenerEventDisconnected:
			slog.Warn("PubSub disconnected, will attempt reconnect")
		case pq.ListenerEventReconnected:
			// Notifications sent while disconnected are lost.
			slog.Info("PubSub reconnected")
		}
	}

	ps.listener = pq.NewListener(ps.connStr, 10*time.Second, time.Minute, reportProblem)

	if err := ps.listener.Listen(Channel); err != nil {
		return fmt.Errorf("failed to listen on %s channel: %w", Channel, err)
	}

	slog.Info("PubSub started listening for project events")

	go ps.processNotifications()

	return nil
}

// Stop closes the listener
func (ps *PubSub) Stop() {
	ps.cancel()
	if ps.listener != nil {
		ps.listener.Close()
	}
	slog.Info("PubSub stopped")
}

func (ps *PubSub) processNotifications() {
	for {
		select {
		case <-ps.ctx.Done():
			return
		case notification := <-ps.listener.Notify:
			if notification == nil {
				// Connection lost, will be handled by reportProblem callback
				continue
			}

			event, err := DecodeEvent(notification.Extra)
			if err != nil {
				slog.Warn("Invalid notification payload", slog.String("payload", notification.Extra), slog.Any("error", err))
				continue
			}

			slog.Debug("Received project event",
				slog.String("type", string(event.Type)),
				slog.String("project_id", event.ProjectID.String()))

			ps.notifyHandlers(event)
		}
	}
}

// DecodeEvent parses a NOTIFY payload.
func DecodeEvent(payload string) (Event, error) {
	var event Event
	if err := json.UnmarshalString(payload, &event); err != nil {
		return Event{}, err
	}
	if event.Type == "" || event.ProjectID == uuid.Nil {
		return Event{}, fmt.Errorf("event is missing type or project_id")
	}
	return event, nil
}

func (ps *PubSub) notifyHandlers(event Event) {
	ps.mu.RLock()
	handlers := make([]EventHandler, len(ps.handlers))
	copy(handlers, ps.handlers)
	ps.mu.RUnlock()

	for _, handler := range handlers {
		// Run handlers in goroutines to avoid blocking the notification loop
		go handler(event)
	}
}
