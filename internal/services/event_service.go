package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/travel-listings-be/internal/auth"
	"github.com/isdelr/travel-listings-be/internal/database"
	"github.com/isdelr/travel-listings-be/internal/models"
	"github.com/isdelr/travel-listings-be/internal/websocket"
	"github.com/jmoiron/sqlx"
)

// Broadcaster fans an encoded message out to live subscribers of topic.
type Broadcaster interface {
	Publish(topic string, data []byte)
}

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, message string, listingID *string) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}

// EventService records listing activity and pushes it to live subscribers.
type EventService struct {
	db          *sqlx.DB
	broadcaster Broadcaster
	now         func() time.Time
}

// NewEventService creates a new EventService. broadcaster may be nil.
func NewEventService(db *sqlx.DB, broadcaster Broadcaster) *EventService {
	return &EventService{db: db, broadcaster: broadcaster, now: time.Now}
}

type eventRow struct {
	ID        string         `db:"id"`
	Type      string         `db:"type"`
	Message   string         `db:"message"`
	ListingID sql.NullString `db:"listing_id"`
	ActorID   sql.NullString `db:"actor_id"`
	CreatedAt string         `db:"created_at"`
}

func (r eventRow) toModel() (models.Event, error) {
	created, err := database.ParseTime(r.CreatedAt)
	if err != nil {
		return models.Event{}, err
	}
	event := models.Event{ID: r.ID, Type: r.Type, Message: r.Message, CreatedAt: created}
	if r.ListingID.Valid {
		event.ListingID = &r.ListingID.String
	}
	if r.ActorID.Valid {
		event.ActorID = &r.ActorID.String
	}
	return event, nil
}

// CreateEvent logs a new event to the database and broadcasts it. The actor
// is taken from the identity on ctx, if any.
func (s *EventService) CreateEvent(ctx context.Context, eventType, message string, listingID *string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Message:   message,
		ListingID: listingID,
		CreatedAt: s.now().UTC(),
	}
	if id, ok := auth.FromContext(ctx); ok {
		event.ActorID = &id.UserID
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, message, listing_id, actor_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Message, event.ListingID, event.ActorID, database.FormatTime(event.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to record event %s: %w", eventType, err)
	}

	if s.broadcaster != nil {
		topic := websocket.GlobalTopic
		if listingID != nil {
			topic = *listingID
		}
		s.broadcaster.Publish(topic, websocket.NewMessage("event", event))
	}
	return nil
}

// GetRecentEvents retrieves the most recent events from the database.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT id, type, message, listing_id, actor_id, created_at FROM events ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(rows))
	for _, row := range rows {
		event, err := row.toModel()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// PruneEvents deletes events created before the cutoff and reports how many were removed.
func (s *EventService) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", database.FormatTime(before))
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	return res.RowsAffected()
}
