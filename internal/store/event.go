package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ayusman/gestureos/internal/gesture"
)

// EventRecord is one confirmed gesture in the history log.
type EventRecord struct {
	ID         int64
	SessionID  string
	Gesture    gesture.Type
	Confidence float64
	OccurredAt time.Time
}

// EventRepository appends to and reads the gesture history.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Append records ev for the given session.
func (r *EventRepository) Append(sessionID string, ev gesture.Event) (*EventRecord, error) {
	rec := &EventRecord{
		SessionID:  sessionID,
		Gesture:    ev.Type,
		Confidence: ev.Confidence,
		OccurredAt: ev.Timestamp,
	}

	result, err := r.db.Exec(
		`INSERT INTO events (session_id, gesture, confidence, occurred_at_ms) VALUES (?, ?, ?, ?)`,
		rec.SessionID, string(rec.Gesture), rec.Confidence, rec.OccurredAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	rec.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(limit int) ([]*EventRecord, error) {
	if limit <= 0 {
		return []*EventRecord{}, nil
	}

	rows, err := r.db.Query(
		`SELECT id, session_id, gesture, confidence, occurred_at_ms
		 FROM events ORDER BY occurred_at_ms DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*EventRecord{}
	for rows.Next() {
		rec := &EventRecord{}
		var (
			gest string
			ms   int64
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &gest, &rec.Confidence, &ms); err != nil {
			return nil, err
		}
		rec.Gesture = gesture.Type(gest)
		rec.OccurredAt = time.UnixMilli(ms)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Prune deletes all but the newest keep events and returns how many were
// removed.
func (r *EventRepository) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	result, err := r.db.Exec(
		`DELETE FROM events WHERE id NOT IN (
			SELECT id FROM events ORDER BY occurred_at_ms DESC, id DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return result.RowsAffected()
}
