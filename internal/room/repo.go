package room

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// EnsureRoom records the room's existence. Insert-or-ignore, so it is safe
// to call on every request.
func (r *Repo) EnsureRoom(ctx context.Context, roomID string, now time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Room{ID: roomID, CreatedAt: now}).Error
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// UpsertMessage inserts unless a row with the same id already exists. Mirror
// replay uses this so redelivered writes stay idempotent.
func (r *Repo) UpsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(m).Error
}

// ListMessagesDesc returns messages in DESC time order (newest -> oldest).
// An empty roomID skips the room filter and scans the whole unit, which is
// how aggregate queries see every room's rows.
func (r *Repo) ListMessagesDesc(ctx context.Context, roomID string, limit int, before time.Time) ([]Message, error) {
	q := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if roomID != "" {
		q = q.Where("room_id = ?", roomID)
	}
	if !before.IsZero() {
		q = q.Where("created_at < ?", before)
	}

	var msgs []Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// TouchPresence upserts the (username, room) row; the latest last_seen wins.
func (r *Repo) TouchPresence(ctx context.Context, p *Presence) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}, {Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_seen"}),
		}).
		Create(p).Error
}

// ListActive returns presence rows with last_seen past windowStart, newest
// first. An empty roomID scans the whole unit.
func (r *Repo) ListActive(ctx context.Context, roomID string, windowStart time.Time) ([]Presence, error) {
	q := r.db.WithContext(ctx).
		Where("last_seen > ?", windowStart).
		Order("last_seen DESC")

	if roomID != "" {
		q = q.Where("room_id = ?", roomID)
	}

	var rows []Presence
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
