package room

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Stores is the handle pair a room id resolves to. Mirror is nil only for
// the aggregate room, whose primary already is the shared unit.
type Stores struct {
	Primary *gorm.DB
	Mirror  *gorm.DB
}

// Resolver maps a room id to its storage handles. The sqlite implementation
// lives in internal/store/sqlite.
type Resolver interface {
	Resolve(roomID string) (Stores, error)
}

// Replicator applies a room's write to the shared aggregate unit, either
// inline or through a queue. Implementations live in internal/replica.
type Replicator interface {
	ReplicateRoom(ctx context.Context, rm Room) error
	ReplicateMessage(ctx context.Context, m Message) error
	ReplicatePresence(ctx context.Context, p Presence) error
}

// PresenceCache is an optional read-side accelerator for active-user
// queries. ok=false on Active means the cache has no answer and the caller
// should fall back to the store.
type PresenceCache interface {
	Touch(ctx context.Context, roomID, username string, ts time.Time) error
	Active(ctx context.Context, roomID string, windowStart time.Time) (rows []Presence, ok bool, err error)
}

type Service struct {
	resolver    Resolver
	mirror      Replicator
	cache       PresenceCache
	window      time.Duration
	maxMessage  int
	maxUsername int
}

type ServiceOptions struct {
	PresenceWindow time.Duration
	MaxMessageLen  int
	MaxUsernameLen int
	Cache          PresenceCache
}

func NewService(resolver Resolver, mirror Replicator, opts ServiceOptions) *Service {
	if opts.PresenceWindow <= 0 {
		opts.PresenceWindow = 5 * time.Minute
	}
	if opts.MaxMessageLen <= 0 {
		opts.MaxMessageLen = 1000
	}
	if opts.MaxUsernameLen <= 0 {
		opts.MaxUsernameLen = 50
	}
	return &Service{
		resolver:    resolver,
		mirror:      mirror,
		cache:       opts.Cache,
		window:      opts.PresenceWindow,
		maxMessage:  opts.MaxMessageLen,
		maxUsername: opts.MaxUsernameLen,
	}
}

type SendResult struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Send validates the payload, appends the message to the room's primary
// unit, updates presence, and replicates both rows to the aggregate. The
// mirror write is best-effort: a replication failure is logged and the send
// still succeeds because the primary row is durable.
func (s *Service) Send(ctx context.Context, roomID, username, message string) (*SendResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(username) > s.maxUsername {
		return nil, fmt.Errorf("%w: username exceeds %d characters", ErrValidation, s.maxUsername)
	}
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}
	if len(message) > s.maxMessage {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrValidation, s.maxMessage)
	}

	stores, err := s.resolver.Resolve(roomID)
	if err != nil {
		return nil, err
	}
	repo := NewRepo(stores.Primary)

	now := time.Now().UTC().Truncate(time.Millisecond)
	id, err := NewMessageID(now)
	if err != nil {
		return nil, err
	}

	rm := Room{ID: roomID, CreatedAt: now}
	if roomID != AggregateID {
		if err := repo.EnsureRoom(ctx, roomID, now); err != nil {
			return nil, err
		}
	}

	msg := Message{
		ID:        id,
		RoomID:    roomID,
		Username:  username,
		Message:   message,
		CreatedAt: now,
	}
	if err := repo.InsertMessage(ctx, &msg); err != nil {
		return nil, err
	}

	pres := Presence{Username: username, RoomID: roomID, LastSeen: now}
	if err := repo.TouchPresence(ctx, &pres); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Touch(ctx, roomID, username, now); err != nil {
			log.Printf("presence cache touch failed room=%s user=%s err=%v", roomID, username, err)
		}
	}

	// The primary write is committed; from here on failures only degrade
	// the aggregate view.
	if stores.Mirror != nil && s.mirror != nil {
		if err := s.mirror.ReplicateRoom(ctx, rm); err != nil {
			log.Printf("mirror room write failed room=%s err=%v", roomID, err)
		}
		if err := s.mirror.ReplicateMessage(ctx, msg); err != nil {
			log.Printf("mirror message write failed room=%s id=%s err=%v", roomID, id, err)
		}
		if err := s.mirror.ReplicatePresence(ctx, pres); err != nil {
			log.Printf("mirror presence write failed room=%s user=%s err=%v", roomID, username, err)
		}
	}

	return &SendResult{ID: id, CreatedAt: now}, nil
}

// Messages returns up to limit messages in ASC time order. before, when
// non-zero, restricts results to rows older than it (backward pagination).
func (s *Service) Messages(ctx context.Context, roomID string, limit int, before time.Time) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	stores, err := s.resolver.Resolve(roomID)
	if err != nil {
		return nil, err
	}

	filter := roomID
	if roomID == AggregateID {
		filter = ""
	}

	desc, err := NewRepo(stores.Primary).ListMessagesDesc(ctx, filter, limit, before)
	if err != nil {
		return nil, err
	}

	// reverse to ASC (oldest -> newest)
	asc := make([]Message, 0, len(desc))
	for i := len(desc) - 1; i >= 0; i-- {
		asc = append(asc, desc[i])
	}
	return asc, nil
}

// ActiveUsers returns presence rows fresher than now minus the configured
// window, newest first.
func (s *Service) ActiveUsers(ctx context.Context, roomID string) ([]Presence, error) {
	windowStart := time.Now().UTC().Add(-s.window)

	if s.cache != nil && roomID != AggregateID {
		rows, ok, err := s.cache.Active(ctx, roomID, windowStart)
		if err != nil {
			log.Printf("presence cache read failed room=%s err=%v", roomID, err)
		} else if ok {
			return rows, nil
		}
	}

	stores, err := s.resolver.Resolve(roomID)
	if err != nil {
		return nil, err
	}

	filter := roomID
	if roomID == AggregateID {
		filter = ""
	}
	return NewRepo(stores.Primary).ListActive(ctx, filter, windowStart)
}

// Window reports the presence freshness window.
func (s *Service) Window() time.Duration { return s.window }
