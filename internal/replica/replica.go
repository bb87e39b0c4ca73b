// Package replica carries a room's writes to the shared aggregate unit. The
// primary/mirror pair is not transactional; the policy here decides whether
// the gap is closed inline (sync) or through a queue with redelivery.
package replica

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/shardchat/shardchat/internal/room"
)

type Kind string

const (
	KindRoom     Kind = "room"
	KindMessage  Kind = "message"
	KindPresence Kind = "presence"
)

// Op is one mirror write. Exactly one payload field is set, matching Kind.
type Op struct {
	Kind     Kind           `json:"kind"`
	Room     *room.Room     `json:"room,omitempty"`
	Message  *room.Message  `json:"message,omitempty"`
	Presence *room.Presence `json:"presence,omitempty"`
}

func (o Op) Encode() ([]byte, error) {
	return json.Marshal(o)
}

func DecodeOp(body []byte) (Op, error) {
	var op Op
	if err := json.Unmarshal(body, &op); err != nil {
		return Op{}, err
	}
	switch op.Kind {
	case KindRoom:
		if op.Room == nil {
			return Op{}, fmt.Errorf("replica: %s op without payload", op.Kind)
		}
	case KindMessage:
		if op.Message == nil {
			return Op{}, fmt.Errorf("replica: %s op without payload", op.Kind)
		}
	case KindPresence:
		if op.Presence == nil {
			return Op{}, fmt.Errorf("replica: %s op without payload", op.Kind)
		}
	default:
		return Op{}, fmt.Errorf("replica: unknown op kind %q", op.Kind)
	}
	return op, nil
}

// Apply replays one op against a unit. Every branch is idempotent, so
// queue redelivery cannot duplicate rows.
func Apply(ctx context.Context, repo *room.Repo, op Op) error {
	switch op.Kind {
	case KindRoom:
		return repo.EnsureRoom(ctx, op.Room.ID, op.Room.CreatedAt)
	case KindMessage:
		return repo.UpsertMessage(ctx, op.Message)
	case KindPresence:
		return repo.TouchPresence(ctx, op.Presence)
	default:
		return fmt.Errorf("replica: unknown op kind %q", op.Kind)
	}
}

// Sync applies mirror writes inline against the aggregate unit. This is the
// best-effort policy: the caller logs failures and moves on.
type Sync struct {
	repo *room.Repo
}

func NewSync(aggregate *gorm.DB) *Sync {
	return &Sync{repo: room.NewRepo(aggregate)}
}

func (s *Sync) ReplicateRoom(ctx context.Context, rm room.Room) error {
	return Apply(ctx, s.repo, Op{Kind: KindRoom, Room: &rm})
}

func (s *Sync) ReplicateMessage(ctx context.Context, m room.Message) error {
	return Apply(ctx, s.repo, Op{Kind: KindMessage, Message: &m})
}

func (s *Sync) ReplicatePresence(ctx context.Context, p room.Presence) error {
	return Apply(ctx, s.repo, Op{Kind: KindPresence, Presence: &p})
}

// Publisher is the queue half of the queue policy; the rabbitmq store
// implements it.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// Queue publishes mirror writes for asynchronous replay by the
// mirror-worker. Trades the sync policy's immediacy for retry-with-backoff
// through the queue's retry/DLQ topology.
type Queue struct {
	pub Publisher
}

func NewQueue(pub Publisher) *Queue {
	return &Queue{pub: pub}
}

func (q *Queue) publish(ctx context.Context, op Op) error {
	body, err := op.Encode()
	if err != nil {
		return err
	}
	return q.pub.Publish(ctx, body)
}

func (q *Queue) ReplicateRoom(ctx context.Context, rm room.Room) error {
	return q.publish(ctx, Op{Kind: KindRoom, Room: &rm})
}

func (q *Queue) ReplicateMessage(ctx context.Context, m room.Message) error {
	return q.publish(ctx, Op{Kind: KindMessage, Message: &m})
}

func (q *Queue) ReplicatePresence(ctx context.Context, p room.Presence) error {
	return q.publish(ctx, Op{Kind: KindPresence, Presence: &p})
}
