package room

import "time"

// AggregateID is the reserved room id for the shared aggregate store. Every
// write to a regular room is mirrored into it, so it can be queried across
// rooms like any other room.
const AggregateID = "aggregate"

type Room struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Room) TableName() string { return "rooms" }

type Message struct {
	ID        string    `gorm:"primaryKey;size:26" json:"id"` // ULID length
	RoomID    string    `gorm:"size:64;not null;index:idx_messages_room_created,priority:1" json:"room_id"`
	Username  string    `gorm:"size:50;not null" json:"username"`
	Message   string    `gorm:"size:1000;not null" json:"message"`
	CreatedAt time.Time `gorm:"index:idx_messages_room_created,priority:2" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// Presence is one row per (username, room). There is no leave event; a user
// counts as active while last_seen falls inside the caller's window.
type Presence struct {
	Username string    `gorm:"size:50;primaryKey" json:"username"`
	RoomID   string    `gorm:"size:64;primaryKey" json:"room_id"`
	LastSeen time.Time `gorm:"index" json:"last_seen"`
}

func (Presence) TableName() string { return "users" }
