package room

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

var entropy = &ulid.LockedMonotonicReader{
	MonotonicReader: ulid.Monotonic(rand.Reader, 0),
}

// NewMessageID returns a ULID derived from ts. IDs sort lexically in time
// order, which doubles as the tie-break for messages sharing a timestamp.
func NewMessageID(ts time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(ts), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
