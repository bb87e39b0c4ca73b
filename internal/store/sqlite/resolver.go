// Package sqlite resolves room ids to storage units. Every room gets its own
// sqlite file; a single shared aggregate unit receives mirrored writes from
// all of them and can be queried across rooms.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shardchat/shardchat/internal/room"
)

// Room ids become file names, so the charset is strict.
var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type Resolver struct {
	dataDir      string
	aggregateDSN string // non-empty: aggregate unit lives on MySQL

	mu    sync.Mutex
	units map[string]*gorm.DB
}

// NewResolver builds a resolver rooted at dataDir. When aggregateDSN is set
// the aggregate unit opens through the MySQL driver instead of a local file;
// room units are always sqlite files under dataDir.
func NewResolver(dataDir, aggregateDSN string) *Resolver {
	return &Resolver{
		dataDir:      dataDir,
		aggregateDSN: aggregateDSN,
		units:        make(map[string]*gorm.DB),
	}
}

// Resolve maps a room id to its handle pair. Resolution is deterministic and
// cached: the same id always yields the same underlying unit, and no two ids
// share a primary unit. The first resolve of a unit creates its file and
// provisions the schema.
func (r *Resolver) Resolve(roomID string) (room.Stores, error) {
	if !roomIDPattern.MatchString(roomID) {
		return room.Stores{}, fmt.Errorf("%w: invalid room id %q", room.ErrValidation, roomID)
	}

	primary, err := r.unit(roomID)
	if err != nil {
		return room.Stores{}, err
	}
	if roomID == room.AggregateID {
		return room.Stores{Primary: primary}, nil
	}

	mirror, err := r.unit(room.AggregateID)
	if err != nil {
		return room.Stores{}, err
	}
	return room.Stores{Primary: primary, Mirror: mirror}, nil
}

// Aggregate returns the shared aggregate unit's handle.
func (r *Resolver) Aggregate() (*gorm.DB, error) {
	return r.unit(room.AggregateID)
}

func (r *Resolver) unit(name string) (*gorm.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.units[name]; ok {
		return db, nil
	}

	db, err := r.open(name)
	if err != nil {
		return nil, fmt.Errorf("open unit %s: %w", name, err)
	}
	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("provision unit %s: %w", name, err)
	}

	r.units[name] = db
	return db, nil
}

func (r *Resolver) open(name string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	if name == room.AggregateID && r.aggregateDSN != "" {
		return gorm.Open(mysql.Open(r.aggregateDSN), cfg)
	}

	if err := os.MkdirAll(r.dataDir, 0o755); err != nil {
		return nil, err
	}
	dsn := filepath.Join(r.dataDir, name+".db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	return gorm.Open(gormsqlite.Open(dsn), cfg)
}

// ensureSchema provisions the unit's tables in order: rooms, messages,
// users. AutoMigrate is a no-op for already-applied shapes, so this is safe
// on every open; the handle is not cached (or used) if it fails.
func ensureSchema(db *gorm.DB) error {
	return db.AutoMigrate(&room.Room{}, &room.Message{}, &room.Presence{})
}
