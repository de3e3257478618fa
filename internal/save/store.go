// Package save persists room snapshots in a Badger key-value store.
package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"UnitCoinMiner/internal/game"
)

const keyPrefix = "room/"

// Config selects where and how the store keeps its data.
type Config struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string
	// InMemory keeps everything in RAM; used by tests and throwaway servers.
	InMemory   bool
	SyncWrites bool
	Logger     *slog.Logger
	// GCDiscardRatio is handed to value-log GC runs.
	GCDiscardRatio float64
}

func DefaultConfig() Config {
	return Config{
		Path:           "data/saves",
		SyncWrites:     true,
		GCDiscardRatio: 0.5,
	}
}

func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// Envelope wraps a payload with the schema version it was written with.
type Envelope struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"savedAt"`
	Payload json.RawMessage `json:"payload"`
}

// Store reads and writes room snapshots.
type Store struct {
	db    *badger.DB
	log   *slog.Logger
	ratio float64
	now   func() time.Time
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Open opens (creating if needed) the store described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("save: path is required for a persistent store")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("save: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: logger.With("component", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("save: open badger: %w", err)
	}

	ratio := cfg.GCDiscardRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}
	return &Store{db: db, log: logger, ratio: ratio, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func roomKey(roomID string) []byte {
	return []byte(keyPrefix + roomID)
}

// Save writes snap for roomID at the current schema version.
func (s *Store) Save(ctx context.Context, roomID string, snap game.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("save: encode room %s: %w", roomID, err)
	}
	data, err := json.Marshal(Envelope{Version: CurrentVersion, SavedAt: s.now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("save: encode envelope for %s: %w", roomID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(roomID), data)
	})
	if err != nil {
		return fmt.Errorf("save: write room %s: %w", roomID, err)
	}
	return nil
}

// Load reads the snapshot for roomID, upgrading older saves on the way. The
// boolean is false when nothing was saved for the room.
func (s *Store) Load(ctx context.Context, roomID string) (game.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return game.Snapshot{}, false, err
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(roomID))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return game.Snapshot{}, false, nil
	}
	if err != nil {
		return game.Snapshot{}, false, fmt.Errorf("save: read room %s: %w", roomID, err)
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return game.Snapshot{}, false, fmt.Errorf("save: room %s: %w", roomID, err)
	}
	if env.Version < CurrentVersion {
		s.log.Info("migrating save", "room", roomID, "from", env.Version, "to", CurrentVersion)
	}
	payload, err := Migrate(env.Version, env.Payload)
	if err != nil {
		return game.Snapshot{}, false, fmt.Errorf("save: room %s: %w", roomID, err)
	}

	var snap game.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return game.Snapshot{}, false, fmt.Errorf("save: decode room %s: %w", roomID, err)
	}
	return snap, true, nil
}

// Delete removes any save for roomID.
func (s *Store) Delete(ctx context.Context, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(roomKey(roomID))
	})
	if err != nil {
		return fmt.Errorf("save: delete room %s: %w", roomID, err)
	}
	return nil
}

// Rooms lists the ids of every saved room in key order.
func (s *Store) Rooms(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save: list rooms: %w", err)
	}
	return ids, nil
}

// RunGC reclaims value-log space until the log has nothing left to rewrite.
func (s *Store) RunGC() {
	for {
		err := s.db.RunValueLogGC(s.ratio)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrGCInMemoryMode) {
			s.log.Warn("badger value log GC failed", "error", err)
		}
		return
	}
}

// decodeEnvelope accepts both enveloped saves and bare legacy payloads that
// predate versioning.
func decodeEnvelope(raw []byte) (Envelope, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	if _, ok := probe["payload"]; !ok {
		return Envelope{Version: 0, Payload: raw}, nil
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	return env, nil
}
