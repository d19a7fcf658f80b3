package infra

// The local key-value JSON store.
// Values are whole JSON documents; every write replaces the previous value
// (last write wins, no version check). Typed decoding happens in the
// repository layer, never here.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is one stored document.
type KVEntry struct {
	Key       string         `gorm:"column:kv_key;primaryKey;size:191"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string { return "kv_entries" }

// Store is the raw byte-level contract of the local store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Keys(ctx context.Context) ([]string, error)
}

type gormStore struct{ db *gorm.DB }

// NewGormStore wraps a database opened with NewDatabase.
func NewGormStore(db *gorm.DB) Store { return &gormStore{db: db} }

func (s *gormStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e KVEntry
	err := s.db.WithContext(ctx).Where("kv_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(e.Value), true, nil
}

func (s *gormStore) Put(ctx context.Context, key string, value []byte) error {
	e := KVEntry{Key: key, Value: datatypes.JSON(value), UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

func (s *gormStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&KVEntry{}).Order("kv_key ASC").Pluck("kv_key", &keys).Error
	return keys, err
}

// MemoryStore is a process-local Store used by tests and dry runs.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// ReadJSON decodes key into a T. Missing keys, read errors and malformed
// JSON all yield fallback; the latter two are logged.
func ReadJSON[T any](ctx context.Context, s Store, key string, fallback T) T {
	v, err := LoadJSON(ctx, s, key, fallback)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("kvstore: read failed, using fallback")
		return fallback
	}
	return v
}

// LoadJSON is ReadJSON for callers that write the value back: a failed read
// is returned instead of hidden behind fallback. Missing or malformed values
// still yield fallback.
func LoadJSON[T any](ctx context.Context, s Store, key string, fallback T) (T, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return fallback, fmt.Errorf("kvstore: read %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return fallback, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("kvstore: malformed value, using fallback")
		return fallback, nil
	}
	return v, nil
}

// WriteJSON replaces key with the JSON encoding of v.
func WriteJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, raw)
}
