// Package store owns (de)serialization of the aggregate to and from the
// persisted blob, and first-run seeding.
package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/knowledgebot/backend/internal/storage/kv"
	"github.com/knowledgebot/backend/internal/storage/models"
	"github.com/knowledgebot/backend/pkg/logger"
)

// DBKey is the blob key holding the whole aggregate, kept from the original
// product for on-disk compatibility of demo data.
const DBKey = "knowledge_bot_pro_stable_db"

const seedDocumentID = "sys_001"

// Store is the single source of truth. Every mutation goes through
// read-whole / modify / write-whole; Mutate serializes those in-process.
// Two processes sharing the same kv backend are last-write-wins.
type Store struct {
	mu        sync.Mutex
	kv        kv.Store
	key       string
	startedAt time.Time
}

func New(backing kv.Store) *Store {
	return &Store{
		kv:        backing,
		key:       DBKey,
		startedAt: time.Now(),
	}
}

// Load returns the persisted aggregate, or an empty unseeded aggregate when
// none exists yet.
func (s *Store) Load() (*models.Database, error) {
	data, err := s.kv.Get(s.key)
	if err == kv.ErrNotFound {
		return models.Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load database: %w", err)
	}

	db := models.Empty()
	if err := json.Unmarshal(data, db); err != nil {
		return nil, fmt.Errorf("decode database: %w", err)
	}
	if db.ChatHistories == nil {
		db.ChatHistories = map[string][]models.Message{}
	}
	return db, nil
}

// Save serializes and persists the entire aggregate, replacing any prior
// value.
func (s *Store) Save(db *models.Database) error {
	data, err := json.Marshal(db)
	if err != nil {
		return fmt.Errorf("encode database: %w", err)
	}
	if err := s.kv.Set(s.key, data); err != nil {
		return fmt.Errorf("save database: %w", err)
	}
	return nil
}

// Mutate runs one read-modify-write cycle under the in-process lock. The
// callback reports whether the aggregate changed and needs persisting.
func (s *Store) Mutate(fn func(db *models.Database) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.Load()
	if err != nil {
		return err
	}
	dirty, err := fn(db)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}
	return s.Save(db)
}

// View runs a read-only callback against the current aggregate.
func (s *Store) View(fn func(db *models.Database) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.Load()
	if err != nil {
		return err
	}
	return fn(db)
}

// EnsureSeeded inserts the sentinel welcome document on first run. Idempotent.
func (s *Store) EnsureSeeded() error {
	return s.Mutate(func(db *models.Database) (bool, error) {
		if db.Initialized && len(db.Documents) > 0 {
			return false, nil
		}
		db.Documents = []models.KnowledgeDocument{{
			ID:              seedDocumentID,
			Title:           "Welcome to Enterprise Intelligence 2026",
			Content:         "KnowledgeBot Pro is a secure RAG platform. Your documents are indexed and stored in a private vault. You can edit or delete this message.",
			Type:            models.DocumentText,
			AuthorSignature: "System Architect",
			CreatedAt:       time.Now().UnixMilli(),
		}}
		db.Initialized = true
		logger.Info("Store seeded with welcome document", zap.String("id", seedDocumentID))
		return true, nil
	})
}

// Size returns the byte size of the persisted blob, zero when absent.
func (s *Store) Size() int {
	data, err := s.kv.Get(s.key)
	if err != nil {
		return 0
	}
	return len(data)
}

// Uptime is the duration since this Store was constructed at process start.
func (s *Store) Uptime() time.Duration {
	return time.Since(s.startedAt)
}
