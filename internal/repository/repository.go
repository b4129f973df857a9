// Package repository implements the synchronous state-transition operations
// over the aggregate. Operations are deterministic given the store's current
// content and never retry or add latency of their own; the request simulator
// layers those concerns on top.
package repository

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/knowledgebot/backend/internal/metrics"
	"github.com/knowledgebot/backend/internal/storage/models"
	"github.com/knowledgebot/backend/internal/store"
	"github.com/knowledgebot/backend/pkg/logger"
)

// Repository holds the injected store handle and the sentinel admin email.
type Repository struct {
	store      *store.Store
	adminEmail string
}

func New(st *store.Store, adminEmail string) *Repository {
	return &Repository{
		store:      st,
		adminEmail: strings.ToLower(adminEmail),
	}
}

// Authenticate matches a user by case-insensitive email and exact password.
// Misses of either kind return ErrUnauthorized.
func (r *Repository) Authenticate(email, password string) (models.User, error) {
	var found models.User
	err := r.store.View(func(db *models.Database) error {
		for _, u := range db.Users {
			if strings.EqualFold(u.Email, email) && u.Password == password {
				found = u
				return nil
			}
		}
		return ErrUnauthorized
	})
	if err != nil {
		return models.User{}, err
	}
	return found.Stripped(), nil
}

// Register creates an account. The role is admin iff the normalized email
// equals the sentinel admin address; every other account is a plain user.
func (r *Repository) Register(name, email, password string) (models.User, error) {
	normalized := strings.ToLower(email)
	if name == "" {
		name = strings.SplitN(normalized, "@", 2)[0]
	}

	role := models.RoleUser
	if normalized == r.adminEmail {
		role = models.RoleAdmin
	}

	newUser := models.User{
		ID:        "u_" + uuid.NewString()[:8],
		Name:      name,
		Email:     normalized,
		Password:  password,
		Role:      role,
		CreatedAt: time.Now().UnixMilli(),
	}

	err := r.store.Mutate(func(db *models.Database) (bool, error) {
		for _, u := range db.Users {
			if strings.EqualFold(u.Email, email) {
				return false, ErrConflict
			}
		}
		db.Users = append(db.Users, newUser)
		metrics.UsersTotal.Set(float64(len(db.Users)))
		return true, nil
	})
	if err != nil {
		return models.User{}, err
	}

	logger.Info("User registered",
		zap.String("user_id", newUser.ID),
		zap.String("role", string(role)),
	)

	return newUser.Stripped(), nil
}

// ListUsers returns every account with passwords stripped.
func (r *Repository) ListUsers() ([]models.User, error) {
	var users []models.User
	err := r.store.View(func(db *models.Database) error {
		users = make([]models.User, 0, len(db.Users))
		for _, u := range db.Users {
			users = append(users, u.Stripped())
		}
		return nil
	})
	return users, err
}

// ListDocuments returns all documents in stable insertion order.
func (r *Repository) ListDocuments() ([]models.KnowledgeDocument, error) {
	var docs []models.KnowledgeDocument
	err := r.store.View(func(db *models.Database) error {
		docs = append([]models.KnowledgeDocument{}, db.Documents...)
		return nil
	})
	return docs, err
}

// CreateDocument appends a record with a time-derived id.
func (r *Repository) CreateDocument(doc models.KnowledgeDocument) (models.KnowledgeDocument, error) {
	doc.ID = fmt.Sprintf("doc_%d", time.Now().UnixNano())
	doc.CreatedAt = time.Now().UnixMilli()

	err := r.store.Mutate(func(db *models.Database) (bool, error) {
		db.Documents = append(db.Documents, doc)
		metrics.DocumentsTotal.Set(float64(len(db.Documents)))
		return true, nil
	})
	if err != nil {
		return models.KnowledgeDocument{}, err
	}

	logger.Info("Document created", zap.String("doc_id", doc.ID), zap.String("title", doc.Title))
	return doc, nil
}

// UpdateDocument shallow-merges the provided fields over the existing record.
func (r *Repository) UpdateDocument(id string, updates models.DocumentUpdate) (models.KnowledgeDocument, error) {
	var updated models.KnowledgeDocument
	err := r.store.Mutate(func(db *models.Database) (bool, error) {
		for i := range db.Documents {
			if db.Documents[i].ID != id {
				continue
			}
			doc := &db.Documents[i]
			if updates.Title != nil {
				doc.Title = *updates.Title
			}
			if updates.Content != nil {
				doc.Content = *updates.Content
			}
			if updates.Type != nil {
				doc.Type = *updates.Type
			}
			if updates.AuthorSignature != nil {
				doc.AuthorSignature = *updates.AuthorSignature
			}
			updated = *doc
			return true, nil
		}
		return false, ErrNotFound
	})
	if err != nil {
		return models.KnowledgeDocument{}, err
	}
	return updated, nil
}

// DeleteDocument removes a record by id. Idempotent: deleting a missing id is
// not an error.
func (r *Repository) DeleteDocument(id string) error {
	return r.store.Mutate(func(db *models.Database) (bool, error) {
		filtered := db.Documents[:0]
		for _, d := range db.Documents {
			if d.ID != id {
				filtered = append(filtered, d)
			}
		}
		db.Documents = filtered
		metrics.DocumentsTotal.Set(float64(len(db.Documents)))
		return true, nil
	})
}

// SaveChatHistory overwrites one user's transcript. Callers always pass the
// full transcript; this is not an append.
func (r *Repository) SaveChatHistory(userID string, messages []models.Message) error {
	return r.store.Mutate(func(db *models.Database) (bool, error) {
		db.ChatHistories[userID] = append([]models.Message{}, messages...)
		return true, nil
	})
}

// ChatHistory returns one user's transcript, empty when absent.
func (r *Repository) ChatHistory(userID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.store.View(func(db *models.Database) error {
		msgs = append([]models.Message{}, db.ChatHistories[userID]...)
		return nil
	})
	return msgs, err
}

// RawDatabase returns a snapshot of the whole aggregate for the operations
// console.
func (r *Repository) RawDatabase() (*models.Database, error) {
	snapshot := models.Empty()
	err := r.store.View(func(db *models.Database) error {
		snapshot.Users = append(snapshot.Users, db.Users...)
		snapshot.Documents = append(snapshot.Documents, db.Documents...)
		for id, msgs := range db.ChatHistories {
			snapshot.ChatHistories[id] = append([]models.Message{}, msgs...)
		}
		snapshot.Initialized = db.Initialized
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// SystemMetrics are derived, never persisted.
type SystemMetrics struct {
	UptimeSeconds int64  `json:"uptime"`
	StorageUsed   string `json:"storageUsed"`
	Platform      string `json:"platform"`
	Status        string `json:"status"`
}

func (r *Repository) SystemMetrics() SystemMetrics {
	return SystemMetrics{
		UptimeSeconds: int64(r.store.Uptime().Seconds()),
		StorageUsed:   fmt.Sprintf("%d B", r.store.Size()),
		Platform:      runtime.Version(),
		Status:        "Active",
	}
}
