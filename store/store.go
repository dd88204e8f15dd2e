package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"order-assistant/models"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrVersionConflict = errors.New("session version conflict")
)

// SessionStore persists one row per conversation.
type SessionStore interface {
	// LoadOrCreate returns the session, creating it with defaults if absent.
	LoadOrCreate(ctx context.Context, id string) (*models.Session, error)

	// Find returns ErrNotFound when the session does not exist.
	Find(ctx context.Context, id string) (*models.Session, error)

	// Save writes the session if nobody saved it since it was loaded and
	// bumps its Version. Returns ErrVersionConflict otherwise.
	Save(ctx context.Context, s *models.Session) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (st *GormStore) LoadOrCreate(ctx context.Context, id string) (*models.Session, error) {
	s, err := st.Find(ctx, id)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	s = models.NewSession(id)
	if err := st.db.WithContext(ctx).Create(s).Error; err != nil {
		// Lost a create race with a concurrent first message: read the winner.
		if existing, findErr := st.Find(ctx, id); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

func (st *GormStore) Find(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	err := st.db.WithContext(ctx).Where("session_id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

func (st *GormStore) Save(ctx context.Context, s *models.Session) error {
	res := st.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("session_id = ? AND version = ?", s.SessionID, s.Version).
		Updates(map[string]any{
			"conversation_history": s.ConversationHistory,
			"order_data":           s.OrderData,
			"status":               s.Status,
			"webhook_url":          s.WebhookURL,
			"webhook_sent":         s.WebhookSent,
			"version":              s.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("save session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	s.Version++
	return nil
}

var _ SessionStore = (*GormStore)(nil)
