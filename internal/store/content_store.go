package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Conceptual-Machines/aideas-api/internal/models"
)

// ContentStore persists accepted generation records. Records are immutable:
// the store only creates.
type ContentStore interface {
	Create(ctx context.Context, content *models.GeneratedContent) error
}

// GormContentStore writes records to postgres.
type GormContentStore struct {
	db *gorm.DB
}

func NewGormContentStore(db *gorm.DB) *GormContentStore {
	return &GormContentStore{db: db}
}

func (s *GormContentStore) Create(ctx context.Context, content *models.GeneratedContent) error {
	if err := s.db.WithContext(ctx).Create(content).Error; err != nil {
		return fmt.Errorf("failed to persist generated content %s: %w", content.ID, err)
	}
	return nil
}

// NoopContentStore is used when persistence is disabled.
type NoopContentStore struct{}

func (NoopContentStore) Create(context.Context, *models.GeneratedContent) error {
	return nil
}
