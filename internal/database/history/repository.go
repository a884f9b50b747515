// Package history provides database operations for the append-only user
// activity log.
package history

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookcatalog/internal/apperr"
	"github.com/mrlokans/bookcatalog/internal/database/filters"
	"github.com/mrlokans/bookcatalog/internal/database/users"
	"github.com/mrlokans/bookcatalog/internal/entities"
)

// Repository handles all history database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new history repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends an entry after checking, in the same transaction, that its
// user exists.
func (r *Repository) Insert(ctx context.Context, entry *entities.History) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := users.Exists(tx, entry.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Referential("user does not exist")
		}

		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to create history entry: %w", err)
		}
		return nil
	})
}

// Find returns entries matching f ordered by id, at most filters.MaxPageSize.
func (r *Repository) Find(ctx context.Context, f filters.HistoryFilter) ([]entities.History, error) {
	query, err := filters.Apply(r.db.WithContext(ctx).Model(&entities.History{}), f)
	if err != nil {
		return nil, err
	}

	var entries []entities.History
	if err := query.Order("history_id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to find history: %w", err)
	}
	return entries, nil
}
