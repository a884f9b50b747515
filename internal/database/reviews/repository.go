// Package reviews provides database operations for book reviews.
package reviews

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookcatalog/internal/apperr"
	"github.com/mrlokans/bookcatalog/internal/database/books"
	"github.com/mrlokans/bookcatalog/internal/database/filters"
	"github.com/mrlokans/bookcatalog/internal/database/users"
	"github.com/mrlokans/bookcatalog/internal/entities"
)

// Repository handles all review database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reviews repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a review after checking, in the same transaction, that its
// user and book exist.
func (r *Repository) Insert(ctx context.Context, review *entities.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := users.Exists(tx, review.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Referential("user does not exist")
		}

		ok, err = books.Exists(tx, review.BookID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Referential("book does not exist")
		}

		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		return nil
	})
}

// Find returns reviews matching f ordered by id, at most filters.MaxPageSize.
func (r *Repository) Find(ctx context.Context, f filters.ReviewFilter) ([]entities.Review, error) {
	query, err := filters.Apply(r.db.WithContext(ctx).Model(&entities.Review{}), f)
	if err != nil {
		return nil, err
	}

	var reviews []entities.Review
	if err := query.Order("review_id ASC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	return reviews, nil
}
