// Package books provides database operations for the book catalog and its
// materialized genre index.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	found, err := repo.Find(ctx, filters.BookFilter{Title: "dune"})
package books

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookcatalog/internal/apperr"
	"github.com/mrlokans/bookcatalog/internal/database"
	"github.com/mrlokans/bookcatalog/internal/database/filters"
	"github.com/mrlokans/bookcatalog/internal/entities"
)

// TopLimit bounds the popular and recommend listings.
const TopLimit = 10

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a book and adds its genres to the category index.
func (r *Repository) Insert(ctx context.Context, book *entities.Book) error {
	if book.Author == nil {
		book.Author = []string{}
	}
	if book.ISBN != nil && *book.ISBN == "" {
		book.ISBN = nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(book).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return apperr.Conflict("a book with this isbn already exists")
			}
			return fmt.Errorf("failed to create book: %w", err)
		}
		return upsertCategories(tx, distinctGenres([][]string{book.Genre}))
	})
}

// Find returns books matching f ordered by id, at most filters.MaxPageSize.
func (r *Repository) Find(ctx context.Context, f filters.BookFilter) ([]entities.Book, error) {
	query, err := filters.Apply(r.db.WithContext(ctx).Model(&entities.Book{}), f)
	if err != nil {
		return nil, err
	}

	var books []entities.Book
	if err := query.Order("book_id ASC").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to find books: %w", err)
	}
	return books, nil
}

// Popular returns the most reviewed books.
func (r *Repository) Popular(ctx context.Context) ([]entities.Book, error) {
	return r.top(ctx, "num_review DESC")
}

// Recommend returns the best rated books.
func (r *Repository) Recommend(ctx context.Context) ([]entities.Book, error) {
	return r.top(ctx, "avg_rate DESC")
}

func (r *Repository) top(ctx context.Context, order string) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).
		Order(order).
		Order("book_id ASC").
		Limit(TopLimit).
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// GetByID retrieves a single book.
func (r *Repository) GetByID(ctx context.Context, id string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Where("book_id = ?", id).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("book not found")
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	return &book, nil
}

// Exists reports whether a book with id is stored. Pass a transaction to check
// inside it.
func Exists(tx *gorm.DB, id string) (bool, error) {
	var count int64
	if err := tx.Model(&entities.Book{}).Where("book_id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check book: %w", err)
	}
	return count > 0, nil
}

// Categories lists the genre index sorted by name.
func (r *Repository) Categories(ctx context.Context) ([]entities.Category, error) {
	var categories []entities.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// RebuildCategories recomputes the genre index from every stored book and
// returns the number of categories written.
func (r *Repository) RebuildCategories(ctx context.Context) (int, error) {
	var written int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored []entities.Book
		if err := tx.Select("book_id", "genre").Find(&stored).Error; err != nil {
			return fmt.Errorf("failed to load genres: %w", err)
		}

		lists := make([][]string, 0, len(stored))
		for _, b := range stored {
			lists = append(lists, b.Genre)
		}
		names := distinctGenres(lists)

		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Category{}).Error; err != nil {
			return fmt.Errorf("failed to clear categories: %w", err)
		}
		if err := upsertCategories(tx, names); err != nil {
			return err
		}
		written = len(names)
		return nil
	})
	return written, err
}

func upsertCategories(tx *gorm.DB, names []string) error {
	if len(names) == 0 {
		return nil
	}
	rows := make([]entities.Category, 0, len(names))
	for _, name := range names {
		rows = append(rows, entities.Category{Name: name})
	}
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to index categories: %w", err)
	}
	return nil
}

// distinctGenres flattens genre lists into sorted unique non-empty names.
func distinctGenres(lists [][]string) []string {
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, g := range list {
			if g == "" {
				continue
			}
			seen[g] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for g := range seen {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}
