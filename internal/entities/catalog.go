package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"column:user_id;primaryKey;size:36" json:"user_id"`
	Username     string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string    `gorm:"column:hash_password;not null" json:"-"` // bcrypt, never serialized
	DisplayName  string    `gorm:"size:255;not null" json:"display_name"`
	TypeAuthen   string    `gorm:"size:50;not null" json:"type_authen"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Book struct {
	ID          string   `gorm:"column:book_id;primaryKey;size:36" json:"book_id"`
	Title       string   `gorm:"index;size:512;not null" json:"title"`
	Description *string  `gorm:"column:description;type:text" json:"desc"`
	Author      []string `gorm:"serializer:json;not null" json:"author"`
	Genre       []string `gorm:"serializer:json" json:"genre"`
	ISBN        *string  `gorm:"column:isbn;uniqueIndex;size:20" json:"isbn"` // NULL when not supplied
	BookFormat  *string  `gorm:"size:50" json:"book_format"`
	CoverImgURL *string  `gorm:"size:2048" json:"cover_img_url"`
	NumPage     int      `gorm:"default:0" json:"num_page"`

	// Aggregates maintained outside this service
	NumRate   int     `gorm:"default:0" json:"num_rate"`
	NumReview int     `gorm:"index;default:0" json:"num_review"`
	AvgRate   float64 `gorm:"index;default:0" json:"avg_rate"`

	CreatedAt time.Time `json:"-"`
}

func (Book) TableName() string { return "books" }

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

type Review struct {
	ID        string    `gorm:"column:review_id;primaryKey;size:36" json:"review_id"`
	UserID    string    `gorm:"index;size:36;not null" json:"user_id"`
	BookID    string    `gorm:"index;size:36;not null" json:"book_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   *string   `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"-"`
}

func (Review) TableName() string { return "reviews" }

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// History is an append-only activity entry. Datetime is kept as the client sent it
// and compared lexicographically.
type History struct {
	ID        string    `gorm:"column:history_id;primaryKey;size:36" json:"history_id"`
	UserID    string    `gorm:"index;size:36;not null" json:"user_id"`
	TypeEvent string    `gorm:"size:100;not null" json:"type_event"`
	Datetime  string    `gorm:"column:event_time;index;size:64;not null" json:"datetime"`
	CreatedAt time.Time `json:"-"`
}

func (History) TableName() string { return "history" }

func (h *History) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// Category is one row of the materialized genre index.
type Category struct {
	Name string `gorm:"primaryKey;size:255" json:"name"`
}

func (Category) TableName() string { return "categories" }

// All lists every model for migrations.
func All() []any {
	return []any{&User{}, &Book{}, &Review{}, &History{}, &Category{}}
}
