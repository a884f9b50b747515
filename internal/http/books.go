package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookcatalog/internal/apperr"
	"github.com/mrlokans/bookcatalog/internal/auth"
	"github.com/mrlokans/bookcatalog/internal/database/filters"
	"github.com/mrlokans/bookcatalog/internal/entities"
)

// BooksController serves the catalog endpoints.
type BooksController struct {
	store BookStore
	tasks TaskQueue
}

// NewBooksController creates a BooksController. tasks may be nil.
func NewBooksController(store BookStore, tasks TaskQueue) *BooksController {
	return &BooksController{store: store, tasks: tasks}
}

// BookQuery holds the GET /book filters. author and genre may repeat.
type BookQuery struct {
	Title      string   `form:"title"`
	Author     []string `form:"author"`
	Genre      []string `form:"genre"`
	BookFormat string   `form:"book_format"`
	ISBN       string   `form:"isbn"`
}

// CreateBookRequest is the body of POST /book.
type CreateBookRequest struct {
	Title       string   `json:"title" binding:"required"`
	Desc        *string  `json:"desc"`
	Author      []string `json:"author" binding:"required,min=1,dive,required"`
	Genre       []string `json:"genre" binding:"omitempty,dive,required"`
	ISBN        *string  `json:"isbn"`
	BookFormat  *string  `json:"book_format"`
	CoverImgURL *string  `json:"cover_img_url"`
	NumPage     int      `json:"num_page" binding:"gte=0"`
	NumRate     int      `json:"num_rate" binding:"gte=0"`
	NumReview   int      `json:"num_review" binding:"gte=0"`
	AvgRate     float64  `json:"avg_rate" binding:"gte=0"`
}

// BookTextResponse is returned by GET /book/text.
type BookTextResponse struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// List handles GET /book.
func (bc *BooksController) List(c *gin.Context) {
	var q BookQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	bc.find(c, filters.BookFilter{
		Title:      q.Title,
		Authors:    q.Author,
		Genres:     q.Genre,
		BookFormat: q.BookFormat,
		ISBN:       q.ISBN,
	})
}

// Create handles POST /book.
func (bc *BooksController) Create(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	book := &entities.Book{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Desc,
		Author:      req.Author,
		Genre:       req.Genre,
		ISBN:        req.ISBN,
		BookFormat:  req.BookFormat,
		CoverImgURL: req.CoverImgURL,
		NumPage:     req.NumPage,
		NumRate:     req.NumRate,
		NumReview:   req.NumReview,
		AvgRate:     req.AvgRate,
	}
	if book.Title == "" {
		respondError(c, apperr.Validation("title must not be blank"))
		return
	}

	if err := bc.store.Insert(c.Request.Context(), book); err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, book)
}

// Popular handles GET /book/popular.
func (bc *BooksController) Popular(c *gin.Context) {
	list, err := bc.store.Popular(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// Recommend handles GET /book/recommend.
func (bc *BooksController) Recommend(c *gin.Context) {
	list, err := bc.store.Recommend(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// Categories handles GET /book/categories.
func (bc *BooksController) Categories(c *gin.Context) {
	categories, err := bc.store.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(categories))
}

// RebuildCategories handles POST /book/categories/rebuild.
func (bc *BooksController) RebuildCategories(c *gin.Context) {
	if bc.tasks == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue is disabled"})
		return
	}

	id, err := bc.tasks.EnqueueRebuildCategories(auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err)
		return
	}
	respondAccepted(c, gin.H{"task_id": id, "message": "task enqueued"})
}

// Detail handles GET /book/detail?book_id=.
func (bc *BooksController) Detail(c *gin.Context) {
	book, ok := bc.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, book)
}

// Text handles GET /book/text?book_id=.
func (bc *BooksController) Text(c *gin.Context) {
	book, ok := bc.lookup(c)
	if !ok {
		return
	}

	desc := ""
	if book.Description != nil {
		desc = *book.Description
	}
	c.JSON(http.StatusOK, BookTextResponse{Title: book.Title, Text: strings.Repeat(desc, 3)})
}

// Search handles GET /book/search?title=.
func (bc *BooksController) Search(c *gin.Context) {
	bc.find(c, filters.BookFilter{Title: c.Query("title")})
}

// ByCategory handles GET /book/category?name=.
func (bc *BooksController) ByCategory(c *gin.Context) {
	var genres []string
	if name := c.Query("name"); name != "" {
		genres = []string{name}
	}
	bc.find(c, filters.BookFilter{Genres: genres})
}

func (bc *BooksController) find(c *gin.Context, f filters.BookFilter) {
	list, err := bc.store.Find(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

func (bc *BooksController) lookup(c *gin.Context) (*entities.Book, bool) {
	id, ok := requireQuery(c, "book_id")
	if !ok {
		return nil, false
	}

	book, err := bc.store.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return book, true
}

// nonNil keeps empty results encoded as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
