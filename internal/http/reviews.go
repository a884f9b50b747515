package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookcatalog/internal/auth"
	"github.com/mrlokans/bookcatalog/internal/database/filters"
	"github.com/mrlokans/bookcatalog/internal/entities"
)

// ReviewsController serves the review endpoints.
type ReviewsController struct {
	store ReviewStore
}

func NewReviewsController(store ReviewStore) *ReviewsController {
	return &ReviewsController{store: store}
}

// ReviewQuery holds the GET /review filters.
type ReviewQuery struct {
	UserID    string `form:"user_id"`
	BookID    string `form:"book_id"`
	RatingMin *int   `form:"rating_min"`
	RatingMax *int   `form:"rating_max"`
}

// CreateReviewRequest is the body of POST /review. UserID defaults to the caller.
type CreateReviewRequest struct {
	UserID  string  `json:"user_id"`
	BookID  string  `json:"book_id" binding:"required"`
	Rating  *int    `json:"rating" binding:"required"`
	Comment *string `json:"comment"`
}

// List handles GET /review.
func (rc *ReviewsController) List(c *gin.Context) {
	var q ReviewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	list, err := rc.store.Find(c.Request.Context(), filters.ReviewFilter{
		UserID:    q.UserID,
		BookID:    q.BookID,
		RatingMin: q.RatingMin,
		RatingMax: q.RatingMax,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// Create handles POST /review.
func (rc *ReviewsController) Create(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review := &entities.Review{
		UserID:  req.UserID,
		BookID:  req.BookID,
		Rating:  *req.Rating,
		Comment: req.Comment,
	}
	if review.UserID == "" {
		review.UserID = auth.GetUserID(c)
	}

	if err := rc.store.Insert(c.Request.Context(), review); err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, review)
}
