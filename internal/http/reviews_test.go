package http

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookcatalog/internal/entities"
)

func TestReviewsController_Create(t *testing.T) {
	s := setupTestServer(t)
	userID, token := s.signupAndLogin(t, "alice", "pw1")
	book := createBook(t, s, gin.H{"title": "Dune", "author": []string{"Frank Herbert"}})

	w := s.do(t, http.MethodPost, "/review", gin.H{"book_id": book.ID, "rating": 5, "comment": "great"}, token)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	review := decode[entities.Review](t, w)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, userID, review.UserID, "user_id defaults to the caller")
	assert.Equal(t, 5, review.Rating)
}

func TestReviewsController_Create_Referential(t *testing.T) {
	s := setupTestServer(t)
	_, token := s.signupAndLogin(t, "alice", "pw1")
	book := createBook(t, s, gin.H{"title": "Dune", "author": []string{"x"}})

	tests := []struct {
		name string
		body gin.H
	}{
		{"unknown book", gin.H{"book_id": "missing", "rating": 3}},
		{"unknown user", gin.H{"user_id": "ghost", "book_id": book.ID, "rating": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/review", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "REFERENTIAL", decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestReviewsController_Create_MissingRating(t *testing.T) {
	s := setupTestServer(t)
	_, token := s.signupAndLogin(t, "alice", "pw1")

	w := s.do(t, http.MethodPost, "/review", gin.H{"book_id": "b"}, token)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"rating"`)
}

func TestReviewsController_List(t *testing.T) {
	s := setupTestServer(t)
	_, token := s.signupAndLogin(t, "alice", "pw1")
	book := createBook(t, s, gin.H{"title": "Dune", "author": []string{"x"}})

	for _, rating := range []int{1, 2, 3, 4, 5} {
		w := s.do(t, http.MethodPost, "/review", gin.H{"book_id": book.ID, "rating": rating}, token)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := s.do(t, http.MethodGet, "/review?book_id="+book.ID+"&rating_min=2&rating_max=4", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Review](t, w), 3)

	w = s.do(t, http.MethodGet, "/review?rating_min=abc", nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodGet, "/review", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
