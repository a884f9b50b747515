package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookcatalog/internal/entities"
)

func createBook(t *testing.T, s *testServer, body gin.H) entities.Book {
	t.Helper()
	w := s.do(t, http.MethodPost, "/book", body, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[entities.Book](t, w)
}

func TestBooksController_Create(t *testing.T) {
	s := setupTestServer(t)

	book := createBook(t, s, gin.H{
		"title":  "Dune",
		"desc":   "Spice.",
		"author": []string{"Frank Herbert"},
		"genre":  []string{"Sci-Fi"},
		"isbn":   "9780441013593",
	})

	assert.NotEmpty(t, book.ID)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, []string{"Frank Herbert"}, book.Author)
}

func TestBooksController_Create_Validation(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{"missing title", gin.H{"author": []string{"x"}}, http.StatusUnprocessableEntity},
		{"missing author", gin.H{"title": "x"}, http.StatusUnprocessableEntity},
		{"empty author list", gin.H{"title": "x", "author": []string{}}, http.StatusUnprocessableEntity},
		{"negative pages", gin.H{"title": "x", "author": []string{"a"}, "num_page": -1}, http.StatusUnprocessableEntity},
		{"blank title", gin.H{"title": "   ", "author": []string{"a"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/book", tt.body, "")
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Equal(t, "VALIDATION", decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestBooksController_Create_DuplicateISBN(t *testing.T) {
	s := setupTestServer(t)
	createBook(t, s, gin.H{"title": "A", "author": []string{"x"}, "isbn": "1"})

	w := s.do(t, http.MethodPost, "/book", gin.H{"title": "B", "author": []string{"y"}, "isbn": "1"}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CONFLICT", decode[ErrorResponse](t, w).Code)
}

func TestBooksController_List(t *testing.T) {
	s := setupTestServer(t)
	_, token := s.signupAndLogin(t, "alice", "pw1")

	createBook(t, s, gin.H{"title": "Dune", "author": []string{"Frank Herbert"}, "genre": []string{"Sci-Fi"}})
	createBook(t, s, gin.H{"title": "Dune: House Atreides", "author": []string{"Brian Herbert", "Kevin J. Anderson"}, "genre": []string{"Sci-Fi"}})
	createBook(t, s, gin.H{"title": "Dune Road", "author": []string{"Someone Else"}})
	createBook(t, s, gin.H{"title": "Emma", "author": []string{"Jane Austen"}, "genre": []string{"Romance"}})

	t.Run("requires auth", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/book", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("title and any of the authors", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/book?title=Dune&author=Herbert&author=Anderson", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var titles []string
		for _, b := range decode[[]entities.Book](t, w) {
			titles = append(titles, b.Title)
		}
		assert.ElementsMatch(t, []string{"Dune", "Dune: House Atreides"}, titles)
	})

	t.Run("genre", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/book?genre=romance", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		found := decode[[]entities.Book](t, w)
		require.Len(t, found, 1)
		assert.Equal(t, "Emma", found[0].Title)
	})

	t.Run("no match is an empty list", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/book?title=zzz", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})
}

func TestBooksController_PopularAndRecommend(t *testing.T) {
	s := setupTestServer(t)

	for i, title := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		createBook(t, s, gin.H{"title": title, "author": []string{"x"}, "num_review": i, "avg_rate": float64(i) / 4})
	}

	w := s.do(t, http.MethodGet, "/book/popular", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	popular := decode[[]entities.Book](t, w)
	require.Len(t, popular, 10)
	assert.Equal(t, "l", popular[0].Title)
	for i := 1; i < len(popular); i++ {
		assert.GreaterOrEqual(t, popular[i-1].NumReview, popular[i].NumReview)
	}

	w = s.do(t, http.MethodGet, "/book/recommend", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	recommended := decode[[]entities.Book](t, w)
	require.Len(t, recommended, 10)
	for i := 1; i < len(recommended); i++ {
		assert.GreaterOrEqual(t, recommended[i-1].AvgRate, recommended[i].AvgRate)
	}
}

func TestBooksController_Categories(t *testing.T) {
	s := setupTestServer(t)
	createBook(t, s, gin.H{"title": "A", "author": []string{"x"}, "genre": []string{"Sci-Fi", "Classic"}})
	createBook(t, s, gin.H{"title": "B", "author": []string{"x"}, "genre": []string{"Classic"}})

	w := s.do(t, http.MethodGet, "/book/categories", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"Classic"},{"name":"Sci-Fi"}]`, w.Body.String())
}

func TestBooksController_RebuildCategories(t *testing.T) {
	s := setupTestServer(t)
	userID, token := s.signupAndLogin(t, "alice", "pw1")

	w := s.do(t, http.MethodPost, "/book/categories/rebuild", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/book/categories/rebuild", nil, token)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"task_id":"task-1"`)
	assert.Equal(t, []string{userID}, s.queue.enqueued)
}

func TestBooksController_RebuildCategories_TasksDisabled(t *testing.T) {
	s := setupTestServer(t, withoutTasks())
	_, token := s.signupAndLogin(t, "alice", "pw1")

	w := s.do(t, http.MethodPost, "/book/categories/rebuild", nil, token)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBooksController_DetailAndText(t *testing.T) {
	s := setupTestServer(t)
	book := createBook(t, s, gin.H{"title": "Dune", "desc": "Spice. ", "author": []string{"Frank Herbert"}})

	w := s.do(t, http.MethodGet, "/book/detail?book_id="+book.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, book.ID, decode[entities.Book](t, w).ID)

	w = s.do(t, http.MethodGet, "/book/text?book_id="+book.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, BookTextResponse{Title: "Dune", Text: "Spice. Spice. Spice. "}, decode[BookTextResponse](t, w))

	for _, path := range []string{"/book/detail?book_id=missing", "/book/text?book_id=missing"} {
		w = s.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "NOT_FOUND", decode[ErrorResponse](t, w).Code)
	}

	w = s.do(t, http.MethodGet, "/book/detail", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBooksController_SearchAndCategory(t *testing.T) {
	s := setupTestServer(t)
	createBook(t, s, gin.H{"title": "Dune", "author": []string{"x"}, "genre": []string{"Sci-Fi"}})
	createBook(t, s, gin.H{"title": "Emma", "author": []string{"y"}, "genre": []string{"Romance"}})

	w := s.do(t, http.MethodGet, "/book/search?title=DUN", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]entities.Book](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, "Dune", found[0].Title)

	w = s.do(t, http.MethodGet, "/book/category?name=roman", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	found = decode[[]entities.Book](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, "Emma", found[0].Title)

	w = s.do(t, http.MethodGet, "/book/search", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Book](t, w), 2)
}

func TestBooksController_CategoryWithAmpersand(t *testing.T) {
	s := setupTestServer(t)
	createBook(t, s, gin.H{"title": "Dune", "author": []string{"x"}, "genre": []string{"Sci-Fi & Fantasy"}})
	createBook(t, s, gin.H{"title": "Emma", "author": []string{"y"}, "genre": []string{"Romance"}})

	w := s.do(t, http.MethodGet, "/book/category?name="+url.QueryEscape("Sci-Fi & Fantasy"), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]entities.Book](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, "Dune", found[0].Title)

	w = s.do(t, http.MethodGet, "/book/category?name="+url.QueryEscape("["), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]entities.Book](t, w))
}
