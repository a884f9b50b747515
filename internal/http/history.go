package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookcatalog/internal/auth"
	"github.com/mrlokans/bookcatalog/internal/database/filters"
	"github.com/mrlokans/bookcatalog/internal/entities"
)

// HistoryController serves the activity log endpoints.
type HistoryController struct {
	store HistoryStore
}

func NewHistoryController(store HistoryStore) *HistoryController {
	return &HistoryController{store: store}
}

// HistoryQuery holds the GET /history filters. Datetime bounds compare as strings.
type HistoryQuery struct {
	UserID      string `form:"user_id"`
	TypeEvent   string `form:"type_event"`
	DatetimeMin string `form:"datetime_min"`
	DatetimeMax string `form:"datetime_max"`
}

// CreateHistoryRequest is the body of POST /history. UserID defaults to the caller.
type CreateHistoryRequest struct {
	UserID    string `json:"user_id"`
	TypeEvent string `json:"type_event" binding:"required"`
	Datetime  string `json:"datetime" binding:"required"`
}

// List handles GET /history.
func (hc *HistoryController) List(c *gin.Context) {
	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	list, err := hc.store.Find(c.Request.Context(), filters.HistoryFilter(q))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// Create handles POST /history.
func (hc *HistoryController) Create(c *gin.Context) {
	var req CreateHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	entry := &entities.History{
		UserID:    req.UserID,
		TypeEvent: req.TypeEvent,
		Datetime:  req.Datetime,
	}
	if entry.UserID == "" {
		entry.UserID = auth.GetUserID(c)
	}

	if err := hc.store.Insert(c.Request.Context(), entry); err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, entry)
}
