package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/rentalflow-backend/catalog"
	"github.com/semanticallynull/rentalflow-backend/internal/middleware"
)

type itemResponse struct {
	ID       string   `json:"id"`
	Brand    string   `json:"brand"`
	Model    string   `json:"model"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Price    string   `json:"dailyPrice"`
	Capacity int      `json:"capacity"`
	Battery  string   `json:"battery,omitempty"`
	Category string   `json:"category,omitempty"`
	AddOns   []string `json:"addons"`
}

func toItemResponse(item catalog.Item) itemResponse {
	addons := item.AddOns
	if addons == nil {
		addons = []string{}
	}
	return itemResponse{
		ID:       item.ID,
		Brand:    item.Brand,
		Model:    item.Model,
		ImageURL: item.ImageURL,
		Price:    item.DailyPrice.StringFixed(2),
		Capacity: item.Capacity,
		Battery:  item.Battery,
		Category: item.Category,
		AddOns:   addons,
	}
}

func (a *API) itemsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	filter := catalog.ListFilter{Category: c.Query("category")}
	if raw := c.Query("minCapacity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid minCapacity"})
			return
		}
		filter.MinCapacity = n
	}

	items, err := a.items.List(c, filter)
	if err != nil {
		logger.ErrorContext(c, "failed to list items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]itemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toItemResponse(item))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) itemHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	item, err := a.items.GetItem(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "ITEM_NOT_FOUND", "message": "Item not found"})
			return
		}
		logger.ErrorContext(c, "failed to get item", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toItemResponse(item))
}
