package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/rentalflow-backend/catalog"
	"github.com/semanticallynull/rentalflow-backend/internal/middleware"
	"github.com/semanticallynull/rentalflow-backend/pricing"
	"github.com/semanticallynull/rentalflow-backend/session"
)

type sessionResponse struct {
	ID        string                 `json:"id"`
	Status    session.Status         `json:"status"`
	Items     []session.SelectedItem `json:"items"`
	PickupAt  *time.Time             `json:"pickupAt,omitempty"`
	DropoffAt *time.Time             `json:"dropoffAt,omitempty"`
	AddOns    []string               `json:"addons"`
	BookingID string                 `json:"bookingId,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

func toSessionResponse(s session.Session) sessionResponse {
	items := s.Items
	if items == nil {
		items = []session.SelectedItem{}
	}
	addons := s.AddOns
	if addons == nil {
		addons = []string{}
	}
	return sessionResponse{
		ID:        s.ID,
		Status:    s.Status,
		Items:     items,
		PickupAt:  s.PickupAt,
		DropoffAt: s.DropoffAt,
		AddOns:    addons,
		BookingID: s.BookingID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

type createSessionRequest struct {
	ItemIDs []string `json:"itemIds"`
}

func (a *API) createSessionHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	s, err := a.sessions.Create(c, userID, req.ItemIDs)
	if err != nil {
		logger.ErrorContext(c, "failed to create session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, toSessionResponse(s))
}

// ownedSession loads the session in the path and verifies the caller owns
// it. On failure it has already written the response.
func (a *API) ownedSession(c *gin.Context) (session.Session, bool) {
	logger := middleware.GetLogger(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return session.Session{}, false
	}

	s, err := a.sessions.Get(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "SESSION_NOT_FOUND", "message": "Session not found"})
			return session.Session{}, false
		}
		logger.ErrorContext(c, "failed to get session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return session.Session{}, false
	}

	if s.CustomerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"code": "NOT_AUTHORIZED", "message": "Not authorized for this session"})
		return session.Session{}, false
	}
	return s, true
}

func (a *API) getSessionHandler(c *gin.Context) {
	s, ok := a.ownedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(s))
}

type setDatesRequest struct {
	PickupAt  string `json:"pickupAt" binding:"required"`
	DropoffAt string `json:"dropoffAt" binding:"required"`
}

func (a *API) setDatesHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	s, ok := a.ownedSession(c)
	if !ok {
		return
	}

	var req setDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	pickup, err := time.Parse(time.RFC3339, req.PickupAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid pickupAt format"})
		return
	}
	dropoff, err := time.Parse(time.RFC3339, req.DropoffAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid dropoffAt format"})
		return
	}
	if !dropoff.After(pickup) {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_DATES", "message": "Dropoff must be after pickup"})
		return
	}

	if err := a.sessions.SetDates(c, s.ID, pickup, dropoff); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "SESSION_NOT_FOUND", "message": "Session not found"})
			return
		}
		logger.ErrorContext(c, "failed to set dates", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Status(http.StatusNoContent)
}

type setAddonsRequest struct {
	AddOns []string `json:"addons"`
}

func (a *API) setAddonsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	s, ok := a.ownedSession(c)
	if !ok {
		return
	}

	var req setAddonsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	if err := a.sessions.SetAddons(c, s.ID, req.AddOns); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "SESSION_NOT_FOUND", "message": "Session not found"})
			return
		}
		logger.ErrorContext(c, "failed to set addons", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Status(http.StatusNoContent)
}

type setItemsRequest struct {
	Items []session.SelectedItem `json:"items"`
}

func (a *API) setItemsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	s, ok := a.ownedSession(c)
	if !ok {
		return
	}

	var req setItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	if err := a.sessions.SetItems(c, s.ID, req.Items); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "SESSION_NOT_FOUND", "message": "Session not found"})
			return
		}
		logger.ErrorContext(c, "failed to set items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Status(http.StatusNoContent)
}

type toggleItemRequest struct {
	// SingleSelect screens deselect every other item when one is toggled on.
	SingleSelect bool `json:"singleSelect"`
}

func (a *API) toggleItemHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	s, ok := a.ownedSession(c)
	if !ok {
		return
	}

	var req toggleItemRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
			return
		}
	}

	itemID := c.Param("itemId")
	if _, err := a.items.GetItem(c, itemID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "ITEM_NOT_FOUND", "message": "Item not found"})
			return
		}
		logger.ErrorContext(c, "failed to get item", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	items := toggleSelection(s.Items, itemID, req.SingleSelect)
	if err := a.sessions.SetItems(c, s.ID, items); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "SESSION_NOT_FOUND", "message": "Session not found"})
			return
		}
		logger.ErrorContext(c, "failed to toggle item", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	s.Items = items
	c.JSON(http.StatusOK, toSessionResponse(s))
}

// toggleSelection flips one item's selection. Toggling an item on in
// single-select mode zeroes every other quantity in the same update.
func toggleSelection(current []session.SelectedItem, itemID string, singleSelect bool) []session.SelectedItem {
	items := make([]session.SelectedItem, len(current))
	copy(items, current)

	found := false
	turnedOn := false
	for i := range items {
		if items[i].ItemID == itemID {
			found = true
			if items[i].Quantity >= 1 {
				items[i].Quantity = 0
			} else {
				items[i].Quantity = 1
				turnedOn = true
			}
		}
	}
	if !found {
		items = append(items, session.SelectedItem{ItemID: itemID, Quantity: 1})
		turnedOn = true
	}

	if singleSelect && turnedOn {
		for i := range items {
			if items[i].ItemID != itemID {
				items[i].Quantity = 0
			}
		}
	}
	return items
}

type reviewLineResponse struct {
	itemResponse
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

type reviewResponse struct {
	Items           []reviewLineResponse `json:"items"`
	AvailableAddOns []string             `json:"availableAddons"`
	SelectedAddOns  []string             `json:"selectedAddons"`
	PickupAt        *time.Time           `json:"pickupAt,omitempty"`
	DropoffAt       *time.Time           `json:"dropoffAt,omitempty"`
	Totals          totalsResponse       `json:"totals"`
}

// reviewHandler re-resolves the selection against the catalog and prices it
// for the review screen. Nothing cached by earlier screens is trusted.
func (a *API) reviewHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	s, ok := a.ownedSession(c)
	if !ok {
		return
	}

	resolved, err := a.resolver.Resolve(c, s.ActiveItemIDs())
	if err != nil {
		if errors.Is(err, catalog.ErrNoItems) {
			c.JSON(http.StatusNotFound, gin.H{"code": "NO_ITEMS_FOUND", "message": "No items found for this session"})
			return
		}
		logger.ErrorContext(c, "failed to resolve session items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	lines := make([]pricing.Line, 0, len(resolved.Items))
	lineResponses := make([]reviewLineResponse, 0, len(resolved.Items))
	for _, item := range resolved.Items {
		qty := s.Quantity(item.ID)
		lines = append(lines, pricing.Line{UnitPrice: item.DailyPrice, Quantity: int64(qty)})
		lineResponses = append(lineResponses, reviewLineResponse{
			itemResponse: toItemResponse(item),
			Quantity:     qty,
			LineTotal:    item.DailyPrice.Mul(intToDecimal(qty)).StringFixed(2),
		})
	}

	addons := resolved.AddOns
	if addons == nil {
		addons = []string{}
	}
	selected := s.AddOns
	if selected == nil {
		selected = []string{}
	}

	c.JSON(http.StatusOK, reviewResponse{
		Items:           lineResponses,
		AvailableAddOns: addons,
		SelectedAddOns:  selected,
		PickupAt:        s.PickupAt,
		DropoffAt:       s.DropoffAt,
		Totals:          toTotalsResponse(pricing.Quote(lines)),
	})
}
