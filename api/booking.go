package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/semanticallynull/rentalflow-backend/booking"
	"github.com/semanticallynull/rentalflow-backend/catalog"
	"github.com/semanticallynull/rentalflow-backend/customer"
	"github.com/semanticallynull/rentalflow-backend/internal/middleware"
	"github.com/semanticallynull/rentalflow-backend/pricing"
	"github.com/semanticallynull/rentalflow-backend/session"
)

type totalsResponse struct {
	Base    string `json:"base"`
	Tax     string `json:"tax"`
	Deposit string `json:"deposit"`
	Total   string `json:"total"`
}

func toTotalsResponse(t pricing.Totals) totalsResponse {
	return totalsResponse{
		Base:    t.Base.StringFixed(2),
		Tax:     t.Tax.StringFixed(2),
		Deposit: t.Deposit.StringFixed(2),
		Total:   t.Total.StringFixed(2),
	}
}

func intToDecimal(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

type bookingLineResponse struct {
	ItemID    string `json:"itemId"`
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	ImageURL  string `json:"imageUrl,omitempty"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

type bookingResponse struct {
	ID        string                `json:"id"`
	SessionID string                `json:"sessionId"`
	Status    booking.Status        `json:"status"`
	PickupAt  *time.Time            `json:"pickupAt,omitempty"`
	DropoffAt *time.Time            `json:"dropoffAt,omitempty"`
	Items     []bookingLineResponse `json:"items"`
	AddOns    []string              `json:"addons"`
	Totals    totalsResponse        `json:"totals"`
	CreatedAt time.Time             `json:"createdAt"`
}

func toBookingResponse(b booking.Booking) bookingResponse {
	items := make([]bookingLineResponse, 0, len(b.Items))
	for _, it := range b.Items {
		items = append(items, bookingLineResponse{
			ItemID:    it.ItemID,
			Brand:     it.Brand,
			Model:     it.Model,
			ImageURL:  it.ImageURL,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Quantity:  it.Quantity,
		})
	}
	addons := b.AddOns
	if addons == nil {
		addons = []string{}
	}
	return bookingResponse{
		ID:        b.ID,
		SessionID: b.SessionID,
		Status:    b.Status,
		PickupAt:  b.PickupAt,
		DropoffAt: b.DropoffAt,
		Items:     items,
		AddOns:    addons,
		Totals:    toTotalsResponse(b.EffectiveTotals()),
		CreatedAt: b.CreatedAt,
	}
}

type checkoutCardRequest struct {
	Brand  string `json:"brand"`
	Last4  string `json:"last4"`
	Expiry string `json:"expiry"`
}

type checkoutRequest struct {
	Profile           customer.Fields      `json:"profile"`
	AgreeTerms        bool                 `json:"agreeTerms"`
	AgreeRentalPolicy bool                 `json:"agreeRentalPolicy"`
	SavePaymentInfo   bool                 `json:"savePaymentInfo"`
	Card              *checkoutCardRequest `json:"card,omitempty"`
	Currency          string               `json:"currency,omitempty"`
}

func (a *API) checkoutHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	in := booking.FinalizeInput{
		SessionID:         c.Param("id"),
		Profile:           req.Profile,
		AgreeTerms:        req.AgreeTerms,
		AgreeRentalPolicy: req.AgreeRentalPolicy,
		SavePayment:       req.SavePaymentInfo,
		Currency:          req.Currency,
	}
	if req.Card != nil {
		in.Card = &booking.CardSummary{Brand: req.Card.Brand, Last4: req.Card.Last4, Expiry: req.Card.Expiry}
	}

	bookingID, err := a.finalizer.Finalize(c, userID, in)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": "SESSION_NOT_FOUND", "message": "Session not found"})
		case errors.Is(err, booking.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"code": "NOT_AUTHORIZED", "message": "Not authorized for this session"})
		case errors.Is(err, booking.ErrAlreadyBooked):
			c.JSON(http.StatusConflict, gin.H{"code": "ALREADY_BOOKED", "message": "Session has already been booked"})
		case errors.Is(err, booking.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_FAILED", "message": err.Error()})
		case errors.Is(err, catalog.ErrNoItems):
			c.JSON(http.StatusNotFound, gin.H{"code": "NO_ITEMS_FOUND", "message": "No items found for this session"})
		default:
			logger.ErrorContext(c, "failed to finalize booking", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bookingId": bookingID})
}

func (a *API) listBookingsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return
	}

	bookings, err := a.bookings.ListByCustomer(c, userID)
	if err != nil {
		logger.ErrorContext(c, "failed to list bookings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		responses = append(responses, toBookingResponse(b))
	}
	c.JSON(http.StatusOK, responses)
}

// ownedBooking loads the booking in the path and verifies the caller owns
// it. On failure it has already written the response.
func (a *API) ownedBooking(c *gin.Context) (booking.Booking, bool) {
	logger := middleware.GetLogger(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return booking.Booking{}, false
	}

	b, err := a.bookings.Get(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "BOOKING_NOT_FOUND", "message": "Booking not found"})
			return booking.Booking{}, false
		}
		logger.ErrorContext(c, "failed to get booking", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return booking.Booking{}, false
	}

	if b.CustomerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"code": "NOT_AUTHORIZED", "message": "Not authorized for this booking"})
		return booking.Booking{}, false
	}
	return b, true
}

func (a *API) getBookingHandler(c *gin.Context) {
	b, ok := a.ownedBooking(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}
