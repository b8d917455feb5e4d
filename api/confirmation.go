package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phpdave11/gofpdf"

	"github.com/semanticallynull/rentalflow-backend/booking"
	"github.com/semanticallynull/rentalflow-backend/internal/middleware"
)

// bookingEventsHandler streams booking state changes to the confirmation
// screen as server-sent events. The record is effectively immutable after
// finalization, so in practice a single event fires.
func (a *API) bookingEventsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	b, ok := a.ownedBooking(c)
	if !ok {
		return
	}

	updates := make(chan booking.Booking, 4)
	stop, err := a.bookings.Subscribe(c.Request.Context(), b.ID,
		func(b booking.Booking) {
			select {
			case updates <- b:
			default:
			}
		},
		func(err error) {
			logger.ErrorContext(c, "booking subscription error", "bookingId", b.ID, "error", err)
		},
	)
	if err != nil {
		logger.ErrorContext(c, "failed to subscribe to booking", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	defer stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case update := <-updates:
			c.SSEvent("booking", toBookingResponse(update))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// bookingReceiptHandler renders the booking snapshot as a PDF receipt.
func (a *API) bookingReceiptHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	b, ok := a.ownedBooking(c)
	if !ok {
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Booking: "+b.ID)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Status : "+string(b.Status))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Created: "+b.CreatedAt.Format("2006-01-02 15:04"))
	pdf.Ln(7)
	if b.PickupAt != nil && b.DropoffAt != nil {
		pdf.Cell(0, 7, fmt.Sprintf("Rental : %s to %s",
			b.PickupAt.Format("2006-01-02 15:04"), b.DropoffAt.Format("2006-01-02 15:04")))
		pdf.Ln(7)
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Items:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	for i, it := range b.Items {
		line := fmt.Sprintf("%d) %s %s  x%d  @ %s", i+1, it.Brand, it.Model, it.Quantity, it.UnitPrice.StringFixed(2))
		pdf.MultiCell(0, 6, line, "", "", false)
	}
	if len(b.AddOns) > 0 {
		pdf.Ln(2)
		pdf.MultiCell(0, 6, "Add-ons: "+strings.Join(b.AddOns, ", "), "", "", false)
	}
	pdf.Ln(4)

	totals := b.EffectiveTotals()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 6, "Base    : "+totals.Base.StringFixed(2))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Tax     : "+totals.Tax.StringFixed(2))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Deposit : "+totals.Deposit.StringFixed(2))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total   : "+totals.Total.StringFixed(2))

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, b.ID))
	if err := pdf.Output(c.Writer); err != nil {
		logger.ErrorContext(c, "failed to render receipt", "bookingId", b.ID, "error", err)
	}
}
