package acceptance

import (
	"net/http"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
)

type bookingResp struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	Items     []struct {
		ItemID    string `json:"itemId"`
		Brand     string `json:"brand"`
		UnitPrice string `json:"unitPrice"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
	AddOns []string `json:"addons"`
	Totals struct {
		Base    string `json:"base"`
		Tax     string `json:"tax"`
		Deposit string `json:"deposit"`
		Total   string `json:"total"`
	} `json:"totals"`
}

func validCheckoutBody() map[string]interface{} {
	return map[string]interface{}{
		"profile": map[string]string{
			"firstName": "Alice",
			"lastName":  "Doyle",
			"email":     "alice@example.com",
		},
		"agreeTerms":        true,
		"agreeRentalPolicy": true,
	}
}

func (ts *TestServer) checkout(t *testing.T, userID, sessionID string, body map[string]interface{}) string {
	t.Helper()
	w := ts.POST("/sessions/"+sessionID+"/checkout", body, authed(userID))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var resp struct {
		BookingID string `json:"bookingId"`
	}
	decodeBody(t, w, &resp)
	if resp.BookingID == "" {
		t.Fatal("expected a booking id in the checkout response")
	}
	return resp.BookingID
}

// The full screen flow: browse, draft a session, pick dates and addons,
// review, check out, then read the booking back.
func TestCheckoutFlow(t *testing.T) {
	ts := NewTestServer(t)
	cargoID := ts.CreateCargoItem(t)
	trailerID := ts.CreateTrailerItem(t)

	userID := "auth0|alice"
	s := ts.createSession(t, userID, []string{cargoID, trailerID})

	pickup := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	w := ts.PUT("/sessions/"+s.ID+"/dates", map[string]string{
		"pickupAt":  pickup.Format(time.RFC3339),
		"dropoffAt": pickup.Add(48 * time.Hour).Format(time.RFC3339),
	}, authed(userID))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNoContent, w.Code, w.Body.String())
	}

	w = ts.PUT("/sessions/"+s.ID+"/addons", map[string]interface{}{
		"addons": []string{"Rain Cover"},
	}, authed(userID))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNoContent, w.Code, w.Body.String())
	}

	bookingID := ts.checkout(t, userID, s.ID, validCheckoutBody())

	// The session is now booked and linked to the booking.
	w = ts.GET("/sessions/"+s.ID, authed(userID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var sess sessionResp
	decodeBody(t, w, &sess)
	if sess.Status != "booked" || sess.BookingID != bookingID {
		t.Errorf("expected booked session linked to %s, got %s", bookingID, spew.Sdump(sess))
	}

	// The booking snapshot carries lines and totals.
	w = ts.GET("/bookings/"+bookingID, authed(userID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var b bookingResp
	decodeBody(t, w, &b)
	if b.Status != "confirmed" || b.SessionID != s.ID {
		t.Errorf("unexpected booking: %s", spew.Sdump(b))
	}
	if len(b.Items) != 2 {
		t.Fatalf("expected 2 booking lines, got %d", len(b.Items))
	}
	if b.Totals.Total != "178.70" {
		t.Errorf("expected total 178.70, got %s", b.Totals.Total)
	}
	if len(b.AddOns) != 1 || b.AddOns[0] != "Rain Cover" {
		t.Errorf("expected addons [Rain Cover], got %v", b.AddOns)
	}

	// The profile was merged from the checkout payload.
	w = ts.GET("/me", authed(userID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var profile struct {
		FirstName string `json:"firstName"`
		Email     string `json:"email"`
	}
	decodeBody(t, w, &profile)
	if profile.FirstName != "Alice" || profile.Email != "alice@example.com" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestCheckout_SecondAttemptReturns409(t *testing.T) {
	ts := NewTestServer(t)
	cargoID := ts.CreateCargoItem(t)
	s := ts.createSession(t, "auth0|alice", []string{cargoID})

	ts.checkout(t, "auth0|alice", s.ID, validCheckoutBody())

	w := ts.POST("/sessions/"+s.ID+"/checkout", validCheckoutBody(), authed("auth0|alice"))
	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d: %s", http.StatusConflict, w.Code, w.Body.String())
	}
}

func TestCheckout_MissingAgreementReturns400(t *testing.T) {
	ts := NewTestServer(t)
	cargoID := ts.CreateCargoItem(t)
	s := ts.createSession(t, "auth0|alice", []string{cargoID})

	body := validCheckoutBody()
	body["agreeRentalPolicy"] = false

	w := ts.POST("/sessions/"+s.ID+"/checkout", body, authed("auth0|alice"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
	}
}

func TestCheckout_OtherUsersSessionReturns403(t *testing.T) {
	ts := NewTestServer(t)
	cargoID := ts.CreateCargoItem(t)
	s := ts.createSession(t, "auth0|alice", []string{cargoID})

	w := ts.POST("/sessions/"+s.ID+"/checkout", validCheckoutBody(), authed("auth0|mallory"))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d: %s", http.StatusForbidden, w.Code, w.Body.String())
	}
}

func TestListBookings_ReturnsOnlyCallersBookings(t *testing.T) {
	ts := NewTestServer(t)
	cargoID := ts.CreateCargoItem(t)

	aliceSession := ts.createSession(t, "auth0|alice", []string{cargoID})
	bobSession := ts.createSession(t, "auth0|bob", []string{cargoID})

	aliceBooking := ts.checkout(t, "auth0|alice", aliceSession.ID, validCheckoutBody())
	ts.checkout(t, "auth0|bob", bobSession.ID, validCheckoutBody())

	w := ts.GET("/bookings", authed("auth0|alice"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp []bookingResp
	decodeBody(t, w, &resp)
	if len(resp) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(resp))
	}
	if resp[0].ID != aliceBooking {
		t.Errorf("expected booking %s, got %s", aliceBooking, resp[0].ID)
	}
}

func TestGetBooking_OtherUsersBookingReturns403(t *testing.T) {
	ts := NewTestServer(t)
	cargoID := ts.CreateCargoItem(t)
	s := ts.createSession(t, "auth0|alice", []string{cargoID})
	bookingID := ts.checkout(t, "auth0|alice", s.ID, validCheckoutBody())

	w := ts.GET("/bookings/"+bookingID, authed("auth0|bob"))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d: %s", http.StatusForbidden, w.Code, w.Body.String())
	}
}

func TestBookingReceipt_RendersPDF(t *testing.T) {
	ts := NewTestServer(t)
	cargoID := ts.CreateCargoItem(t)
	s := ts.createSession(t, "auth0|alice", []string{cargoID})
	bookingID := ts.checkout(t, "auth0|alice", s.ID, validCheckoutBody())

	w := ts.GET("/bookings/"+bookingID+"/receipt", authed("auth0|alice"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", ct)
	}
	// PDF files open with this magic marker.
	if body := w.Body.Bytes(); len(body) < 5 || string(body[:5]) != "%PDF-" {
		t.Errorf("response does not look like a PDF")
	}
}
