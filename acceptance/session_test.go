package acceptance

import (
	"net/http"
	"testing"
	"time"
)

type selectedItemResp struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type sessionResp struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Items     []selectedItemResp `json:"items"`
	AddOns    []string           `json:"addons"`
	BookingID string             `json:"bookingId"`
}

func authed(userID string) map[string]string {
	return map[string]string{"X-User-ID": userID}
}

func (ts *TestServer) createSession(t *testing.T, userID string, itemIDs []string) sessionResp {
	t.Helper()
	w := ts.POST("/sessions", map[string]interface{}{"itemIds": itemIDs}, authed(userID))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var resp sessionResp
	decodeBody(t, w, &resp)
	return resp
}

func TestCreateSession_StartsInProgress(t *testing.T) {
	ts := NewTestServer(t)
	itemID := ts.CreateCargoItem(t)

	resp := ts.createSession(t, "auth0|alice", []string{itemID})

	if resp.Status != "in_progress" {
		t.Errorf("expected status in_progress, got %s", resp.Status)
	}
	if len(resp.Items) != 1 || resp.Items[0].ItemID != itemID || resp.Items[0].Quantity != 1 {
		t.Errorf("expected one selected item with quantity 1, got %+v", resp.Items)
	}
}

func TestCreateSession_Returns401WithoutAuth(t *testing.T) {
	ts := NewTestServer(t)

	w := ts.POST("/sessions", map[string]interface{}{}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestGetSession_Returns403ForOtherUser(t *testing.T) {
	ts := NewTestServer(t)
	itemID := ts.CreateCargoItem(t)

	s := ts.createSession(t, "auth0|alice", []string{itemID})

	w := ts.GET("/sessions/"+s.ID, authed("auth0|mallory"))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d: %s", http.StatusForbidden, w.Code, w.Body.String())
	}
}

func TestGetSession_Returns404WhenMissing(t *testing.T) {
	ts := NewTestServer(t)

	w := ts.GET("/sessions/does-not-exist", authed("auth0|alice"))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestSetDates_RejectsDropoffBeforePickup(t *testing.T) {
	ts := NewTestServer(t)
	itemID := ts.CreateCargoItem(t)
	s := ts.createSession(t, "auth0|alice", []string{itemID})

	pickup := time.Now().Add(24 * time.Hour).UTC()
	w := ts.PUT("/sessions/"+s.ID+"/dates", map[string]string{
		"pickupAt":  pickup.Format(time.RFC3339),
		"dropoffAt": pickup.Add(-time.Hour).Format(time.RFC3339),
	}, authed("auth0|alice"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
	}
}

func TestToggleItem_SingleSelectDeselectsOthers(t *testing.T) {
	ts := NewTestServer(t)
	cargoID := ts.CreateCargoItem(t)
	trailerID := ts.CreateTrailerItem(t)

	s := ts.createSession(t, "auth0|alice", []string{cargoID})

	w := ts.POST("/sessions/"+s.ID+"/items/"+trailerID+"/toggle",
		map[string]bool{"singleSelect": true}, authed("auth0|alice"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp sessionResp
	decodeBody(t, w, &resp)

	quantities := map[string]int{}
	for _, it := range resp.Items {
		quantities[it.ItemID] = it.Quantity
	}
	if quantities[trailerID] != 1 {
		t.Errorf("expected toggled item selected, got %+v", resp.Items)
	}
	if quantities[cargoID] != 0 {
		t.Errorf("expected prior selection cleared in single-select mode, got %+v", resp.Items)
	}
}

func TestToggleItem_OffAndOnAgain(t *testing.T) {
	ts := NewTestServer(t)
	cargoID := ts.CreateCargoItem(t)
	s := ts.createSession(t, "auth0|alice", []string{cargoID})

	// Toggle off.
	w := ts.POST("/sessions/"+s.ID+"/items/"+cargoID+"/toggle", nil, authed("auth0|alice"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var resp sessionResp
	decodeBody(t, w, &resp)
	if resp.Items[0].Quantity != 0 {
		t.Fatalf("expected quantity 0 after toggle off, got %d", resp.Items[0].Quantity)
	}

	// Toggle back on.
	w = ts.POST("/sessions/"+s.ID+"/items/"+cargoID+"/toggle", nil, authed("auth0|alice"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	decodeBody(t, w, &resp)
	if resp.Items[0].Quantity != 1 {
		t.Fatalf("expected quantity 1 after toggle on, got %d", resp.Items[0].Quantity)
	}
}

func TestToggleItem_Returns404ForUnknownItem(t *testing.T) {
	ts := NewTestServer(t)
	cargoID := ts.CreateCargoItem(t)
	s := ts.createSession(t, "auth0|alice", []string{cargoID})

	w := ts.POST("/sessions/"+s.ID+"/items/not-a-real-item/toggle", nil, authed("auth0|alice"))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d: %s", http.StatusNotFound, w.Code, w.Body.String())
	}
}

type reviewResp struct {
	Items []struct {
		ID        string `json:"id"`
		Quantity  int    `json:"quantity"`
		LineTotal string `json:"lineTotal"`
	} `json:"items"`
	AvailableAddOns []string `json:"availableAddons"`
	SelectedAddOns  []string `json:"selectedAddons"`
	Totals          struct {
		Base    string `json:"base"`
		Tax     string `json:"tax"`
		Deposit string `json:"deposit"`
		Total   string `json:"total"`
	} `json:"totals"`
}

func TestReview_PricesSelectionWithTaxAndDeposit(t *testing.T) {
	ts := NewTestServer(t)
	cargoID := ts.CreateCargoItem(t)
	trailerID := ts.CreateTrailerItem(t)

	s := ts.createSession(t, "auth0|alice", []string{cargoID, trailerID})

	w := ts.PUT("/sessions/"+s.ID+"/addons", map[string]interface{}{
		"addons": []string{"Rain Cover"},
	}, authed("auth0|alice"))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNoContent, w.Code, w.Body.String())
	}

	w = ts.GET("/sessions/"+s.ID+"/review", authed("auth0|alice"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp reviewResp
	decodeBody(t, w, &resp)

	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 review lines, got %d", len(resp.Items))
	}
	// Line order follows selection order.
	if resp.Items[0].ID != cargoID || resp.Items[1].ID != trailerID {
		t.Errorf("review lines out of selection order")
	}
	if resp.Totals.Base != "117.00" || resp.Totals.Tax != "11.70" || resp.Totals.Deposit != "50.00" || resp.Totals.Total != "178.70" {
		t.Errorf("unexpected totals: %+v", resp.Totals)
	}
	// Union of both items' addon lists.
	if len(resp.AvailableAddOns) != 2 {
		t.Errorf("expected 2 available addons, got %v", resp.AvailableAddOns)
	}
	if len(resp.SelectedAddOns) != 1 || resp.SelectedAddOns[0] != "Rain Cover" {
		t.Errorf("expected selected addons [Rain Cover], got %v", resp.SelectedAddOns)
	}
}

func TestReview_Returns404WhenNoItemsResolve(t *testing.T) {
	ts := NewTestServer(t)
	s := ts.createSession(t, "auth0|alice", []string{"ghost-item"})

	w := ts.GET("/sessions/"+s.ID+"/review", authed("auth0|alice"))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d: %s", http.StatusNotFound, w.Code, w.Body.String())
	}
}
