package acceptance

import (
	"net/http"
	"testing"

	"github.com/semanticallynull/rentalflow-backend/internal/auth0"
)

type profileResp struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
}

func TestGetProfile_BootstrapsFromIdentityProvider(t *testing.T) {
	ts := NewTestServer(t)
	ts.Identity.AddUser("token-alice", &auth0.UserInfo{
		Sub:   "auth0|alice",
		Name:  "Alice",
		Email: "alice@example.com",
	})

	w := ts.GET("/me", map[string]string{
		"X-User-ID":     "auth0|alice",
		"Authorization": "Bearer token-alice",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp profileResp
	decodeBody(t, w, &resp)
	if resp.ID != "auth0|alice" {
		t.Errorf("expected id auth0|alice, got %s", resp.ID)
	}
	if resp.Email != "alice@example.com" {
		t.Errorf("expected bootstrapped email, got %q", resp.Email)
	}
}

func TestGetProfile_SurvivesUserInfoFailure(t *testing.T) {
	ts := NewTestServer(t)

	// No user registered with the fake: the userinfo call fails, but the
	// profile is still created empty.
	w := ts.GET("/me", authed("auth0|bob"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp profileResp
	decodeBody(t, w, &resp)
	if resp.ID != "auth0|bob" {
		t.Errorf("expected id auth0|bob, got %s", resp.ID)
	}
}

func TestUpdateProfile_MergesFields(t *testing.T) {
	ts := NewTestServer(t)

	w := ts.PUT("/me", map[string]string{
		"firstName": "Alice",
		"phone":     "+353 1 234 5678",
	}, authed("auth0|alice"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	// A later partial update must not clobber earlier fields.
	w = ts.PUT("/me", map[string]string{"city": "Dublin"}, authed("auth0|alice"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp profileResp
	decodeBody(t, w, &resp)
	if resp.FirstName != "Alice" || resp.Phone != "+353 1 234 5678" || resp.City != "Dublin" {
		t.Errorf("unexpected merged profile: %+v", resp)
	}
}
