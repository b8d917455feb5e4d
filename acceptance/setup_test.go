package acceptance

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/rentalflow-backend/api"
	"github.com/semanticallynull/rentalflow-backend/booking"
	"github.com/semanticallynull/rentalflow-backend/catalog"
	"github.com/semanticallynull/rentalflow-backend/customer"
	"github.com/semanticallynull/rentalflow-backend/internal/auth0"
	"github.com/semanticallynull/rentalflow-backend/internal/docstore"
	"github.com/semanticallynull/rentalflow-backend/internal/middleware"
	"github.com/semanticallynull/rentalflow-backend/session"
)

type TestServer struct {
	Store    *docstore.Memory
	Router   *gin.Engine
	Identity *auth0.FakeClient
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)

	store := docstore.NewMemory()
	store.AddIndex(booking.Collection, "createdAt")

	items := catalog.NewRepository(store)
	resolver := catalog.NewResolver(items, nil)
	sessions := session.NewRepository(store)
	customers := customer.NewRepository(store)
	bookings := booking.NewRepository(store)
	finalizer := booking.NewFinalizer(store, sessions, resolver, nil, nil)
	identity := auth0.NewFakeClient()

	a := api.New(api.Config{
		Catalog:   items,
		Resolver:  resolver,
		Sessions:  sessions,
		Customers: customers,
		Bookings:  bookings,
		Finalizer: finalizer,
		Identity:  identity,
		Auth:      fakeAuthMiddleware(),
	})

	return &TestServer{
		Store:    store,
		Router:   a.Router(),
		Identity: identity,
	}
}

// fakeAuthMiddleware extracts user ID from X-User-ID header for testing
func fakeAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
			c.Abort()
			return
		}
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

// Helper methods for making requests
func (ts *TestServer) GET(path string, headers map[string]string) *httptest.ResponseRecorder {
	return ts.do(http.MethodGet, path, nil, headers)
}

func (ts *TestServer) POST(path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	return ts.do(http.MethodPost, path, body, headers)
}

func (ts *TestServer) PUT(path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	return ts.do(http.MethodPut, path, body, headers)
}

func (ts *TestServer) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

// Helper to seed a catalog item directly in the store
func (ts *TestServer) CreateTestItem(t *testing.T, doc docstore.Document) string {
	t.Helper()
	id, err := ts.Store.Add(context.Background(), "items", doc)
	if err != nil {
		t.Fatalf("failed to create test item: %v", err)
	}
	return id
}

func (ts *TestServer) CreateCargoItem(t *testing.T) string {
	t.Helper()
	return ts.CreateTestItem(t, docstore.Document{
		"brand":    "Urban Arrow",
		"model":    "Family",
		"price":    "72.00",
		"capacity": 2,
		"category": "cargo",
		"addons":   []interface{}{"Rain Cover", "Child Seat"},
	})
}

func (ts *TestServer) CreateTrailerItem(t *testing.T) string {
	t.Helper()
	return ts.CreateTestItem(t, docstore.Document{
		"brand":    "Thule",
		"model":    "Chariot Sport 2",
		"price":    45.0,
		"capacity": 2,
		"category": "trailer",
		"addons":   []interface{}{"Rain Cover"},
	})
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response: %v\nbody: %s", err, w.Body.String())
	}
}
