package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/testutil/apitest"
	"github.com/dimitrije/capacity-planner/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type apiFixture struct {
	store   *apitest.MockStore
	hub     *apitest.MockHub
	client  *apitest.HTTPTestClient
	actorID uuid.UUID
	auth    map[string]string
	now     time.Time
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := new(apitest.MockStore)
	hub := new(apitest.MockHub)
	jwtSvc := apitest.TestJWTService()
	now := time.Date(2025, time.March, 20, 10, 0, 0, 0, time.UTC)

	router := NewRouter(RouterConfig{
		Store:      store,
		Hub:        hub,
		JWT:        jwtSvc,
		Thresholds: capacity.DefaultThresholds,
		Now:        func() time.Time { return now },
	})

	actorID := uuid.New()
	token := apitest.GenerateTestToken(t, jwtSvc, actorID, "pm@example.com")

	t.Cleanup(func() {
		store.AssertExpectations(t)
		hub.AssertExpectations(t)
	})

	return &apiFixture{
		store:   store,
		hub:     hub,
		client:  apitest.NewHTTPTestClient(t, router),
		actorID: actorID,
		auth:    apitest.AuthHeader(token),
		now:     now,
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	apitest.ParseJSON(t, rec, &body)
	return body
}

func TestHealth_IsPublic(t *testing.T) {
	f := newAPI(t)

	rec := f.client.GET("/api/v1/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	f := newAPI(t)

	for _, path := range []string{"/api/v1/members", "/api/v1/allocations", "/api/v1/status", "/api/v1/events"} {
		t.Run(path, func(t *testing.T) {
			rec := f.client.GET(path, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
