package internal

import (
	"gatebot/internal/controllers"
	"gatebot/internal/models"
	"gatebot/internal/testutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routeTestSummary struct{}

func (m *routeTestSummary) UserSummary(id int64) (models.UserSummary, error) {
	return models.UserSummary{UserID: id}, nil
}
func (m *routeTestSummary) Users() []models.UserSummary                  { return nil }
func (m *routeTestSummary) AdminSummary() models.AdminSummary            { return models.AdminSummary{} }
func (m *routeTestSummary) ScheduledRemovals() []models.ScheduledRemoval { return nil }

func testMux() *http.ServeMux {
	ac := controllers.NewApiController(&testutil.MockLogger{}, &routeTestSummary{}, testutil.NewMockCache())
	mux := http.NewServeMux()
	for _, r := range InitRoutes(ac).GetRoutes() {
		mux.Handle(r.Url, r.Handler)
	}
	return mux
}

func TestInitRoutes_RegistersReadRoutes(t *testing.T) {
	ac := controllers.NewApiController(&testutil.MockLogger{}, &routeTestSummary{}, testutil.NewMockCache())
	routes := InitRoutes(ac).GetRoutes()

	require.Len(t, routes, 4)
	urls := make([]string, len(routes))
	for i, r := range routes {
		urls[i] = r.Url
		assert.Equal(t, http.MethodGet, r.Method)
	}
	assert.ElementsMatch(t, []string{"/summary", "/users", "/user", "/removals"}, urls)
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	mux := testMux()

	for _, url := range []string{"/summary", "/users", "/user?id=1", "/removals"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, url, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, url)

		rr = httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, http.StatusOK, rr.Code, url)
	}
}
