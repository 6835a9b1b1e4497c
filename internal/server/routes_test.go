package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"StudentShift-backend/internal/config"
	"StudentShift-backend/internal/database"
	"StudentShift-backend/internal/model"
	"StudentShift-backend/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var midTeardown func(context.Context, ...testcontainers.TerminateOption) error
	midTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start test db: %v\n", err)
		os.Exit(1)
	}
	code := m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if midTeardown != nil {
		_ = midTeardown(ctx)
	}
	os.Exit(code)
}

func testConfig() *config.Config {
	return &config.Config{
		Port:               8080,
		AllowOrigins:       []string{"http://localhost:5173"},
		JWTSecret:          "server-test-secret",
		TokenTTL:           time.Hour,
		RateLimitPerSecond: 1000,
		MaxBodyBytes:       1 << 20,
		MessagePageSize:    100,
		AuthLogDir:         os.TempDir(),
	}
}

func newEngine() *gin.Engine {
	s := NewServer(testConfig(), testDB, nil, nil)
	return s.RegisterRoutes().(*gin.Engine)
}

func register(t *testing.T, r *gin.Engine, email, role string) string {
	t.Helper()
	body := gin.H{"email": email, "password": "Password123", "role": role, "first_name": "Test"}
	rec, resp := testutil.MakeJSONRequest(body, "", r, "/api/v1/auth/register", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token, ok := resp["access_token"].(string)
	require.True(t, ok)
	return token
}

func TestHealth(t *testing.T) {
	r := newEngine()

	rec, resp := testutil.MakeJSONRequest(nil, "", r, "/health", http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "up", resp["status"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestApplyFlowOverHTTP(t *testing.T) {
	r := newEngine()
	employerToken := register(t, r, "flow-employer@example.com", model.RoleEmployer)
	studentToken := register(t, r, "flow-student@example.com", model.RoleStudent)

	listingBody := gin.H{
		"title":       "Evening kitchen porter",
		"company":     "Quay Street Bistro",
		"location":    "Galway",
		"salary_min":  13,
		"salary_max":  14,
		"description": "Three evenings a week",
	}
	rec, resp := testutil.MakeJSONRequest(listingBody, employerToken, r, "/api/v1/listings", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	listingID := uint(resp["id"].(float64))

	rec, _ = testutil.MakeJSONRequest(listingBody, studentToken, r, "/api/v1/listings", http.MethodPost)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	apply := gin.H{"listing_id": listingID, "cover_letter": "Available Tue-Thu"}
	rec, _ = testutil.MakeJSONRequest(apply, studentToken, r, "/api/v1/applications", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, resp = testutil.MakeJSONRequest(apply, studentToken, r, "/api/v1/applications", http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_APPLICATION", resp["code"])

	rec, _ = testutil.MakeJSONRequest(nil, employerToken, r, fmt.Sprintf("/api/v1/applications/listing/%d", listingID), http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, testutil.DecodeArray(t, rec), 1)

	rec, resp = testutil.MakeJSONRequest(nil, studentToken, r, fmt.Sprintf("/api/v1/listings/%d", listingID), http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["user_applied"])
	assert.Equal(t, float64(1), resp["applicant_count"])

	rec, _ = testutil.MakeJSONRequest(gin.H{"listing_id": listingID, "text": "Thanks for applying"}, employerToken, r, "/api/v1/messages", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = testutil.MakeJSONRequest(gin.H{"listing_id": listingID, "text": "When can I start?"}, studentToken, r, "/api/v1/messages", http.MethodPost)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestMeAndLogout(t *testing.T) {
	r := newEngine()
	token := register(t, r, "logout-flow@example.com", model.RoleStudent)

	rec, resp := testutil.MakeJSONRequest(nil, token, r, "/api/v1/auth/me", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logout-flow@example.com", resp["email"])

	rec, _ = testutil.MakeJSONRequest(nil, token, r, "/api/v1/auth/logout", http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = testutil.MakeJSONRequest(nil, token, r, "/api/v1/auth/me", http.MethodGet)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token has been revoked", resp["error"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	r := newEngine()

	for _, path := range []string{"/api/v1/listings", "/api/v1/applications/me", "/api/v1/profiles/me", "/api/v1/messages?listing_id=1"} {
		rec, _ := testutil.MakeJSONRequest(nil, "", r, path, http.MethodGet)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}
