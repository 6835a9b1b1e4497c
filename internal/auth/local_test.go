package auth

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

	"StudentShift-backend/internal/database"
	"StudentShift-backend/internal/model"
	"StudentShift-backend/internal/utilities"
)

var testDB *database.DBinstanceStruct
var testTeardown func(context.Context, ...testcontainers.TerminateOption) error
var testTokens = NewTokenManager("auth-test-secret", time.Hour)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	var err error
	testTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start test db: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := testTeardown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "teardown error: %v\n", err)
	}
	os.Exit(code)
}

// Helper: validate access token in response and return claims.
func assertValidAccessToken(t *testing.T, resp map[string]interface{}) *Claims {
	t.Helper()
	tokenStr, ok := resp["access_token"].(string)
	require.True(t, ok, "access_token not a string")
	claims, err := testTokens.Validate(tokenStr)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.Subject, "token subject empty")
	assert.NotEmpty(t, claims.ID, "token id empty")
	return claims
}

func TestRegisterStudent(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, testTokens, nil)

	payload := map[string]string{
		"email":      "Register.Student@Example.com",
		"password":   "Password123",
		"role":       "student",
		"first_name": "Niamh",
	}
	rec, resp, err := utilities.SimulateAPICall(handler.LocalRegisterHandler, "/register", http.MethodPost, payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code, "unexpected status, body: %s", rec.Body.String())

	claims := assertValidAccessToken(t, resp)
	assert.Equal(t, model.RoleStudent, claims.Role)

	user, ok := resp["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "register.student@example.com", user["email"])
	assert.Equal(t, claims.Subject, user["id"])
	assert.NotContains(t, user, "password")
}

func TestRegisterEmployer(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, testTokens, nil)

	rec, resp, err := utilities.SimulateAPICall(handler.LocalRegisterHandler, "/register", http.MethodPost, map[string]string{
		"email":    "register.employer@example.com",
		"password": "Password123",
		"role":     "employer",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, model.RoleEmployer, assertValidAccessToken(t, resp).Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, testTokens, nil)

	rec, resp, err := utilities.SimulateAPICall(handler.LocalRegisterHandler, "/register", http.MethodPost, map[string]string{
		"email":    "STUDENT1@example.com",
		"password": "Password123",
		"role":     "student",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", resp["code"])
}

func TestRegisterValidation(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, testTokens, nil)

	cases := []struct {
		name    string
		payload map[string]string
	}{
		{"missing role", map[string]string{"email": "v1@example.com", "password": "Password123"}},
		{"unknown role", map[string]string{"email": "v2@example.com", "password": "Password123", "role": "admin"}},
		{"bad email", map[string]string{"email": "not-an-email", "password": "Password123", "role": "student"}},
		{"email without domain", map[string]string{"email": "v6@", "password": "Password123", "role": "student"}},
		{"missing email", map[string]string{"password": "Password123", "role": "student"}},
		{"short password", map[string]string{"email": "v3@example.com", "password": "Pa1", "role": "student"}},
		{"no digit", map[string]string{"email": "v4@example.com", "password": "Passwordxx", "role": "student"}},
		{"no upper", map[string]string{"email": "v5@example.com", "password": "password123", "role": "student"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp, err := utilities.SimulateAPICall(handler.LocalRegisterHandler, "/register", http.MethodPost, tc.payload)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", resp["code"])
		})
	}
}

func TestLogin(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, testTokens, nil)

	t.Run("success", func(t *testing.T) {
		rec, resp, err := utilities.SimulateAPICall(handler.LocalLoginHandler, "/login", http.MethodPost, map[string]string{
			"email":    database.TestEmployer1.Email,
			"password": database.TestSeedPassword,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		claims := assertValidAccessToken(t, resp)
		assert.Equal(t, database.TestEmployer1.ID.String(), claims.Subject)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec, _, err := utilities.SimulateAPICall(handler.LocalLoginHandler, "/login", http.MethodPost, map[string]string{
			"email":    database.TestEmployer1.Email,
			"password": "WrongPass123",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		rec, _, err := utilities.SimulateAPICall(handler.LocalLoginHandler, "/login", http.MethodPost, map[string]string{
			"email":    "nobody@example.com",
			"password": database.TestSeedPassword,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec, _, err := utilities.SimulateAPICall(handler.LocalLoginHandler, "/login", http.MethodPost, map[string]string{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetAccessToken(t *testing.T) {
	token, err := GetAccessToken(t, testDB, testTokens, database.TestStudent2.Email, database.TestSeedPassword)
	require.NoError(t, err)

	claims, err := testTokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, database.TestStudent2.ID.String(), claims.Subject)
}

func TestAuthLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	l := NewAuthLogger(true, dir)
	handler := NewLocalAuthHandler(testDB, testTokens, l)

	_, _, err := utilities.SimulateAPICall(handler.LocalLoginHandler, "/login", http.MethodPost, map[string]string{
		"email":    database.TestStudent1.Email,
		"password": "WrongPass123",
	})
	require.NoError(t, err)

	content, err := os.ReadFile(dir + "/auth.log")
	require.NoError(t, err)
	assert.Contains(t, string(content), "Local | Fail | student1@example.com")
}
