package utilities

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudentShift-backend/internal/apperr"
	"StudentShift-backend/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		err    bool
	}{
		{"valid", "Bearer abc.def", "abc.def", false},
		{"lowercase scheme", "bearer abc", "abc", false},
		{"empty", "", "", true},
		{"scheme only", "Bearer ", "", true},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				c.Request.Header.Set("Authorization", tc.header)
			}

			got, err := ExtractBearerToken(c)
			if tc.err {
				assert.ErrorIs(t, err, ErrMissingToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractUser(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := ExtractUser(c)
	assert.Error(t, err)

	c.Set("user", "not a user")
	_, err = ExtractUser(c)
	assert.Error(t, err)

	c.Set("user", model.User{Email: "a@b.ie"})
	u, err := ExtractUser(c)
	require.NoError(t, err)
	assert.Equal(t, "a@b.ie", u.Email)
}

func TestRespondError(t *testing.T) {
	t.Run("client error keeps message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodPost, "/applications", nil)

		RespondError(c, apperr.DuplicateApplication(nil))

		assert.Equal(t, http.StatusConflict, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "You have already applied to this listing", body.Error)
		assert.Equal(t, "DUPLICATE_APPLICATION", body.Code)
		assert.True(t, c.IsAborted())
	})

	t.Run("internal error hides detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/messages", nil)

		RespondError(c, errors.New("pq: relation does not exist"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "relation")
		assert.Contains(t, rec.Body.String(), apperr.InternalMessage)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Password123")
	require.NoError(t, err)
	assert.NotEqual(t, "Password123", hash)
	assert.True(t, VerifyPassword("Password123", hash))
	assert.False(t, VerifyPassword("password123", hash))
}

func TestMergeNonEmpty(t *testing.T) {
	dst := model.EditableProfileInfo{University: "UCD", Bio: "old"}
	src := model.EditableProfileInfo{Bio: "new"}

	MergeNonEmpty(&dst, &src)

	assert.Equal(t, "UCD", dst.University)
	assert.Equal(t, "new", dst.Bio)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains(model.Roles, model.RoleEmployer))
	assert.False(t, Contains(model.Roles, "admin"))
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    uint
		wantErr bool
	}{
		{name: "valid", raw: "42", want: 42},
		{name: "max bigint", raw: "9223372036854775807", want: 9223372036854775807},
		{name: "zero", raw: "0", wantErr: true},
		{name: "negative", raw: "-3", wantErr: true},
		{name: "not a number", raw: "abc", wantErr: true},
		{name: "above bigint", raw: "9223372036854775808", wantErr: true},
		{name: "max uint64", raw: "18446744073709551615", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Params = gin.Params{{Key: "id", Value: tt.raw}}

			id, err := ParseIDParam(c, "id")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.KindValidation))
				assert.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestParseIDQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    uint
		wantErr bool
	}{
		{name: "valid", query: "?listing_id=7", want: 7},
		{name: "missing", query: "", wantErr: true},
		{name: "above bigint", query: "?listing_id=18446744073709551615", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/messages"+tt.query, nil)

			id, err := ParseIDQuery(c, "listing_id")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}
