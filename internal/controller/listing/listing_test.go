package listing

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

	"StudentShift-backend/internal/auth"
	"StudentShift-backend/internal/database"
	"StudentShift-backend/internal/ledger"
	"StudentShift-backend/internal/middleware"
	"StudentShift-backend/internal/model"
	"StudentShift-backend/internal/testutil"
)

var testDB *database.DBinstanceStruct
var testTokens = auth.NewTokenManager("listing-test-secret", time.Hour)

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

func newRouter() (*gin.Engine, *ledger.Ledger) {
	r := gin.New()
	l := ledger.New(testDB.DB)
	lc := NewListingController(testDB, l)
	g := r.Group("/listings", middleware.RequireAuth(testDB, testTokens))
	g.GET("", lc.GetListings)
	g.POST("", middleware.CheckRole(model.RoleEmployer), lc.CreateListingHandler)
	g.GET("/mine", middleware.CheckRole(model.RoleEmployer), lc.GetMyListings)
	g.GET("/:id", lc.GetListingByID)
	g.PUT("/:id", middleware.CheckRole(model.RoleEmployer), lc.EditListing)
	g.PATCH("/:id/status", middleware.CheckRole(model.RoleEmployer), lc.UpdateListingStatus)
	g.DELETE("/:id", middleware.CheckRole(model.RoleEmployer), lc.DeleteListing)
	return r, l
}

func tokenFor(t *testing.T, u model.User) string {
	t.Helper()
	token, _, err := testTokens.Generate(u)
	require.NoError(t, err)
	return token
}

func listingBody(title string) gin.H {
	return gin.H{
		"title":       title,
		"company":     "Harbour Cafe",
		"location":    "Cork",
		"salary_min":  12,
		"salary_max":  15,
		"tags":        []string{"Hospitality", "Weekend"},
		"description": "Weekend shifts at the counter",
	}
}

func TestCreateListingHandler_Success(t *testing.T) {
	r, _ := newRouter()

	rec, resp := testutil.MakeJSONRequest(listingBody("Weekend barista"), tokenFor(t, database.TestEmployer1), r, "/listings", http.MethodPost)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Weekend barista", resp["title"])
	assert.Equal(t, model.ListingStatusActive, resp["status"])
	assert.Equal(t, database.TestEmployer1.ID.String(), resp["employer_id"])
	assert.Equal(t, float64(0), resp["applicant_count"])
}

func TestCreateListingHandler_Validation(t *testing.T) {
	r, _ := newRouter()
	token := tokenFor(t, database.TestEmployer1)

	body := listingBody("Bad salary")
	body["salary_min"] = 20
	rec, resp := testutil.MakeJSONRequest(body, token, r, "/listings", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "salary_min")

	body = listingBody("")
	rec, _ = testutil.MakeJSONRequest(body, token, r, "/listings", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = listingBody("Unknown field")
	body["employer_id"] = database.TestEmployer2.ID.String()
	rec, _ = testutil.MakeJSONRequest(body, token, r, "/listings", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateListingHandler_StudentForbidden(t *testing.T) {
	r, _ := newRouter()

	rec, _ := testutil.MakeJSONRequest(listingBody("Nope"), tokenFor(t, database.TestStudent1), r, "/listings", http.MethodPost)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetListings_FiltersAndUserApplied(t *testing.T) {
	r, l := newRouter()
	employerToken := tokenFor(t, database.TestEmployer2)

	body := listingBody("Lifeguard on the quay")
	body["tags"] = []string{"Outdoor"}
	body["location"] = "Kinsale"
	rec, resp := testutil.MakeJSONRequest(body, employerToken, r, "/listings", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := uint(resp["id"].(float64))

	_, err := l.Submit(context.Background(), database.TestStudent2, id, "")
	require.NoError(t, err)

	rec, _ = testutil.MakeJSONRequest(nil, tokenFor(t, database.TestStudent2), r, "/listings?search=lifeguard&tag=outdoor&location=kins", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	list := testutil.DecodeArray(t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, float64(id), list[0]["id"])
	assert.Equal(t, true, list[0]["user_applied"])
	assert.Equal(t, float64(1), list[0]["applicant_count"])

	rec, _ = testutil.MakeJSONRequest(nil, tokenFor(t, database.TestStudent1), r, "/listings?search=lifeguard", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	list = testutil.DecodeArray(t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, false, list[0]["user_applied"])
}

func TestGetListings_NewestFirstAndActiveOnly(t *testing.T) {
	r, _ := newRouter()
	token := tokenFor(t, database.TestEmployer1)

	var ids []float64
	for _, title := range []string{"Ordering test one", "Ordering test two", "Ordering test three"} {
		rec, resp := testutil.MakeJSONRequest(listingBody(title), token, r, "/listings", http.MethodPost)
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, resp["id"].(float64))
	}

	path := fmt.Sprintf("/listings/%d/status", uint(ids[1]))
	rec, _ := testutil.MakeJSONRequest(gin.H{"status": model.ListingStatusClosed}, token, r, path, http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, "/listings?search=Ordering%20test", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	list := testutil.DecodeArray(t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0]["id"])
	assert.Equal(t, ids[0], list[1]["id"])
}

func TestGetMyListings(t *testing.T) {
	r, _ := newRouter()
	owner, err := database.CreateTestUser(testDB, "mine@example.com", model.RoleEmployer)
	require.NoError(t, err)
	token := tokenFor(t, owner)

	rec, _ := testutil.MakeJSONRequest(listingBody("Mine only"), token, r, "/listings", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, "/listings/mine", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	list := testutil.DecodeArray(t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Mine only", list[0]["title"])
}

func TestGetListingByID(t *testing.T) {
	r, _ := newRouter()

	rec, resp := testutil.MakeJSONRequest(nil, tokenFor(t, database.TestStudent1), r, fmt.Sprintf("/listings/%d", database.TestListing1.ID), http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, database.TestListing1.Title, resp["title"])
	assert.Contains(t, resp, "user_applied")

	rec, _ = testutil.MakeJSONRequest(nil, tokenFor(t, database.TestStudent1), r, "/listings/999999", http.MethodGet)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, tokenFor(t, database.TestStudent1), r, "/listings/zero", http.MethodGet)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = testutil.MakeJSONRequest(nil, tokenFor(t, database.TestStudent1), r, "/listings/18446744073709551615", http.MethodGet)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp["code"])
}

func TestEditListing(t *testing.T) {
	r, _ := newRouter()
	listing, err := database.CreateTestListing(testDB, database.TestEmployer1.ID, "Before edit")
	require.NoError(t, err)
	path := fmt.Sprintf("/listings/%d", listing.ID)

	rec, _ := testutil.MakeJSONRequest(listingBody("Hijacked"), tokenFor(t, database.TestEmployer2), r, path, http.MethodPut)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp := testutil.MakeJSONRequest(listingBody("After edit"), tokenFor(t, database.TestEmployer1), r, path, http.MethodPut)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "After edit", resp["title"])
	assert.Equal(t, database.TestEmployer1.ID.String(), resp["employer_id"])

	var stored model.Listing
	require.NoError(t, testDB.First(&stored, listing.ID).Error)
	assert.Equal(t, "After edit", stored.Title)
	assert.Equal(t, []string{"Hospitality", "Weekend"}, []string(stored.Tags))
}

func TestUpdateListingStatus(t *testing.T) {
	r, _ := newRouter()
	listing, err := database.CreateTestListing(testDB, database.TestEmployer1.ID, "Status toggle")
	require.NoError(t, err)
	path := fmt.Sprintf("/listings/%d/status", listing.ID)
	token := tokenFor(t, database.TestEmployer1)

	rec, _ := testutil.MakeJSONRequest(gin.H{"status": "paused"}, token, r, path, http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = testutil.MakeJSONRequest(gin.H{"status": model.ListingStatusClosed}, tokenFor(t, database.TestEmployer2), r, path, http.MethodPatch)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp := testutil.MakeJSONRequest(gin.H{"status": model.ListingStatusClosed}, token, r, path, http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ListingStatusClosed, resp["status"])

	rec, resp = testutil.MakeJSONRequest(gin.H{"status": model.ListingStatusActive}, token, r, path, http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ListingStatusActive, resp["status"])
}

func TestDeleteListing(t *testing.T) {
	r, l := newRouter()
	listing, err := database.CreateTestListing(testDB, database.TestEmployer1.ID, "To delete")
	require.NoError(t, err)
	_, err = l.Submit(context.Background(), database.TestStudent1, listing.ID, "")
	require.NoError(t, err)
	path := fmt.Sprintf("/listings/%d", listing.ID)

	rec, _ := testutil.MakeJSONRequest(nil, tokenFor(t, database.TestEmployer2), r, path, http.MethodDelete)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp := testutil.MakeJSONRequest(nil, tokenFor(t, database.TestEmployer1), r, path, http.MethodDelete)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Listing deleted", resp["message"])

	var count int64
	require.NoError(t, testDB.Model(&model.Application{}).Where("listing_id = ?", listing.ID).Count(&count).Error)
	assert.Zero(t, count)

	rec, _ = testutil.MakeJSONRequest(nil, tokenFor(t, database.TestEmployer1), r, path, http.MethodDelete)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
