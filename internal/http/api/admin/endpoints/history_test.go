package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-labs/iris/internal/model"
)

func strPtr(s string) *string { return &s }

func TestHistoryEndpointEnvelopeAndMapping(t *testing.T) {
	router, store, _ := setupAdminRouter(t)

	store.history = []model.AssignmentHistoryEntry{
		{
			AssignmentHistory: model.AssignmentHistory{
				ID:             2,
				DisplayID:      100,
				NewSlideshowID: intPtr(10),
				Action:         model.ActionAssign,
				Reason:         strPtr("launch"),
				CreatedBy:      7,
				CreatedAt:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			},
			DisplayName:      "lobby",
			NewSlideshowName: strPtr("welcome loop"),
		},
		{
			AssignmentHistory: model.AssignmentHistory{
				ID:                  1,
				DisplayID:           100,
				PreviousSlideshowID: intPtr(10),
				Action:              model.ActionUnassign,
				CreatedBy:           7,
				CreatedAt:           time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
			},
			DisplayName: "lobby",
		},
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodGet, "/api/v1/assignment-history", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    []struct {
			ID               int     `json:"id"`
			DisplayName      string  `json:"display_name"`
			NewSlideshowName *string `json:"new_slideshow_name"`
			Action           string  `json:"action"`
			Reason           *string `json:"reason"`
			CreatedByID      int     `json:"created_by_id"`
			CreatedAt        string  `json:"created_at"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
	require.Len(t, resp.Data, 2)

	first := resp.Data[0]
	assert.Equal(t, 2, first.ID)
	assert.Equal(t, "lobby", first.DisplayName)
	require.NotNil(t, first.NewSlideshowName)
	assert.Equal(t, "welcome loop", *first.NewSlideshowName)
	assert.Equal(t, model.ActionAssign, first.Action)
	assert.Equal(t, 7, first.CreatedByID)
	assert.Equal(t, "2025-03-01T12:00:00Z", first.CreatedAt)

	assert.Equal(t, model.ActionUnassign, resp.Data[1].Action)
	assert.Nil(t, resp.Data[1].Reason)
}

func TestHistoryEndpointForwardsFilters(t *testing.T) {
	router, store, _ := setupAdminRouter(t)

	w := httptest.NewRecorder()
	target := "/api/v1/assignment-history?display_id=3&action=change&user_id=9&limit=5"
	router.ServeHTTP(w, authedRequest(t, http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	filter := store.lastHistoryFilter
	require.NotNil(t, filter)
	require.NotNil(t, filter.DisplayID)
	assert.Equal(t, 3, *filter.DisplayID)
	require.NotNil(t, filter.Action)
	assert.Equal(t, model.ActionChange, *filter.Action)
	require.NotNil(t, filter.ActorID)
	assert.Equal(t, 9, *filter.ActorID)
	assert.Equal(t, 5, filter.Limit)
}

func TestHistoryEndpointDefaultsToUnfiltered(t *testing.T) {
	router, store, _ := setupAdminRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodGet, "/api/v1/assignment-history", nil))
	require.Equal(t, http.StatusOK, w.Code)

	filter := store.lastHistoryFilter
	require.NotNil(t, filter)
	assert.Nil(t, filter.DisplayID)
	assert.Nil(t, filter.Action)
	assert.Nil(t, filter.ActorID)
	assert.Zero(t, filter.Limit)
}

func TestHistoryEndpointRejectsBadParams(t *testing.T) {
	router, _, _ := setupAdminRouter(t)

	for _, target := range []string{
		"/api/v1/assignment-history?display_id=abc",
		"/api/v1/assignment-history?user_id=abc",
		"/api/v1/assignment-history?limit=abc",
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest(t, http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestHistoryEndpointRequiresAuth(t *testing.T) {
	router, _, _ := setupAdminRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/assignment-history", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
