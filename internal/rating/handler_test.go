// AngelaMos | 2026
// handler_test.go

package rating

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arusey/Huduma/internal/middleware"
)

func withUser(r *http.Request) *http.Request {
	id := r.Header.Get("X-User")
	if id == "" {
		return r
	}
	ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{UserID: id})
	return r.WithContext(ctx)
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-User") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, withUser(r))
	})
}

func optionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, withUser(r))
	})
}

func call(h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestRatingEndpoints(t *testing.T) {
	svc, _ := newTestService()
	r := chi.NewRouter()
	r.Route("/rate", func(r chi.Router) {
		NewHandler(svc).RegisterRoutes(r, requireUser, optionalUser)
	})

	path := "/rate/" + deptID

	rec := call(r, http.MethodPost, path, "", `{"user_rating":4}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(r, http.MethodPost, path, "user-a", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please provide a rating between 1 and 5")

	rec = call(r, http.MethodPost, path, "user-a", `{"user_rating":"four"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(r, http.MethodPost, path, "user-a", `{"user_rating":4}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var sub SubmitResponse
	decodeData(t, rec, &sub)
	assert.Equal(t, "Rating submitted successfully", sub.Message)
	assert.Equal(t, deptID, sub.DepartmentID)
	assert.InDelta(t, 4.0, sub.AverageRating, 1e-9)
	assert.True(t, sub.Created)

	rec = call(r, http.MethodPost, path, ownerID, `{"user_rating":5}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(r, http.MethodPost, "/rate/missing", "user-a", `{"user_rating":5}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(r, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view RatingResponse
	decodeData(t, rec, &view)
	assert.Equal(t, SentinelAnonymous, view.UserRating)

	rec = call(r, http.MethodGet, path, "user-a", "")
	require.Equal(t, http.StatusOK, rec.Code)

	view = RatingResponse{}
	decodeData(t, rec, &view)
	assert.Equal(t, 4.0, view.UserRating)
}
