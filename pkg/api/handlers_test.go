package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinT518/APEX-performance-sub001/pkg/coach"
	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
	"github.com/MartinT518/APEX-performance-sub001/pkg/phase"
	"github.com/MartinT518/APEX-performance-sub001/pkg/snapshot"
)

const decisionBody = `{
  "workout": {"id": "w-1", "date": "2024-05-06", "type": "RUN", "primary_zone": 4, "duration_minutes": 60,
              "structure": {"main_set": "6x800m"}},
  "monitoring": {"niggle_score": 1},
  "last_lift_date": "2024-05-04"
}`

func newTestServer(t *testing.T, opts coach.Options) (*Server, *snapshot.MemoryStore) {
	t.Helper()
	store := snapshot.NewMemoryStore()
	opts.Cache = snapshot.NewCache(store, coach.SnapshotPolicy(1))
	engine, err := coach.New(opts)
	require.NoError(t, err)
	return NewServer(engine, nil), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleDecide(t *testing.T) {
	s, store := newTestServer(t, coach.Options{})
	h := s.Handler(nil)

	w := do(t, h, http.MethodPost, "/v1/users/athlete-1/decisions/2024-05-06", decisionBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var res coach.DailyResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, "athlete-1", res.UserID)
	assert.Equal(t, contracts.StatusGo, res.GlobalStatus)
	assert.Equal(t, contracts.AuditNominal, res.AuditStatus)
	assert.Equal(t, contracts.ActionExecutedAsPlanned, res.Action)
	assert.Len(t, res.VotesDisplay, 3)

	_, err := store.Get(t.Context(), "athlete-1", "2024-05-06")
	assert.NoError(t, err)

	w = do(t, h, http.MethodPost, "/v1/users/athlete-1/decisions/2024-05-06", decisionBody)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.True(t, res.FromCache)
}

func TestHandleDecide_AuditPending(t *testing.T) {
	s, _ := newTestServer(t, coach.Options{})
	body := `{"workout": {"type": "RUN", "primary_zone": 2, "duration_minutes": 40}, "last_lift_date": "2024-05-04"}`

	w := do(t, s.Routes(), http.MethodPost, "/v1/users/athlete-1/decisions/2024-05-06", body)
	require.Equal(t, http.StatusOK, w.Code)

	var res coach.DailyResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, contracts.AuditPending, res.AuditStatus)
	assert.Equal(t, []string{"niggle_score"}, res.MissingInputs)
	assert.Nil(t, res.FinalWorkout)
}

func TestHandleDecide_BadInput(t *testing.T) {
	s, _ := newTestServer(t, coach.Options{})
	h := s.Routes()

	w := do(t, h, http.MethodPost, "/v1/users/athlete-1/decisions/06-05-2024", decisionBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	w = do(t, h, http.MethodPost, "/v1/users/athlete-1/decisions/2024-05-06", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/v1/users/athlete-1/decisions/2024-05-06", `{"workout": {"type": "KAYAK"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDecide_NoPhase(t *testing.T) {
	cal, err := phase.Parse([]byte(`blocks:
  - start: "2024-01-01"
    end: "2024-02-01"
    phase_number: 1
    max_allowed_zone: 3
`))
	require.NoError(t, err)
	s, _ := newTestServer(t, coach.Options{Calendar: cal})

	w := do(t, s.Routes(), http.MethodPost, "/v1/users/athlete-1/decisions/2024-05-06", decisionBody)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleInvalidateAndProfileChange(t *testing.T) {
	s, store := newTestServer(t, coach.Options{})
	h := s.Routes()

	for _, d := range []string{"2024-05-05", "2024-05-06", "2024-05-07"} {
		w := do(t, h, http.MethodPost, "/v1/users/athlete-1/decisions/"+d, decisionBody)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(t, h, http.MethodDelete, "/v1/users/athlete-1/decisions/2024-05-05", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, err := store.Get(t.Context(), "athlete-1", "2024-05-05")
	assert.ErrorIs(t, err, contracts.ErrSnapshotNotFound)

	w = do(t, h, http.MethodPost, "/v1/users/athlete-1/profile-changes", `{"today": "2024-05-06"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp ProfileChangeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Deleted)

	w = do(t, h, http.MethodPost, "/v1/users/athlete-1/profile-changes", `{"today": "tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleLedgerAndHealth(t *testing.T) {
	s, _ := newTestServer(t, coach.Options{})
	h := s.Routes()

	w := do(t, h, http.MethodPost, "/v1/users/athlete-1/decisions/2024-05-06", decisionBody)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/v1/ledger", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st LedgerStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))
	assert.Equal(t, 1, st.Entries)
	assert.True(t, st.Verified)
	assert.NotEmpty(t, st.Head)

	w = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}
