package workflow

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
)

func newMux(t *testing.T) (*http.ServeMux, *memStore) {
	t.Helper()
	e, store := newEngine(t)
	h := NewHandler(e, zap.NewNop().Sugar())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/requests/{kind}", h.Submit)
	mux.HandleFunc("GET /api/requests/{kind}", h.ListPending)
	mux.HandleFunc("PUT /api/requests/{kind}/{id}/approve", h.Approve)
	mux.HandleFunc("PUT /api/requests/{kind}/{id}/reject", h.Reject)
	return mux, store
}

func do(mux http.Handler, method, path, body string, p *auth.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHandler_RegistrationRoundTrip(t *testing.T) {
	mux, _ := newMux(t)

	rec := do(mux, http.MethodPost, "/api/requests/registration",
		`{"full_name":"Nueva","email":"new@example.com","house_number":"12","password":"12345678"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.NotContains(t, rec.Body.String(), "credential")
	var req entity.Request
	require.NoError(t, json.Unmarshal(env.Data, &req))

	rec = do(mux, http.MethodGet, "/api/requests/registration", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), req.ID)

	rec = do(mux, http.MethodPut, "/api/requests/registration/"+req.ID+"/approve", "", admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"state":"aprobada"`)

	rec = do(mux, http.MethodPut, "/api/requests/registration/"+req.ID+"/approve", `{"comentario":"otra vez"}`, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "la solicitud ya fue procesada", decodeEnvelope(t, rec).Message)
}

func TestHandler_StatusCodes(t *testing.T) {
	mux, _ := newMux(t)

	rec := do(mux, http.MethodPost, "/api/requests/transfer", `{}`, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(mux, http.MethodPost, "/api/requests/deactivation", `{"account_id":12,"motivo":"corto"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPost, "/api/requests/deactivation", `{"account_id":12,"motivo":"se mudó de casa","x":1}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPost, "/api/requests/role-change", `{"account_id":12,"new_role":"administrador","motivo":"lleva años ayudando"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(mux, http.MethodGet, "/api/requests/role-change", "", ana)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(mux, http.MethodPut, "/api/requests/role-change/none/approve", "", admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_GateRunsBeforeBodyDecode(t *testing.T) {
	mux, store := newMux(t)

	rec := do(mux, http.MethodPost, "/api/requests/info-edit", `{not json`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(mux, http.MethodPut, "/api/requests/deactivation/req-001/reject", `{not json`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(mux, http.MethodPut, "/api/requests/deactivation/req-001/approve", `{not json`, ana)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// public kinds still validate the body
	rec = do(mux, http.MethodPost, "/api/requests/registration", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPut, "/api/requests/deactivation/req-001/reject", `{not json`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.snapshot().requests)
}

func TestHandler_RejectNeedsMotivo(t *testing.T) {
	mux, store := newMux(t)

	rec := do(mux, http.MethodPost, "/api/requests/deactivation", `{"account_id":12,"motivo":"se mudó de casa"}`, marta)
	require.Equal(t, http.StatusCreated, rec.Code)
	var req entity.Request
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &req))

	rec = do(mux, http.MethodPut, "/api/requests/deactivation/"+req.ID+"/reject", `{"motivo":"no"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPut, "/api/requests/deactivation/"+req.ID+"/reject", `{"motivo":"la cuenta sigue en uso"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.StateRechazada, store.snapshot().requests[req.ID].State)
}
