package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

func TestError_TaxonomyMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	Error(rec, req, zap.NewNop().Sugar(), apperr.Conflict("la solicitud ya fue procesada"))

	require.Equal(t, http.StatusConflict, rec.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "la solicitud ya fue procesada", env.Message)
}

func TestError_InternalIsElided(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	Error(rec, req, zap.NewNop().Sugar(), errors.New("pq: password authentication failed"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
	assert.Contains(t, rec.Body.String(), apperr.InternalMessage)
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"motivo":"x","extra":1}`))
	var dst struct {
		Motivo string `json:"motivo"`
	}
	err := Decode(req, &dst)
	require.ErrorIs(t, err, apperr.ErrValidation)
}
