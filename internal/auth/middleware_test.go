package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

type stubLoader map[int64]*entity.Account

func (s stubLoader) GetByID(ctx context.Context, id int64) (*entity.Account, error) {
	if a, ok := s[id]; ok {
		return a, nil
	}
	return nil, apperr.NotFound("cuenta no encontrada")
}

func setupMiddleware(t *testing.T) (*TokenIssuer, http.Handler) {
	t.Helper()
	house := int64(12)
	loader := stubLoader{
		1: {ID: 1, RoleName: "administrador", Status: entity.StatusActive, HouseID: &house},
		2: {ID: 2, RoleName: "vecino", Status: entity.StatusSuspended},
	}
	tokens := NewTokenIssuer("middleware-secret-0123", time.Minute)
	logger := zap.NewNop().Sugar()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /whoami", func(w http.ResponseWriter, r *http.Request) {
		p := FromContext(r.Context())
		if p == nil {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(p.Role))
	})
	mux.HandleFunc("GET /review", Require(OpReviewRequests, logger, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	return tokens, Authenticate(tokens, loader, logger)(mux)
}

func do(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_AnonymousPassesThrough(t *testing.T) {
	_, h := setupMiddleware(t)

	rec := do(h, "/whoami", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestAuthenticate_ValidTokenHydratesPrincipal(t *testing.T) {
	tokens, h := setupMiddleware(t)
	tok, err := tokens.Issue(1, "vecino")
	require.NoError(t, err)

	rec := do(h, "/whoami", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "administrador", rec.Body.String(), "role comes from the account, not the token")
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	_, h := setupMiddleware(t)

	rec := do(h, "/whoami", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_SuspendedAccount(t *testing.T) {
	tokens, h := setupMiddleware(t)
	tok, err := tokens.Issue(2, "vecino")
	require.NoError(t, err)

	rec := do(h, "/whoami", tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_UnknownAccount(t *testing.T) {
	tokens, h := setupMiddleware(t)
	tok, err := tokens.Issue(99, "vecino")
	require.NoError(t, err)

	rec := do(h, "/whoami", tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequire_AnonymousAndAuthorized(t *testing.T) {
	tokens, h := setupMiddleware(t)

	assert.Equal(t, http.StatusUnauthorized, do(h, "/review", "").Code)

	tok, err := tokens.Issue(1, "administrador")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, do(h, "/review", tok).Code)
}
