package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/respond"
)

// AccountLoader fetches the current state of an account.
type AccountLoader interface {
	GetByID(ctx context.Context, id int64) (*entity.Account, error)
}

// Authenticate parses an optional bearer token. Requests without an
// Authorization header continue anonymously; a present but invalid token,
// or one for an account that is no longer active, is rejected with 401.
func Authenticate(tokens *TokenIssuer, accounts AccountLoader, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				respond.Error(w, r, logger, apperr.Authentication("se requiere un token Bearer"))
				return
			}
			id, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				respond.Error(w, r, logger, err)
				return
			}
			acc, err := accounts.GetByID(r.Context(), id)
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					err = apperr.Authentication("sesión inválida o expirada")
				}
				respond.Error(w, r, logger, err)
				return
			}
			if acc.Status != entity.StatusActive {
				respond.Error(w, r, logger, apperr.Authentication("la cuenta no está activa"))
				return
			}
			p := &Principal{AccountID: acc.ID, Role: acc.RoleName, HouseID: acc.HouseID}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// Require wraps h so it only runs when Allow admits the caller for op.
func Require(op Operation, logger *zap.SugaredLogger, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := Allow(FromContext(r.Context()), op); err != nil {
			respond.Error(w, r, logger, err)
			return
		}
		h(w, r)
	}
}
