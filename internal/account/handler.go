package account

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/respond"
)

// Handler exposes the session and account directory endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token for rotation or logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	pair, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debugw("login failed", "err", err)
		respond.Error(w, r, h.logger, err)
		return
	}
	h.logger.Infow("login", "account_id", pair.Account.ID)
	respond.OK(w, http.StatusOK, "sesión iniciada", pair)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusOK, "sesión renovada", pair)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if err := h.svc.Logout(r.Context(), req.RefreshToken); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusOK, "sesión cerrada", nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	acc, err := h.svc.Me(r.Context(), p.AccountID)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusOK, "ok", acc)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusOK, "ok", list)
}
