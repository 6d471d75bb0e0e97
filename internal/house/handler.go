package house

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/respond"
)

// Handler exposes house listing and administration.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type CreateRequest struct {
	HouseNumber   string `json:"house_number"`
	PaymentStatus string `json:"payment_status"`
}

type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusOK, "ok", list)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	p := auth.FromContext(r.Context())
	out, err := h.svc.Create(r.Context(), p.ID(), req.HouseNumber, req.PaymentStatus)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	h.logger.Infow("house created", "house_id", out.ID, "actor", p.AccountID)
	respond.OK(w, http.StatusCreated, "vivienda registrada", out)
}

func (h *Handler) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, r, h.logger, apperr.Validation("id de vivienda inválido"))
		return
	}
	var req PaymentStatusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	p := auth.FromContext(r.Context())
	out, err := h.svc.SetPaymentStatus(r.Context(), p.ID(), id, req.PaymentStatus)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	h.logger.Infow("payment status updated", "house_id", id, "status", out.PaymentStatus, "actor", p.AccountID)
	respond.OK(w, http.StatusOK, "estado de pago actualizado", out)
}
