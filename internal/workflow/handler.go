package workflow

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/respond"
)

// Handler exposes /api/requests/{kind}. The operation gate runs before the
// body is read; target rules are left to the engine.
type Handler struct {
	engine *Engine
	logger *zap.SugaredLogger
}

func NewHandler(engine *Engine, logger *zap.SugaredLogger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

type ApproveBody struct {
	Comentario string `json:"comentario"`
}

type RejectBody struct {
	Motivo string `json:"motivo"`
}

func (h *Handler) kind(r *http.Request) (entity.Kind, error) {
	k, ok := entity.ParseKind(r.PathValue("kind"))
	if !ok {
		return "", apperr.NotFound("tipo de solicitud desconocido")
	}
	return k, nil
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	kind, err := h.kind(r)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	d, err := h.engine.Descriptor(kind)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	p := auth.FromContext(r.Context())
	if err := auth.Allow(p, d.SubmitOp()); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	in := d.NewInput()
	if err := respond.Decode(r, in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	req, err := h.engine.Submit(r.Context(), kind, in, p)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusCreated, "solicitud enviada", req)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	kind, err := h.kind(r)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	list, err := h.engine.ListPending(r.Context(), kind, auth.FromContext(r.Context()))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusOK, "ok", list)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, Approve, "solicitud aprobada", func() (string, error) {
		var body ApproveBody
		err := decodeOptional(r, &body)
		return body.Comentario, err
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, Reject, "solicitud rechazada", func() (string, error) {
		var body RejectBody
		err := respond.Decode(r, &body)
		return body.Motivo, err
	})
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, decision Decision, message string, comment func() (string, error)) {
	kind, err := h.kind(r)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	p := auth.FromContext(r.Context())
	if err := auth.Allow(p, auth.OpReviewRequests); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	text, err := comment()
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	req, err := h.engine.Review(r.Context(), kind, r.PathValue("id"), decision, p, text)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusOK, message, req)
}

// decodeOptional is respond.Decode for bodies that may be empty.
func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Wrap(apperr.ErrValidation, "cuerpo de la petición inválido", err)
	}
	return nil
}
