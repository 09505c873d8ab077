package clinic

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol"
	"github.com/Captainsparrow404/neuvii-backend/internal/transport"
)

// ServiceAPI defines the clinic operations exposed over HTTP
type ServiceAPI interface {
	CreateClinic(ctx context.Context, actor *accesscontrol.Actor, dto CreateClinicDTO) (*View, error)
	GetClinic(actor *accesscontrol.Actor, id int64) (*View, error)
	ListClinics(actor *accesscontrol.Actor, limit, offset int) ([]View, error)
	UpdateClinic(actor *accesscontrol.Actor, id int64, dto UpdateClinicDTO) (*View, error)
	DeleteClinic(actor *accesscontrol.Actor, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Service:     svc,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor := internal.ActorFromContext(r.Context())
	if actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto CreateClinicDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.Service.CreateClinic(r.Context(), actor, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, view)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor := internal.ActorFromContext(r.Context())
	if actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := parseID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	view, err := h.Service.GetClinic(actor, id)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor := internal.ActorFromContext(r.Context())
	if actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, offset := transport.Pagination(r)
	views, err := h.Service.ListClinics(actor, limit, offset)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"clinics": views})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor := internal.ActorFromContext(r.Context())
	if actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := parseID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var dto UpdateClinicDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.Service.UpdateClinic(actor, id, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := internal.ActorFromContext(r.Context())
	if actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := parseID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.Service.DeleteClinic(actor, id); err != nil {
		h.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError("id", "invalid clinic ID", internal.ErrCodeValidationFailed)
	}
	return id, nil
}
