package therapy

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

// ServiceAPI defines the caseload operations exposed over HTTP
type ServiceAPI interface {
	CreateTherapist(ctx context.Context, actor *accesscontrol.Actor, dto CreateTherapistDTO) (*TherapistProfile, error)
	GetTherapist(actor *accesscontrol.Actor, id int64) (*TherapistProfile, error)
	ListTherapists(actor *accesscontrol.Actor, limit, offset int) ([]*TherapistProfile, error)
	UpdateTherapist(actor *accesscontrol.Actor, id int64, dto UpdateTherapistDTO) (*TherapistProfile, error)
	DeleteTherapist(actor *accesscontrol.Actor, id int64) error

	CreateParent(ctx context.Context, actor *accesscontrol.Actor, dto CreateParentDTO) (*ParentProfile, error)
	GetParent(actor *accesscontrol.Actor, id int64) (*ParentProfile, error)
	ListParents(actor *accesscontrol.Actor, limit, offset int) ([]*ParentProfile, error)
	UpdateParent(actor *accesscontrol.Actor, id int64, dto UpdateParentDTO) (*ParentProfile, error)
	DeleteParent(actor *accesscontrol.Actor, id int64) error

	CreateChild(actor *accesscontrol.Actor, dto CreateChildDTO) (*Child, error)
	GetChild(actor *accesscontrol.Actor, id int64) (*Child, error)
	ListChildren(actor *accesscontrol.Actor, limit, offset int) ([]*Child, error)
	UpdateChild(actor *accesscontrol.Actor, id int64, dto UpdateChildDTO) (*Child, error)
	DeleteChild(actor *accesscontrol.Actor, id int64) error

	CreateGoal(actor *accesscontrol.Actor, dto CreateGoalDTO) (*Goal, error)
	GetGoal(actor *accesscontrol.Actor, id int64) (*Goal, error)
	ListGoals(actor *accesscontrol.Actor, childID int64, limit, offset int) ([]*Goal, error)
	UpdateGoal(actor *accesscontrol.Actor, id int64, dto UpdateGoalDTO) (*Goal, error)
	DeleteGoal(actor *accesscontrol.Actor, id int64) error

	CreateTask(actor *accesscontrol.Actor, dto CreateTaskDTO) (*Task, error)
	GetTask(actor *accesscontrol.Actor, id int64) (*Task, error)
	ListTasks(actor *accesscontrol.Actor, goalID int64, limit, offset int) ([]*Task, error)
	UpdateTask(actor *accesscontrol.Actor, id int64, dto UpdateTaskDTO) (*Task, error)
	DeleteTask(actor *accesscontrol.Actor, id int64) error

	CreateAssignment(actor *accesscontrol.Actor, dto CreateAssignmentDTO) (*Assignment, error)
	GetAssignment(actor *accesscontrol.Actor, id int64) (*Assignment, error)
	ListAssignments(actor *accesscontrol.Actor, childID int64, limit, offset int) ([]*Assignment, error)
	UpdateAssignment(actor *accesscontrol.Actor, id int64, dto UpdateAssignmentDTO) (*Assignment, error)
	DeleteAssignment(actor *accesscontrol.Actor, id int64) error
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

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) *accesscontrol.Actor {
	actor := internal.ActorFromContext(r.Context())
	if actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
	}
	return actor
}

func urlID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError("id", "invalid ID", internal.ErrCodeValidationFailed)
	}
	return id, nil
}

func queryID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return id
}

// Therapists

func (h *Handler) CreateTherapist(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	var dto CreateTherapistDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.Service.CreateTherapist(r.Context(), actor, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) GetTherapist(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	t, err := h.Service.GetTherapist(actor, id)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) ListTherapists(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	limit, offset := transport.Pagination(r)
	rows, err := h.Service.ListTherapists(actor, limit, offset)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"therapists": rows})
}

func (h *Handler) UpdateTherapist(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	var dto UpdateTherapistDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.Service.UpdateTherapist(actor, id, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTherapist(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	if err := h.Service.DeleteTherapist(actor, id); err != nil {
		h.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Parents

func (h *Handler) CreateParent(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	var dto CreateParentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.Service.CreateParent(r.Context(), actor, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetParent(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	p, err := h.Service.GetParent(actor, id)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) ListParents(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	limit, offset := transport.Pagination(r)
	rows, err := h.Service.ListParents(actor, limit, offset)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"parents": rows})
}

func (h *Handler) UpdateParent(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	var dto UpdateParentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.Service.UpdateParent(actor, id, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteParent(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	if err := h.Service.DeleteParent(actor, id); err != nil {
		h.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Children

func (h *Handler) CreateChild(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	var dto CreateChildDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.Service.CreateChild(actor, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetChild(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	c, err := h.Service.GetChild(actor, id)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) ListChildren(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	limit, offset := transport.Pagination(r)
	rows, err := h.Service.ListChildren(actor, limit, offset)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"children": rows})
}

func (h *Handler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	var dto UpdateChildDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.Service.UpdateChild(actor, id, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	if err := h.Service.DeleteChild(actor, id); err != nil {
		h.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Goals

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	var dto CreateGoalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	g, err := h.Service.CreateGoal(actor, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, g)
}

func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	g, err := h.Service.GetGoal(actor, id)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	limit, offset := transport.Pagination(r)
	rows, err := h.Service.ListGoals(actor, queryID(r, "child_id"), limit, offset)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"goals": rows})
}

func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	var dto UpdateGoalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	g, err := h.Service.UpdateGoal(actor, id, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	if err := h.Service.DeleteGoal(actor, id); err != nil {
		h.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tasks

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	var dto CreateTaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.Service.CreateTask(actor, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	t, err := h.Service.GetTask(actor, id)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	limit, offset := transport.Pagination(r)
	rows, err := h.Service.ListTasks(actor, queryID(r, "goal_id"), limit, offset)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"tasks": rows})
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	var dto UpdateTaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.Service.UpdateTask(actor, id, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	if err := h.Service.DeleteTask(actor, id); err != nil {
		h.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Assignments

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	var dto CreateAssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := h.Service.CreateAssignment(actor, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	a, err := h.Service.GetAssignment(actor, id)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	limit, offset := transport.Pagination(r)
	rows, err := h.Service.ListAssignments(actor, queryID(r, "child_id"), limit, offset)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"assignments": rows})
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	var dto UpdateAssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := h.Service.UpdateAssignment(actor, id, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, err := urlID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	if err := h.Service.DeleteAssignment(actor, id); err != nil {
		h.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
