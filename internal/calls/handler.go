package calls

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/peerchamps/peerchamps/internal/identity"
	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/rbac"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// Handler wires HTTP endpoints for reference calls.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW, validator: validator.New()}
}

// MountRoutes registers call routes. Advocates can read and update their
// calls, reps book and manage them.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequirePermission(rbac.ActionRead, rbac.ResourceCalls)).Get("/", h.list)
	r.With(h.rbac.RequirePermission(rbac.ActionRead, rbac.ResourceCalls)).Get("/{callID}", h.get)
	r.With(h.rbac.RequirePermission(rbac.ActionCreate, rbac.ResourceCalls)).Post("/", h.book)
	r.With(h.rbac.RequirePermission(rbac.ActionUpdate, rbac.ResourceCalls)).Post("/{callID}/complete", h.complete)
	r.With(h.rbac.RequirePermission(rbac.ActionUpdate, rbac.ResourceCalls)).Post("/{callID}/cancel", h.cancel)
}

type bookRequest struct {
	OpportunityID int64  `json:"opportunity_id" validate:"required,gt=0"`
	AdvocateID    int64  `json:"advocate_id" validate:"required,gt=0"`
	ScheduledAt   string `json:"scheduled_at" validate:"required"`
	DurationMin   int    `json:"duration_min" validate:"required"`
	Notes         string `json:"notes"`
}

type statusRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ic := identity.FromContext(r.Context())
	companyID, ok := ic.TenantID()
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Access Denied", "no tenant resolved")
		return
	}
	out, err := h.service.ListForTenant(r.Context(), companyID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"calls": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "callID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "call id must be numeric")
		return
	}
	ic := identity.FromContext(r.Context())
	companyID, _ := ic.TenantID()
	call, err := h.service.Get(r.Context(), id, companyID, rbac.HasRole(ic.Role, rbac.RoleAdmin))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, call)
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "scheduled_at must be RFC3339")
		return
	}
	ic := identity.FromContext(r.Context())
	companyID, ok := ic.TenantID()
	if !ok || ic.Principal == nil {
		httpx.Problem(w, http.StatusForbidden, "Access Denied", "no tenant resolved")
		return
	}
	call, err := h.service.Book(r.Context(), BookInput{
		CompanyID:     companyID,
		OpportunityID: req.OpportunityID,
		AdvocateID:    req.AdvocateID,
		RequestedBy:   ic.Principal.ID,
		ScheduledAt:   scheduledAt,
		DurationMin:   req.DurationMin,
		Notes:         req.Notes,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, call)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

type transitionFn func(ctx context.Context, id, actorID, callerCompanyID int64, callerIsAdmin bool, notes string) (ReferenceCall, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFn) {
	id, err := strconv.ParseInt(chi.URLParam(r, "callID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "call id must be numeric")
		return
	}
	var req statusRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
			return
		}
	}
	ic := identity.FromContext(r.Context())
	companyID, ok := ic.TenantID()
	if !ok || ic.Principal == nil {
		httpx.Problem(w, http.StatusForbidden, "Access Denied", "no tenant resolved")
		return
	}
	call, err := fn(r.Context(), id, ic.Principal.ID, companyID, rbac.HasRole(ic.Role, rbac.RoleAdmin), req.Notes)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, call)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	}
	httpx.RespondError(w, err)
}
