package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/peerchamps/peerchamps/internal/identity"
	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/rbac"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// Handler wires HTTP endpoints for user management.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequirePermission(rbac.ActionRead, rbac.ResourceUsers)).Get("/", h.list)
	r.With(h.rbac.RequirePermission(rbac.ActionRead, rbac.ResourceUsers)).Get("/{userID}", h.get)
	r.With(h.rbac.RequirePermission(rbac.ActionUpdate, rbac.ResourceUsers)).Put("/{userID}/role", h.assignRole)
	r.With(h.rbac.RequirePermission(rbac.ActionUpdate, rbac.ResourceUsers)).Post("/{userID}/deactivate", h.deactivate)
	r.With(h.rbac.RequirePermission(rbac.ActionUpdate, rbac.ResourceUsers)).Post("/{userID}/activate", h.activate)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ic := identity.FromContext(r.Context())
	companyID, ok := ic.TenantID()
	if rbac.HasRole(ic.Role, rbac.RoleAdmin) {
		if raw := r.URL.Query().Get("company_id"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "company_id must be numeric")
				return
			}
			companyID, ok = parsed, true
		}
	}
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Access Denied", "no tenant resolved")
		return
	}

	users, err := h.service.ListForTenant(r.Context(), companyID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "user id must be numeric")
		return
	}
	ic := identity.FromContext(r.Context())
	companyID, _ := ic.TenantID()
	user, err := h.service.Get(r.Context(), id, companyID, rbac.HasRole(ic.Role, rbac.RoleAdmin))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "user id must be numeric")
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	ic := identity.FromContext(r.Context())
	user, err := h.service.AssignRole(r.Context(), h.actorID(ic), id, req.Role)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.toggleActive(w, r, false)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	h.toggleActive(w, r, true)
}

func (h *Handler) toggleActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "user id must be numeric")
		return
	}
	ic := identity.FromContext(r.Context())
	if active {
		err = h.service.Activate(r.Context(), h.actorID(ic), id)
	} else {
		err = h.service.Deactivate(r.Context(), h.actorID(ic), id)
	}
	if err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) actorID(ic identity.Context) int64 {
	if ic.Principal == nil {
		return 0
	}
	return ic.Principal.ID
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	}
	httpx.RespondError(w, err)
}
