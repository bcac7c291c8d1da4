package advocates

import (
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

// Handler wires HTTP endpoints for advocates and their availability.
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

// MountRoutes registers advocate routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequirePermission(rbac.ActionRead, rbac.ResourceAdvocates)).Get("/", h.list)
	r.With(h.rbac.RequirePermission(rbac.ActionRead, rbac.ResourceAdvocates)).Get("/{advocateID}", h.get)
	r.With(h.rbac.RequirePermission(rbac.ActionCreate, rbac.ResourceAdvocates)).Post("/", h.create)
	r.With(h.rbac.RequirePermission(rbac.ActionUpdate, rbac.ResourceAdvocates)).Put("/{advocateID}", h.update)

	r.With(h.rbac.RequirePermission(rbac.ActionRead, rbac.ResourceAvailability)).Get("/{advocateID}/availability", h.windows)
	r.With(h.rbac.RequirePermission(rbac.ActionUpdate, rbac.ResourceAvailability)).Put("/{advocateID}/availability", h.setWindows)
	r.With(h.rbac.RequirePermission(rbac.ActionRead, rbac.ResourceAvailability)).Get("/{advocateID}/slots", h.slots)
}

type advocateRequest struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name" validate:"required"`
	Title     string `json:"title"`
	AccountID string `json:"account_id"`
	Timezone  string `json:"timezone" validate:"required"`
	IsActive  *bool  `json:"is_active"`
}

type windowRequest struct {
	Weekday     int `json:"weekday"`
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ic := identity.FromContext(r.Context())
	companyID, ok := ic.TenantID()
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Access Denied", "no tenant resolved")
		return
	}
	advocates, err := h.service.ListForTenant(r.Context(), companyID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"advocates": advocates})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.advocateID(w, r)
	if !ok {
		return
	}
	ic := identity.FromContext(r.Context())
	companyID, _ := ic.TenantID()
	advocate, err := h.service.Get(r.Context(), id, companyID, rbac.HasRole(ic.Role, rbac.RoleAdmin))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, advocate)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req advocateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ic := identity.FromContext(r.Context())
	companyID, ok := ic.TenantID()
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Access Denied", "no tenant resolved")
		return
	}
	advocate, err := h.service.Create(r.Context(), Advocate{
		CompanyID: companyID,
		UserID:    req.UserID,
		Name:      req.Name,
		Title:     req.Title,
		AccountID: req.AccountID,
		Timezone:  req.Timezone,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, advocate)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.advocateID(w, r)
	if !ok {
		return
	}
	var req advocateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	ic := identity.FromContext(r.Context())
	companyID, _ := ic.TenantID()
	current, err := h.service.Get(r.Context(), id, companyID, rbac.HasRole(ic.Role, rbac.RoleAdmin))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	current.Name = req.Name
	current.Title = req.Title
	current.AccountID = req.AccountID
	current.Timezone = req.Timezone
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}
	if err := h.service.Update(r.Context(), current); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, current)
}

func (h *Handler) windows(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scopedAdvocateID(w, r)
	if !ok {
		return
	}
	windows, err := h.service.Windows(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"windows": windows})
}

func (h *Handler) setWindows(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scopedAdvocateID(w, r)
	if !ok {
		return
	}
	var reqs []windowRequest
	if err := httpx.DecodeJSON(r, &reqs); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	windows := make([]AvailabilityWindow, 0, len(reqs))
	for _, req := range reqs {
		windows = append(windows, AvailabilityWindow{
			AdvocateID:  id,
			Weekday:     time.Weekday(req.Weekday),
			StartMinute: req.StartMinute,
			EndMinute:   req.EndMinute,
		})
	}
	if err := h.service.SetWindows(r.Context(), id, windows); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) slots(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scopedAdvocateID(w, r)
	if !ok {
		return
	}
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "from must be RFC3339")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "to must be RFC3339")
		return
	}
	slots, err := h.service.Slots(r.Context(), id, from, to)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (h *Handler) advocateID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "advocateID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "advocate id must be numeric")
		return 0, false
	}
	return id, true
}

// scopedAdvocateID parses the ID and verifies the advocate belongs to the
// caller's tenant before any availability read or write.
func (h *Handler) scopedAdvocateID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := h.advocateID(w, r)
	if !ok {
		return 0, false
	}
	ic := identity.FromContext(r.Context())
	companyID, _ := ic.TenantID()
	if _, err := h.service.Get(r.Context(), id, companyID, rbac.HasRole(ic.Role, rbac.RoleAdmin)); err != nil {
		h.respondErr(w, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	}
	httpx.RespondError(w, err)
}
