package opportunities

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

// Handler wires HTTP endpoints for opportunities.
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

// MountRoutes registers opportunity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequirePermission(rbac.ActionRead, rbac.ResourceOpportunities)).Get("/", h.list)
	r.With(h.rbac.RequirePermission(rbac.ActionRead, rbac.ResourceOpportunities)).Get("/{oppID}", h.get)
	r.With(h.rbac.RequirePermission(rbac.ActionCreate, rbac.ResourceOpportunities)).Post("/", h.create)
	r.With(h.rbac.RequirePermission(rbac.ActionUpdate, rbac.ResourceOpportunities)).Put("/{oppID}", h.update)
}

type opportunityRequest struct {
	AccountName string  `json:"account_name" validate:"required"`
	Stage       string  `json:"stage"`
	Amount      float64 `json:"amount"`
	CloseDate   string  `json:"close_date"`
}

func (req opportunityRequest) closeDate() (*time.Time, error) {
	if req.CloseDate == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", req.CloseDate)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ic := identity.FromContext(r.Context())
	companyID, ok := ic.TenantID()
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Access Denied", "no tenant resolved")
		return
	}
	opps, err := h.service.ListForTenant(r.Context(), companyID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"opportunities": opps})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "oppID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "opportunity id must be numeric")
		return
	}
	ic := identity.FromContext(r.Context())
	companyID, _ := ic.TenantID()
	opp, err := h.service.Get(r.Context(), id, companyID, rbac.HasRole(ic.Role, rbac.RoleAdmin))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, opp)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req opportunityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	closeDate, err := req.closeDate()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "close_date must be YYYY-MM-DD")
		return
	}
	ic := identity.FromContext(r.Context())
	companyID, ok := ic.TenantID()
	if !ok || ic.Principal == nil {
		httpx.Problem(w, http.StatusForbidden, "Access Denied", "no tenant resolved")
		return
	}
	opp, err := h.service.Create(r.Context(), Opportunity{
		CompanyID:   companyID,
		OwnerID:     ic.Principal.ID,
		AccountName: req.AccountName,
		Stage:       req.Stage,
		Amount:      req.Amount,
		CloseDate:   closeDate,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, opp)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "oppID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "opportunity id must be numeric")
		return
	}
	var req opportunityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	closeDate, err := req.closeDate()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "close_date must be YYYY-MM-DD")
		return
	}
	ic := identity.FromContext(r.Context())
	companyID, _ := ic.TenantID()
	opp := Opportunity{
		ID:          id,
		AccountName: req.AccountName,
		Stage:       req.Stage,
		Amount:      req.Amount,
		CloseDate:   closeDate,
	}
	if err := h.service.Update(r.Context(), opp, companyID, rbac.HasRole(ic.Role, rbac.RoleAdmin)); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	}
	httpx.RespondError(w, err)
}
