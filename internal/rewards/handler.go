package rewards

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/peerchamps/peerchamps/internal/identity"
	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/rbac"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// Handler wires HTTP endpoints for the reward ledger.
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

// MountRoutes registers reward routes. Advocates may only see and spend
// their own ledger; admins see every advocate in the tenant.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequirePermission(rbac.ActionRead, rbac.ResourceRewards)).Get("/advocates/{advocateID}", h.list)
	r.With(h.rbac.RequirePermission(rbac.ActionRead, rbac.ResourceRewards)).Get("/advocates/{advocateID}/balance", h.balance)
	r.With(h.rbac.RequirePermission(rbac.ActionRedeem, rbac.ResourceRewards)).Post("/redeem", h.redeem)
}

type redeemRequest struct {
	AdvocateID int64  `json:"advocate_id"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
	Kind       string `json:"kind" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	advocateID, ic, ok := h.scopedAdvocateID(w, r)
	if !ok {
		return
	}
	companyID, _ := ic.TenantID()
	out, err := h.service.ListForAdvocate(r.Context(), advocateID, companyID, rbac.HasRole(ic.Role, rbac.RoleAdmin))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rewards": out})
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	advocateID, ic, ok := h.scopedAdvocateID(w, r)
	if !ok {
		return
	}
	companyID, _ := ic.TenantID()
	b, err := h.service.BalanceFor(r.Context(), advocateID, companyID, rbac.HasRole(ic.Role, rbac.RoleAdmin))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
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
	if !ok || ic.Principal == nil {
		httpx.Problem(w, http.StatusForbidden, "Access Denied", "no tenant resolved")
		return
	}

	advocateID := req.AdvocateID
	if rbac.HasRole(ic.Role, rbac.RoleAdvocate) {
		own, err := h.service.AdvocateForUser(r.Context(), ic.Principal.ID)
		if err != nil {
			h.respondErr(w, err)
			return
		}
		if advocateID != 0 && advocateID != own {
			httpx.Problem(w, http.StatusForbidden, "Access Denied", "advocates may only redeem their own rewards")
			return
		}
		advocateID = own
	}
	if advocateID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "advocate_id is required")
		return
	}

	red, err := h.service.Redeem(r.Context(), ic.Principal.ID, advocateID, companyID, rbac.HasRole(ic.Role, rbac.RoleAdmin), req.Amount, req.Kind)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, red)
}

// scopedAdvocateID parses the path id and, for advocate-role callers,
// rejects ids that are not their own profile.
func (h *Handler) scopedAdvocateID(w http.ResponseWriter, r *http.Request) (int64, identity.Context, bool) {
	ic := identity.FromContext(r.Context())
	advocateID, err := strconv.ParseInt(chi.URLParam(r, "advocateID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "advocate id must be numeric")
		return 0, ic, false
	}
	if _, ok := ic.TenantID(); !ok || ic.Principal == nil {
		httpx.Problem(w, http.StatusForbidden, "Access Denied", "no tenant resolved")
		return 0, ic, false
	}
	if rbac.HasRole(ic.Role, rbac.RoleAdvocate) {
		own, err := h.service.AdvocateForUser(r.Context(), ic.Principal.ID)
		if err != nil {
			h.respondErr(w, err)
			return 0, ic, false
		}
		if advocateID != own {
			httpx.Problem(w, http.StatusForbidden, "Access Denied", "advocates may only view their own rewards")
			return 0, ic, false
		}
	}
	return advocateID, ic, true
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	}
	httpx.RespondError(w, err)
}
