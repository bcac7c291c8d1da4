package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/peerchamps/peerchamps/internal/advocates"
	"github.com/peerchamps/peerchamps/internal/audit"
	"github.com/peerchamps/peerchamps/internal/auth"
	"github.com/peerchamps/peerchamps/internal/calls"
	"github.com/peerchamps/peerchamps/internal/identity"
	"github.com/peerchamps/peerchamps/internal/observability"
	"github.com/peerchamps/peerchamps/internal/opportunities"
	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/rewards"
	"github.com/peerchamps/peerchamps/internal/shared"
	"github.com/peerchamps/peerchamps/internal/tenants"
	"github.com/peerchamps/peerchamps/internal/users"
	"github.com/peerchamps/peerchamps/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Identity       *identity.Resolvers

	AuthHandler          *auth.Handler
	TenantsHandler       *tenants.Handler
	UsersHandler         *users.Handler
	AdvocatesHandler     *advocates.Handler
	OpportunitiesHandler *opportunities.Handler
	CallsHandler         *calls.Handler
	RewardsHandler       *rewards.Handler
	AuditHandler         *audit.Handler
	JobHandler           *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with PeerChamps defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Identity:       params.Identity,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.TenantsHandler != nil {
		r.Route("/companies", params.TenantsHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.AdvocatesHandler != nil {
		r.Route("/advocates", params.AdvocatesHandler.MountRoutes)
	}
	if params.OpportunitiesHandler != nil {
		r.Route("/opportunities", params.OpportunitiesHandler.MountRoutes)
	}
	if params.CallsHandler != nil {
		r.Route("/calls", params.CallsHandler.MountRoutes)
	}
	if params.RewardsHandler != nil {
		r.Route("/rewards", params.RewardsHandler.MountRoutes)
	}
	if params.AuditHandler != nil {
		r.Route("/audit", params.AuditHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
