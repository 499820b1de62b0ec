package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/academe-sis/academe/internal/auth"
	"github.com/academe-sis/academe/internal/catalog"
	"github.com/academe-sis/academe/internal/enrollment"
	"github.com/academe-sis/academe/internal/observability"
	"github.com/academe-sis/academe/internal/platform/httpx"
	"github.com/academe-sis/academe/internal/profiles"
	"github.com/academe-sis/academe/internal/roles"
	"github.com/academe-sis/academe/internal/shared"
	"github.com/academe-sis/academe/internal/users"
	"github.com/academe-sis/academe/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	Actors            ActorResolver
	AuthHandler       *auth.Handler
	EnrollmentHandler *enrollment.Handler
	CatalogHandler    *catalog.Handler
	RolesHandler      *roles.Handler
	UsersHandler      *users.Handler
	ProfilesHandler   *profiles.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Actors:         params.Actors,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Hands out the CSRF token bound to the caller's session. Clients send
	// it back in X-CSRF-Token on every mutating request.
	r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			params.Logger.Error("issue csrf token", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.EnrollmentHandler != nil {
		r.Route("/enrollments", params.EnrollmentHandler.MountRoutes)
	}
	if params.CatalogHandler != nil {
		r.Route("/courses", params.CatalogHandler.MountCourseRoutes)
		r.Route("/sections", params.CatalogHandler.MountSectionRoutes)
	}
	if params.RolesHandler != nil {
		r.Route("/roles", params.RolesHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.ProfilesHandler != nil {
		r.Route("/profiles", params.ProfilesHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
