package roles

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/academe-sis/academe/internal/authz"
	"github.com/academe-sis/academe/internal/platform/httpx"
)

// Handler exposes the role registry for administrative UIs.
type Handler struct {
	registry *authz.Registry
	authz    authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(registry *authz.Registry, mw authz.Middleware) *Handler {
	return &Handler{registry: registry, authz: mw}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermManageUsers))
		r.Get("/", h.listRoles)
		r.Get("/permissions", h.listPermissions)
	})
}

type roleResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Active      bool     `json:"active"`
	Category    string   `json:"category"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.registry.Roles()
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{
			Name:        role.Name,
			Description: role.Description,
			Active:      role.Active,
			Category:    role.Category.String(),
			Permissions: role.Permissions(),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

type permissionResponse struct {
	Codename    string `json:"codename"`
	Description string `json:"description"`
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	catalog := authz.Catalog()
	out := make([]permissionResponse, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, permissionResponse{Codename: p.Codename, Description: p.Description})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": out})
}
