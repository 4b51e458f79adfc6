// Package handlers contains the HTTP handlers for the storefront gateway.
// Handlers stay thin: they translate query parameters and headers into
// storefront requests and storefront results into redirects or bodies.
package handlers

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"storefront/internal/core"
	"storefront/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var storefrontTemplate = template.Must(template.ParseFS(templateFS, "templates/storefront.html"))

// StorefrontService is the subset of the storefront used by the buyer pages.
type StorefrontService interface {
	ListProducts(ctx context.Context) []types.Product
	StartCheckout(ctx context.Context, req types.CheckoutRequest) (types.CheckoutResult, error)
	OpenPortal(ctx context.Context, req types.PortalRequest) (types.PortalResult, error)
}

// StorefrontHandler serves the product page, checkout and portal redirects,
// and the product JSON feed.
type StorefrontHandler struct {
	svc    StorefrontService
	logger *slog.Logger
}

// NewStorefrontHandler creates a StorefrontHandler.
func NewStorefrontHandler(svc StorefrontService, logger *slog.Logger) *StorefrontHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorefrontHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the buyer-facing routes.
func (h *StorefrontHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/checkout", h.Checkout)
	r.Get("/portal", h.Portal)
	r.Get("/api/products", h.Products)
}

type storefrontPage struct {
	Products []types.Product
}

// Home renders the product list and the portal email form.
func (h *StorefrontHandler) Home(w http.ResponseWriter, r *http.Request) {
	page := storefrontPage{Products: h.svc.ListProducts(r.Context())}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := storefrontTemplate.Execute(w, page); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render storefront", "error", err)
	}
}

// Products returns the display product list as JSON.
func (h *StorefrontHandler) Products(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, map[string]any{"items": h.svc.ListProducts(r.Context())})
}

// Checkout redirects to a hosted checkout for the products in the repeated
// "products" query parameter.
func (h *StorefrontHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query()["products"]
	if !anyNonBlank(ids) {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField, "products query parameter is required", nil))
		return
	}

	res, err := h.svc.StartCheckout(r.Context(), types.CheckoutRequest{
		ProductIDs:  ids,
		RequestHost: r.Host,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}
	http.Redirect(w, r, res.URL, http.StatusFound)
}

// Portal redirects to the customer portal for the buyer with the given email.
func (h *StorefrontHandler) Portal(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField, "email query parameter is required", nil))
		return
	}

	res, err := h.svc.OpenPortal(r.Context(), types.PortalRequest{Email: email})
	if err != nil {
		core.Error(w, r, err)
		return
	}
	http.Redirect(w, r, res.PortalURL, http.StatusFound)
}

func anyNonBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
