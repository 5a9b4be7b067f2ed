package handler

import (
	"context"
	"maps"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/slotbook/backend/internal/application/catalog"
	identityapp "github.com/slotbook/backend/internal/application/identity"
	"github.com/slotbook/backend/internal/domain/catalog"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/interfaces/http/dto"
	"github.com/slotbook/backend/internal/interfaces/http/middleware"
)

// PublicPages looks up what visitors may see about merchants
type PublicPages interface {
	GetPublicPage(ctx context.Context, slug string) (*identityapp.PublicMerchantPage, error)
	ListDirectory(ctx context.Context, filter shared.Filter) (shared.Paginated[identity.Merchant], error)
}

// CatalogReader lists a merchant's published catalog
type CatalogReader interface {
	ListServices(ctx context.Context, merchantID uuid.UUID) ([]catalog.Service, error)
	ListProducts(ctx context.Context, merchantID uuid.UUID) ([]catalog.Product, error)
	ListGallery(ctx context.Context, merchantID uuid.UUID) ([]catalogapp.GalleryItem, error)
}

// PublicHandler serves unauthenticated merchant pages and the directory
type PublicHandler struct {
	BaseHandler
	pages   PublicPages
	catalog CatalogReader
}

// NewPublicHandler creates a new PublicHandler
func NewPublicHandler(pages PublicPages, catalog CatalogReader) *PublicHandler {
	return &PublicHandler{pages: pages, catalog: catalog}
}

// PublicMerchantResponse is a merchant as visitors see it
type PublicMerchantResponse struct {
	ID           uuid.UUID      `json:"id"`
	Slug         string         `json:"slug"`
	BusinessName string         `json:"business_name"`
	Phone        string         `json:"phone,omitempty"`
	Theme        map[string]any `json:"theme"`
}

// PublicPageResponse is everything a booking page renders
type PublicPageResponse struct {
	Merchant PublicMerchantResponse `json:"merchant"`
	Layout   string                 `json:"layout"`
	IsFree   bool                   `json:"is_free"`
	Path     string                 `json:"path"`
	Services []ServiceResponse      `json:"services"`
	Products []ProductResponse      `json:"products"`
	Gallery  []GalleryImageResponse `json:"gallery"`
}

// DirectoryEntryResponse is one merchant in the public directory
type DirectoryEntryResponse struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	BusinessName string    `json:"business_name"`
}

// GetMerchantPage handles GET /public/merchants/:slug
//
//	@ID				getPublicMerchantPage
//	@Summary		Get a merchant's public page
//	@Description	Merchant profile, layout and catalog of an active merchant.
//	@Tags			public
//	@Produce		json
//	@Param			slug	path	string	true	"Merchant slug"
//	@Success		200	{object}	APIResponse[PublicPageResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/public/merchants/{slug} [get]
func (h *PublicHandler) GetMerchantPage(c *gin.Context) {
	h.renderPage(c, c.Param("slug"), "/")
}

// ListDirectory handles GET /public/directory
//
//	@ID				listPublicDirectory
//	@Summary		List the merchant directory
//	@Description	Active merchants that opted into the directory.
//	@Tags			public
//	@Produce		json
//	@Param			page	query	int	false	"Page number" minimum(1)
//	@Param			page_size	query	int	false	"Page size" minimum(1) maximum(100)
//	@Param			order_by	query	string	false	"Sort field"
//	@Param			order_dir	query	string	false	"Sort direction" Enums(asc, desc)
//	@Param			search	query	string	false	"Search term"
//	@Success		200	{object}	APIResponse[[]DirectoryEntryResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/public/directory [get]
func (h *PublicHandler) ListDirectory(c *gin.Context) {
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.pages.ListDirectory(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]DirectoryEntryResponse, len(page.Items))
	for i, m := range page.Items {
		out[i] = DirectoryEntryResponse{ID: m.ID, Slug: m.Slug, BusinessName: m.BusinessName}
	}
	h.SuccessWithMeta(c, out, page.Total, page.Page, page.PageSize)
}

// Fallback is the engine's NoRoute handler. GET requests shaped like
// /{slug}[/...] render that merchant's page; custom-domain requests arrive
// here already rewritten. Everything else is a 404.
func (h *PublicHandler) Fallback(c *gin.Context) {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		if slug, rest, ok := slugPath(c.Request.URL.Path); ok {
			if tenant := middleware.GetTenantSlug(c); tenant == "" || tenant == slug {
				h.renderPage(c, slug, rest)
				return
			}
		}
	}
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Resource not found")
}

func (h *PublicHandler) renderPage(c *gin.Context, slug, path string) {
	ctx := c.Request.Context()
	page, err := h.pages.GetPublicPage(ctx, slug)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	merchantID := page.Merchant.ID

	services, err := h.catalog.ListServices(ctx, merchantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	products, err := h.catalog.ListProducts(ctx, merchantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	gallery, err := h.catalog.ListGallery(ctx, merchantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := PublicPageResponse{
		Merchant: PublicMerchantResponse{
			ID:           merchantID,
			Slug:         page.Merchant.Slug,
			BusinessName: page.Merchant.BusinessName,
			Phone:        page.Merchant.Phone,
			Theme:        effectiveTheme(page.Merchant.Theme, page.Layout),
		},
		Layout:   page.Layout,
		IsFree:   page.IsFree,
		Path:     path,
		Services: make([]ServiceResponse, len(services)),
		Products: make([]ProductResponse, len(products)),
		Gallery:  make([]GalleryImageResponse, len(gallery)),
	}
	for i := range services {
		resp.Services[i] = toServiceResponse(&services[i])
	}
	for i := range products {
		resp.Products[i] = toProductResponse(&products[i])
	}
	for i := range gallery {
		resp.Gallery[i] = toGalleryImageResponse(&gallery[i].GalleryImage, gallery[i].URL)
	}
	h.Success(c, resp)
}

// effectiveTheme copies the stored theme with the layout the plan allows
func effectiveTheme(stored map[string]any, layout string) map[string]any {
	theme := make(map[string]any, len(stored)+1)
	maps.Copy(theme, stored)
	theme[identity.LayoutKey] = layout
	return theme
}

// slugPath splits /{slug}/rest into its parts when the first segment is a
// usable slug
func slugPath(p string) (slug, rest string, ok bool) {
	trimmed := strings.TrimPrefix(p, "/")
	slug, rest, _ = strings.Cut(trimmed, "/")
	if identity.ValidateSlug(slug) != nil {
		return "", "", false
	}
	return slug, "/" + rest, true
}
