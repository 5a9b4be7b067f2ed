package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogapp "github.com/slotbook/backend/internal/application/catalog"
	"github.com/slotbook/backend/internal/domain/catalog"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/interfaces/http/middleware"
)

// MerchantSettings changes the caller's merchant
type MerchantSettings interface {
	GetByOwner(ctx context.Context, identityID uuid.UUID) (*identity.Merchant, error)
	UpdateDomain(ctx context.Context, merchantID uuid.UUID, domain string) (*identity.Merchant, error)
	SetActive(ctx context.Context, merchantID uuid.UUID, active bool) (*identity.Merchant, error)
	SetDirectoryVisible(ctx context.Context, merchantID uuid.UUID, visible bool) (*identity.Merchant, error)
	UpdateTheme(ctx context.Context, merchantID uuid.UUID, theme map[string]any) (*identity.Merchant, error)
}

// CatalogService manages quota-gated catalog resources
type CatalogService interface {
	ListServices(ctx context.Context, merchantID uuid.UUID) ([]catalog.Service, error)
	CreateService(ctx context.Context, merchantID uuid.UUID, input catalogapp.CreateServiceInput) (*catalog.Service, error)
	DeleteService(ctx context.Context, merchantID, id uuid.UUID) error
	ListProducts(ctx context.Context, merchantID uuid.UUID) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, merchantID uuid.UUID, input catalogapp.CreateProductInput) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, merchantID, id uuid.UUID) error
	ListGallery(ctx context.Context, merchantID uuid.UUID) ([]catalogapp.GalleryItem, error)
	CreateGalleryImage(ctx context.Context, merchantID uuid.UUID, input catalogapp.CreateGalleryImageInput) (*catalogapp.GalleryUpload, error)
	DeleteGalleryImage(ctx context.Context, merchantID, id uuid.UUID) error
}

// MerchantHandler serves the merchant dashboard endpoints
type MerchantHandler struct {
	BaseHandler
	merchants MerchantSettings
	catalog   CatalogService
}

// NewMerchantHandler creates a new MerchantHandler
func NewMerchantHandler(merchants MerchantSettings, catalog CatalogService) *MerchantHandler {
	return &MerchantHandler{merchants: merchants, catalog: catalog}
}

// UpdateDomainRequest sets or clears ("") the custom domain
type UpdateDomainRequest struct {
	Domain string `json:"domain" binding:"max=253"`
}

// UpdateSettingsRequest changes visibility and theme. Absent fields are left alone.
type UpdateSettingsRequest struct {
	Active           *bool          `json:"active"`
	DirectoryVisible *bool          `json:"directory_visible"`
	Theme            map[string]any `json:"theme"`
}

// CreateServiceRequest adds a bookable service
type CreateServiceRequest struct {
	Name            string          `json:"name" binding:"required,max=200"`
	Description     string          `json:"description" binding:"max=2000"`
	DurationMinutes int             `json:"duration_minutes" binding:"required,gte=1,max=1440"`
	Price           decimal.Decimal `json:"price"`
}

// CreateProductRequest adds a retail product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Description string          `json:"description" binding:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"gte=0"`
}

// CreateGalleryImageRequest reserves a gallery slot and asks for an upload URL
type CreateGalleryImageRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	Caption     string `json:"caption" binding:"max=500"`
	Position    int    `json:"position" binding:"gte=0"`
}

// ServiceResponse is a catalog service
type ServiceResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	DurationMinutes int             `json:"duration_minutes"`
	Price           decimal.Decimal `json:"price"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ProductResponse is a catalog product
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
}

// GalleryImageResponse is a gallery entry with its public URL
type GalleryImageResponse struct {
	ID          uuid.UUID `json:"id"`
	ContentType string    `json:"content_type"`
	Caption     string    `json:"caption,omitempty"`
	Position    int       `json:"position"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// GalleryUploadResponse tells the client where to PUT the image bytes
type GalleryUploadResponse struct {
	Image     GalleryImageResponse `json:"image"`
	UploadURL string               `json:"upload_url"`
	ExpiresAt time.Time            `json:"expires_at"`
}

func toServiceResponse(s *catalog.Service) ServiceResponse {
	return ServiceResponse{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
		CreatedAt:       s.CreatedAt,
	}
}

func toProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}

func toGalleryImageResponse(img *catalog.GalleryImage, url string) GalleryImageResponse {
	return GalleryImageResponse{
		ID:          img.ID,
		ContentType: img.ContentType,
		Caption:     img.Caption,
		Position:    img.Position,
		URL:         url,
		CreatedAt:   img.CreatedAt,
	}
}

// GetProfile handles GET /merchant
//
//	@ID				getMerchantProfile
//	@Summary		Get the caller's merchant
//	@Tags			merchant
//	@Produce		json
//	@Success		200	{object}	APIResponse[MerchantResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant [get]
func (h *MerchantHandler) GetProfile(c *gin.Context) {
	merchant, err := h.merchants.GetByOwner(c.Request.Context(), middleware.GetIdentityID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toMerchantResponse(merchant))
}

// UpdateDomain handles PUT /merchant/domain
//
//	@ID				updateMerchantDomain
//	@Summary		Set or clear the custom domain
//	@Description	An empty domain clears it.
//	@Tags			merchant
//	@Accept			json
//	@Produce		json
//	@Param			request	body	UpdateDomainRequest	true	"Custom domain"
//	@Success		200	{object}	APIResponse[MerchantResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/domain [put]
func (h *MerchantHandler) UpdateDomain(c *gin.Context) {
	var req UpdateDomainRequest
	if !h.bindJSON(c, &req) {
		return
	}
	merchant, err := h.merchants.UpdateDomain(c.Request.Context(), middleware.GetMerchantID(c), req.Domain)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toMerchantResponse(merchant))
}

// UpdateSettings handles PATCH /merchant/settings
//
//	@ID				updateMerchantSettings
//	@Summary		Update merchant settings
//	@Description	Changes active state, directory visibility and theme. Absent fields are left alone.
//	@Tags			merchant
//	@Accept			json
//	@Produce		json
//	@Param			request	body	UpdateSettingsRequest	true	"Settings"
//	@Success		200	{object}	APIResponse[MerchantResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/settings [patch]
func (h *MerchantHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.Active == nil && req.DirectoryVisible == nil && req.Theme == nil {
		h.BadRequest(c, "Nothing to update")
		return
	}

	ctx := c.Request.Context()
	merchantID := middleware.GetMerchantID(c)
	var (
		merchant *identity.Merchant
		err      error
	)
	if req.Active != nil {
		if merchant, err = h.merchants.SetActive(ctx, merchantID, *req.Active); err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if req.DirectoryVisible != nil {
		if merchant, err = h.merchants.SetDirectoryVisible(ctx, merchantID, *req.DirectoryVisible); err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if req.Theme != nil {
		if merchant, err = h.merchants.UpdateTheme(ctx, merchantID, req.Theme); err != nil {
			h.HandleError(c, err)
			return
		}
	}
	h.Success(c, toMerchantResponse(merchant))
}

// ListServices handles GET /merchant/services
//
//	@ID				listMerchantServices
//	@Summary		List catalog services
//	@Tags			merchant
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]ServiceResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/services [get]
func (h *MerchantHandler) ListServices(c *gin.Context) {
	items, err := h.catalog.ListServices(c.Request.Context(), middleware.GetMerchantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]ServiceResponse, len(items))
	for i := range items {
		out[i] = toServiceResponse(&items[i])
	}
	h.Success(c, out)
}

// CreateService handles POST /merchant/services
//
//	@ID				createMerchantService
//	@Summary		Create a catalog service
//	@Description	Denied with 429 once the tier's service limit is reached.
//	@Tags			merchant
//	@Accept			json
//	@Produce		json
//	@Param			request	body	CreateServiceRequest	true	"Service"
//	@Success		201	{object}	APIResponse[ServiceResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		429	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/services [post]
func (h *MerchantHandler) CreateService(c *gin.Context) {
	var req CreateServiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	svc, err := h.catalog.CreateService(c.Request.Context(), middleware.GetMerchantID(c), catalogapp.CreateServiceInput{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toServiceResponse(svc))
}

// DeleteService handles DELETE /merchant/services/:id
//
//	@ID				deleteMerchantService
//	@Summary		Delete a catalog service
//	@Tags			merchant
//	@Produce		json
//	@Param			id	path	string	true	"Resource ID" format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/services/{id} [delete]
func (h *MerchantHandler) DeleteService(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteService(c.Request.Context(), middleware.GetMerchantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListProducts handles GET /merchant/products
//
//	@ID				listMerchantProducts
//	@Summary		List catalog products
//	@Tags			merchant
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]ProductResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/products [get]
func (h *MerchantHandler) ListProducts(c *gin.Context) {
	items, err := h.catalog.ListProducts(c.Request.Context(), middleware.GetMerchantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]ProductResponse, len(items))
	for i := range items {
		out[i] = toProductResponse(&items[i])
	}
	h.Success(c, out)
}

// CreateProduct handles POST /merchant/products
//
//	@ID				createMerchantProduct
//	@Summary		Create a catalog product
//	@Description	Denied with 429 once the tier's product limit is reached.
//	@Tags			merchant
//	@Accept			json
//	@Produce		json
//	@Param			request	body	CreateProductRequest	true	"Product"
//	@Success		201	{object}	APIResponse[ProductResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		429	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/products [post]
func (h *MerchantHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), middleware.GetMerchantID(c), catalogapp.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toProductResponse(product))
}

// DeleteProduct handles DELETE /merchant/products/:id
//
//	@ID				deleteMerchantProduct
//	@Summary		Delete a catalog product
//	@Tags			merchant
//	@Produce		json
//	@Param			id	path	string	true	"Resource ID" format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/products/{id} [delete]
func (h *MerchantHandler) DeleteProduct(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), middleware.GetMerchantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListGallery handles GET /merchant/gallery
//
//	@ID				listMerchantGallery
//	@Summary		List gallery images
//	@Tags			merchant
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]GalleryImageResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/gallery [get]
func (h *MerchantHandler) ListGallery(c *gin.Context) {
	items, err := h.catalog.ListGallery(c.Request.Context(), middleware.GetMerchantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]GalleryImageResponse, len(items))
	for i := range items {
		out[i] = toGalleryImageResponse(&items[i].GalleryImage, items[i].URL)
	}
	h.Success(c, out)
}

// CreateGalleryImage handles POST /merchant/gallery. The response carries a
// presigned URL the client uploads the image bytes to.
//
//	@ID				createMerchantGalleryImage
//	@Summary		Reserve a gallery image
//	@Description	Returns a presigned URL the client uploads the image bytes to.
//	@Tags			merchant
//	@Accept			json
//	@Produce		json
//	@Param			request	body	CreateGalleryImageRequest	true	"Gallery image"
//	@Success		201	{object}	APIResponse[GalleryUploadResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		429	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/gallery [post]
func (h *MerchantHandler) CreateGalleryImage(c *gin.Context) {
	var req CreateGalleryImageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	upload, err := h.catalog.CreateGalleryImage(c.Request.Context(), middleware.GetMerchantID(c), catalogapp.CreateGalleryImageInput{
		ContentType: req.ContentType,
		Caption:     req.Caption,
		Position:    req.Position,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, GalleryUploadResponse{
		Image:     toGalleryImageResponse(upload.Image, upload.PublicURL),
		UploadURL: upload.UploadURL,
		ExpiresAt: upload.ExpiresAt,
	})
}

// DeleteGalleryImage handles DELETE /merchant/gallery/:id
//
//	@ID				deleteMerchantGalleryImage
//	@Summary		Delete a gallery image
//	@Tags			merchant
//	@Produce		json
//	@Param			id	path	string	true	"Resource ID" format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/gallery/{id} [delete]
func (h *MerchantHandler) DeleteGalleryImage(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteGalleryImage(c.Request.Context(), middleware.GetMerchantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
