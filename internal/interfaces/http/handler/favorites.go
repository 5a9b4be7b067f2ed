package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/interfaces/http/middleware"
)

// FavoriteService stores the merchants a customer saved
type FavoriteService interface {
	ListFavorites(ctx context.Context, customerID uuid.UUID) ([]identity.Favorite, error)
	AddFavorite(ctx context.Context, customerID, merchantID uuid.UUID) error
	RemoveFavorite(ctx context.Context, customerID, merchantID uuid.UUID) error
}

// FavoriteHandler serves /favorites
type FavoriteHandler struct {
	BaseHandler
	favorites FavoriteService
}

// NewFavoriteHandler creates a new FavoriteHandler
func NewFavoriteHandler(favorites FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// FavoriteRequest names the merchant to save
type FavoriteRequest struct {
	MerchantID string `json:"merchant_id" binding:"required,uuid"`
}

// RemoveFavoriteQuery names the merchant to forget
type RemoveFavoriteQuery struct {
	MerchantID string `form:"merchant_id" binding:"required,uuid"`
}

// FavoriteResponse is one saved merchant
type FavoriteResponse struct {
	MerchantID uuid.UUID `json:"merchant_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// List handles GET /favorites
//
//	@ID				listFavorites
//	@Summary		List favorite merchants
//	@Tags			favorites
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]FavoriteResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/favorites [get]
func (h *FavoriteHandler) List(c *gin.Context) {
	favorites, err := h.favorites.ListFavorites(c.Request.Context(), middleware.GetIdentityID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]FavoriteResponse, len(favorites))
	for i, f := range favorites {
		out[i] = FavoriteResponse{MerchantID: f.MerchantID, CreatedAt: f.CreatedAt}
	}
	h.Success(c, out)
}

// Add handles POST /favorites. Saving a merchant twice is not an error.
//
//	@ID				addFavorite
//	@Summary		Save a favorite merchant
//	@Description	Only active merchants can be saved. Saving twice is not an error.
//	@Tags			favorites
//	@Accept			json
//	@Produce		json
//	@Param			request	body	FavoriteRequest	true	"Merchant to save"
//	@Success		201	{object}	APIResponse[FavoriteRequest]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/favorites [post]
func (h *FavoriteHandler) Add(c *gin.Context) {
	var req FavoriteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	merchantID := uuid.MustParse(req.MerchantID)
	if err := h.favorites.AddFavorite(c.Request.Context(), middleware.GetIdentityID(c), merchantID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, FavoriteRequest{MerchantID: merchantID.String()})
}

// Remove handles DELETE /favorites?merchant_id=
//
//	@ID				removeFavorite
//	@Summary		Forget a favorite merchant
//	@Tags			favorites
//	@Produce		json
//	@Param			merchant_id	query	string	true	"Merchant ID" format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/favorites [delete]
func (h *FavoriteHandler) Remove(c *gin.Context) {
	var req RemoveFavoriteQuery
	if !h.bindQuery(c, &req) {
		return
	}
	err := h.favorites.RemoveFavorite(c.Request.Context(), middleware.GetIdentityID(c), uuid.MustParse(req.MerchantID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
