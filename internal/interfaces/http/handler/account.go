package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/slotbook/backend/internal/application/identity"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/interfaces/http/middleware"
)

// MerchantSignup creates the merchant an identity operates
type MerchantSignup interface {
	SignUpMerchant(ctx context.Context, input identityapp.SignUpMerchantInput) (*identity.Merchant, error)
}

// CustomerAccounts manages customer accounts
type CustomerAccounts interface {
	SignUpCustomer(ctx context.Context, input identityapp.SignUpCustomerInput) (*identity.CustomerAccount, bool, error)
	GetAccount(ctx context.Context, identityID uuid.UUID) (*identity.CustomerAccount, error)
}

// SessionRouter decides which surface an identity lands on
type SessionRouter interface {
	Route(ctx context.Context, identityID uuid.UUID) (*identityapp.Routing, error)
}

// AccountHandler serves signup and session introspection
type AccountHandler struct {
	BaseHandler
	merchants MerchantSignup
	customers CustomerAccounts
	router    SessionRouter
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(merchants MerchantSignup, customers CustomerAccounts, router SessionRouter) *AccountHandler {
	return &AccountHandler{merchants: merchants, customers: customers, router: router}
}

// MerchantSignupRequest registers a business. Email and phone default to
// the token's contact claims.
type MerchantSignupRequest struct {
	BusinessName string `json:"business_name" binding:"required,max=200"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone" binding:"omitempty,phone"`
}

// CustomerSignupRequest registers a customer profile
type CustomerSignupRequest struct {
	FullName string `json:"full_name" binding:"max=200"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
}

// MerchantResponse is a merchant as its owner sees it
type MerchantResponse struct {
	ID               uuid.UUID      `json:"id"`
	Slug             string         `json:"slug"`
	BusinessName     string         `json:"business_name"`
	CustomDomain     string         `json:"custom_domain,omitempty"`
	Email            string         `json:"email,omitempty"`
	Phone            string         `json:"phone,omitempty"`
	Active           bool           `json:"active"`
	DirectoryVisible bool           `json:"directory_visible"`
	Theme            map[string]any `json:"theme"`
	CreatedAt        time.Time      `json:"created_at"`
}

// CustomerResponse is a customer account
type CustomerResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MeResponse tells the client where to send the signed-in identity
type MeResponse struct {
	IdentityID uuid.UUID         `json:"identity_id"`
	Email      string            `json:"email,omitempty"`
	Surface    string            `json:"surface"`
	Roles      identity.Roles    `json:"roles"`
	Tag        string            `json:"tag,omitempty"`
	Customer   *CustomerResponse `json:"customer,omitempty"`
}

func toMerchantResponse(m *identity.Merchant) MerchantResponse {
	return MerchantResponse{
		ID:               m.ID,
		Slug:             m.Slug,
		BusinessName:     m.BusinessName,
		CustomDomain:     m.CustomDomain,
		Email:            m.Email,
		Phone:            m.Phone,
		Active:           m.Active,
		DirectoryVisible: m.DirectoryVisible,
		Theme:            m.Theme,
		CreatedAt:        m.CreatedAt,
	}
}

func toCustomerResponse(a *identity.CustomerAccount) *CustomerResponse {
	return &CustomerResponse{
		ID:        a.ID,
		Email:     a.Email,
		Phone:     a.Phone,
		FullName:  a.FullName,
		CreatedAt: a.CreatedAt,
	}
}

// claimedContact fills blanks from the token's email and phone claims
func claimedContact(c *gin.Context, email, phone string) (string, string) {
	if claims := middleware.GetJWTClaims(c); claims != nil {
		if email == "" {
			email = claims.Email
		}
		if phone == "" {
			phone = claims.Phone
		}
	}
	return email, phone
}

// SignUpMerchant handles POST /accounts/merchant. Repeating it returns the
// merchant the identity already operates.
//
//	@ID				signUpMerchant
//	@Summary		Register a merchant
//	@Description	Creates the caller's merchant with a unique slug and a free subscription. Repeating it returns the existing merchant.
//	@Tags			accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body	MerchantSignupRequest	true	"Merchant signup"
//	@Success		201	{object}	APIResponse[MerchantResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/accounts/merchant [post]
func (h *AccountHandler) SignUpMerchant(c *gin.Context) {
	var req MerchantSignupRequest
	if !h.bindJSON(c, &req) {
		return
	}
	email, phone := claimedContact(c, req.Email, req.Phone)

	merchant, err := h.merchants.SignUpMerchant(c.Request.Context(), identityapp.SignUpMerchantInput{
		IdentityID:   middleware.GetIdentityID(c),
		BusinessName: req.BusinessName,
		Email:        email,
		Phone:        phone,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toMerchantResponse(merchant))
}

// SignUpCustomer handles POST /accounts/customer. It answers 201 on creation
// and 200 when the account already existed.
//
//	@ID				signUpCustomer
//	@Summary		Register a customer account
//	@Description	Creates the caller's customer account, or returns it with 200 when it already exists.
//	@Tags			accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body	CustomerSignupRequest	true	"Customer signup"
//	@Success		201	{object}	APIResponse[CustomerResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/accounts/customer [post]
func (h *AccountHandler) SignUpCustomer(c *gin.Context) {
	var req CustomerSignupRequest
	if !h.bindJSON(c, &req) {
		return
	}
	email, phone := claimedContact(c, req.Email, req.Phone)

	account, created, err := h.customers.SignUpCustomer(c.Request.Context(), identityapp.SignUpCustomerInput{
		IdentityID: middleware.GetIdentityID(c),
		Email:      email,
		Phone:      phone,
		FullName:   req.FullName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if created {
		h.Created(c, toCustomerResponse(account))
		return
	}
	h.Success(c, toCustomerResponse(account))
}

// Me handles GET /me
//
//	@ID				getMe
//	@Summary		Get the signed-in identity
//	@Description	Reports the identity's roles and the surface it should land on.
//	@Tags			accounts
//	@Produce		json
//	@Success		200	{object}	APIResponse[MeResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	identityID := middleware.GetIdentityID(c)

	routing, err := h.router.Route(ctx, identityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := MeResponse{
		IdentityID: identityID,
		Surface:    string(routing.Surface),
		Roles:      routing.Roles,
		Tag:        string(routing.Tag),
	}
	if claims := middleware.GetJWTClaims(c); claims != nil {
		resp.Email = claims.Email
	}
	if routing.Roles.HasCustomer {
		account, err := h.customers.GetAccount(ctx, identityID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		resp.Customer = toCustomerResponse(account)
	}
	h.Success(c, resp)
}
