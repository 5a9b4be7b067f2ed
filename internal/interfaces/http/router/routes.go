package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/slotbook/backend/internal/interfaces/http/handler"
	"github.com/slotbook/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the HTTP handlers mounted by Build
type Handlers struct {
	System        *handler.SystemHandler
	Accounts      *handler.AccountHandler
	Bookings      *handler.BookingHandler
	Subscriptions *handler.SubscriptionHandler
	Merchants     *handler.MerchantHandler
	Favorites     *handler.FavoriteHandler
	Public        *handler.PublicHandler
}

// Guards holds the per-tier access middleware.
// Authenticate must run before the role guards.
type Guards struct {
	Authenticate   gin.HandlerFunc
	User           gin.HandlerFunc
	Customer       gin.HandlerFunc
	Merchant       gin.HandlerFunc
	Admin          gin.HandlerFunc
	AdminOrService gin.HandlerFunc
	BookingLimit   gin.HandlerFunc
}

// GuardDeps are the collaborators needed to build the default guards
type GuardDeps struct {
	Tokens    middleware.TokenValidator
	Merchants middleware.MerchantLookup
	Customers middleware.CustomerLookup
	Limiter   *middleware.RateLimiter
	Logger    *zap.Logger
}

// NewGuards builds the production guard set
func NewGuards(deps GuardDeps) Guards {
	g := Guards{
		Authenticate:   middleware.JWTAuthMiddleware(deps.Tokens, deps.Logger),
		User:           middleware.RequireUser(),
		Customer:       middleware.RequireCustomer(deps.Customers),
		Merchant:       middleware.RequireMerchant(deps.Merchants),
		Admin:          middleware.RequireAdmin(deps.Logger),
		AdminOrService: middleware.RequireAdminOrService(deps.Logger),
	}
	if deps.Limiter != nil {
		g.BookingLimit = middleware.BookingRateLimit(deps.Limiter)
	}
	return g
}

// Build registers the full route table on engine and returns the router
func Build(engine *gin.Engine, h Handlers, g Guards, opts ...RouterOption) *Router {
	if h.Public != nil {
		opts = append(opts, WithNoRoute(h.Public.Fallback))
	}
	r := NewRouter(engine, opts...)

	health := NewDomainGroup("health", "/health").
		GET("", h.System.Health).
		GET("/ready", h.System.Ready)
	r.RegisterRoot(health)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping)

	public := NewDomainGroup("public", "/public").
		GET("/merchants/:slug", h.Public.GetMerchantPage).
		GET("/directory", h.Public.ListDirectory)

	bookings := NewDomainGroup("bookings", "/bookings")
	if g.BookingLimit != nil {
		bookings.POST("", g.BookingLimit, h.Bookings.Create)
	} else {
		bookings.POST("", h.Bookings.Create)
	}
	bookings.PATCH("", g.Authenticate, g.User, g.Customer, h.Bookings.Link).
		GET("/mine", g.Authenticate, g.User, g.Customer, h.Bookings.ListMine)

	favorites := NewDomainGroup("favorites", "/favorites").
		Use(g.Authenticate, g.User, g.Customer).
		GET("", h.Favorites.List).
		POST("", h.Favorites.Add).
		DELETE("", h.Favorites.Remove)

	accounts := NewDomainGroup("accounts", "/accounts").
		Use(g.Authenticate, g.User).
		POST("/customer", h.Accounts.SignUpCustomer).
		POST("/merchant", h.Accounts.SignUpMerchant)

	me := NewDomainGroup("me", "/me").
		Use(g.Authenticate, g.User).
		GET("", h.Accounts.Me)

	subscriptions := NewDomainGroup("subscriptions", "/subscriptions").
		GET("/tiers", h.Subscriptions.ListTiers).
		GET("/current", g.Authenticate, g.User, g.Merchant, h.Subscriptions.GetCurrent).
		GET("/quota", g.Authenticate, g.User, g.Merchant, h.Subscriptions.GetQuota).
		POST("/upgrade", g.Authenticate, g.Admin, h.Subscriptions.Upgrade)

	admin := NewDomainGroup("admin", "/admin").
		Use(g.Authenticate, g.AdminOrService).
		POST("/fix-usage", h.Subscriptions.FixUsage)

	merchant := NewDomainGroup("merchant", "/merchant").
		Use(g.Authenticate, g.User, g.Merchant).
		GET("", h.Merchants.GetProfile).
		PUT("/domain", h.Merchants.UpdateDomain).
		PATCH("/settings", h.Merchants.UpdateSettings)
	merchant.Group("catalog-services", "/services").
		GET("", h.Merchants.ListServices).
		POST("", h.Merchants.CreateService).
		DELETE("/:id", h.Merchants.DeleteService)
	merchant.Group("catalog-products", "/products").
		GET("", h.Merchants.ListProducts).
		POST("", h.Merchants.CreateProduct).
		DELETE("/:id", h.Merchants.DeleteProduct)
	merchant.Group("gallery", "/gallery").
		GET("", h.Merchants.ListGallery).
		POST("", h.Merchants.CreateGalleryImage).
		DELETE("/:id", h.Merchants.DeleteGalleryImage)
	merchant.Group("merchant-bookings", "/bookings").
		GET("", h.Bookings.ListForMerchant).
		PATCH("/:id/status", h.Bookings.UpdateStatus)

	r.Register(system).
		Register(public).
		Register(bookings).
		Register(favorites).
		Register(accounts).
		Register(me).
		Register(subscriptions).
		Register(admin).
		Register(merchant)

	r.Setup()
	return r
}
