package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GyabaahFelix/lynqed-backend/api/controllers"
	"github.com/GyabaahFelix/lynqed-backend/api/middleware"
	"github.com/GyabaahFelix/lynqed-backend/internal/cart"
	checkoutsvc "github.com/GyabaahFelix/lynqed-backend/internal/checkout"
	"github.com/GyabaahFelix/lynqed-backend/internal/delivery"
	"github.com/GyabaahFelix/lynqed-backend/internal/identity"
	"github.com/GyabaahFelix/lynqed-backend/internal/media"
	"github.com/GyabaahFelix/lynqed-backend/internal/notifications"
	"github.com/GyabaahFelix/lynqed-backend/internal/orders"
	"github.com/GyabaahFelix/lynqed-backend/internal/products"
	"github.com/GyabaahFelix/lynqed-backend/internal/snapshot"
	"github.com/GyabaahFelix/lynqed-backend/internal/users"
	"github.com/GyabaahFelix/lynqed-backend/internal/vendors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/auth/session"
	"github.com/GyabaahFelix/lynqed-backend/pkg/config"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
	"github.com/GyabaahFelix/lynqed-backend/pkg/redis"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *db.Client
	Redis   *redis.Client
	Session session.AccessSessionChecker

	Identity      identity.Service
	Users         users.Service
	Vendors       vendors.Service
	Products      products.Service
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Delivery      delivery.Service
	Notifications notifications.Service
	Media         media.Service
	Snapshot      snapshot.Service

	MetricsHandler http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Identity, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Identity, logg))
		r.Post("/guest", controllers.AuthGuest(deps.Identity, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Identity, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Identity, logg))
			r.Post("/switch-role", controllers.AuthSwitchRole(deps.Identity, logg))
		})
	})

	// Public catalog surface.
	r.Route("/api/v1/feed", func(r chi.Router) {
		r.Get("/", controllers.ProductFeed(deps.Products, cfg.Campus, logg))
	})
	r.Get("/api/v1/products/{id}", controllers.GetProduct(deps.Products, logg))
	r.Get("/api/v1/vendors/{id}", controllers.GetVendor(deps.Vendors, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", controllers.MyProfile(deps.Users, logg))
			r.Patch("/", controllers.UpdateMyProfile(deps.Users, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, logg))
			r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
			r.Patch("/items/{productID}", controllers.UpdateCartItem(deps.Cart, logg))
			r.Delete("/items/{productID}", controllers.RemoveCartItem(deps.Cart, logg))
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.ListFavorites(deps.Cart, logg))
			r.Post("/{productID}", controllers.AddFavorite(deps.Cart, logg))
			r.Delete("/{productID}", controllers.RemoveFavorite(deps.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
			r.Get("/{id}", controllers.GetOrder(deps.Orders, logg))
		})

		r.Route("/vendors/me", func(r chi.Router) {
			r.Get("/", controllers.MyVendor(deps.Vendors, logg))
			r.With(middleware.RejectGuests(logg)).Put("/", controllers.UpsertMyVendor(deps.Vendors, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.RoleVendor, logg))
				r.Get("/products", controllers.ListMyProducts(deps.Products, logg))
				r.Post("/products", controllers.CreateProduct(deps.Products, logg))
				r.Patch("/products/{id}", controllers.UpdateProduct(deps.Products, logg))
				r.Delete("/products/{id}", controllers.RemoveProduct(deps.Products, logg))
				r.Get("/orders", controllers.ListVendorOrders(deps.Orders, logg))
				r.Post("/orders/{id}/advance", controllers.AdvanceVendorOrder(deps.Orders, logg))
				r.Post("/orders/{id}/decline", controllers.DeclineVendorOrder(deps.Orders, logg))
			})
		})

		r.Route("/delivery", func(r chi.Router) {
			r.Get("/me", controllers.MyRiderProfile(deps.Delivery, logg))
			r.With(middleware.RejectGuests(logg)).Put("/me", controllers.UpsertRiderProfile(deps.Delivery, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.RoleDeliveryPerson, logg))
				r.Get("/me/stats", controllers.RiderStats(deps.Delivery, logg))
				r.Get("/jobs/open", controllers.ListOpenJobs(deps.Orders, logg))
				r.Get("/jobs", controllers.ListMyJobs(deps.Orders, logg))
				r.Post("/jobs/{id}/accept", controllers.AcceptJob(deps.Orders, logg))
				r.Post("/jobs/{id}/advance", controllers.AdvanceJob(deps.Orders, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationFeed(deps.Notifications, logg))
			r.Post("/{id}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Post("/media/uploads", controllers.MediaUpload(deps.Media, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
			r.Get("/users", controllers.AdminListUsers(deps.Users, logg))
			r.Post("/users/{id}/ban", controllers.AdminBanUser(deps.Users, logg))
			r.Post("/users/{id}/unban", controllers.AdminUnbanUser(deps.Users, logg))
			r.Get("/vendors", controllers.AdminListVendors(deps.Vendors, logg))
			r.Post("/vendors/{id}/approval", controllers.AdminSetVendorApproval(deps.Vendors, logg))
			r.Get("/products", controllers.AdminListProducts(deps.Products, logg))
			r.Post("/products/{id}/status", controllers.AdminModerateProduct(deps.Products, logg))
			r.Delete("/products/{id}", controllers.AdminRemoveProduct(deps.Products, logg))
			r.Get("/riders", controllers.AdminListRiders(deps.Delivery, logg))
			r.Post("/riders/{id}/status", controllers.AdminTransitionRider(deps.Delivery, logg))
			r.Get("/snapshot/status", controllers.SnapshotStatus(deps.Snapshot, logg))
		})
	})

	return r
}
