package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/padmaajarasooi/padmaaja-backend/api/controllers"
	"github.com/padmaajarasooi/padmaaja-backend/api/middleware"
	authsvc "github.com/padmaajarasooi/padmaaja-backend/internal/auth"
	"github.com/padmaajarasooi/padmaaja-backend/internal/bulk"
	"github.com/padmaajarasooi/padmaaja-backend/internal/catalog"
	"github.com/padmaajarasooi/padmaaja-backend/internal/commission"
	"github.com/padmaajarasooi/padmaaja-backend/internal/genealogy"
	"github.com/padmaajarasooi/padmaaja-backend/internal/orders"
	"github.com/padmaajarasooi/padmaaja-backend/internal/payouts"
	"github.com/padmaajarasooi/padmaaja-backend/internal/tiers"
	"github.com/padmaajarasooi/padmaaja-backend/internal/users"
	"github.com/padmaajarasooi/padmaaja-backend/internal/wallet"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/auth/session"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/config"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/logger"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/redis"
)

// Services bundles everything the router needs so main stays readable.
type Services struct {
	Auth        authsvc.Service
	Register    authsvc.RegisterService
	Users       users.Service
	Catalog     catalog.Service
	Orders      orders.Service
	Commissions commission.Service
	Rates       commission.RatesService
	Genealogy   genealogy.Service
	Payouts     payouts.Service
	Tiers       tiers.Service
	Wallet      wallet.Service
	Importer    *bulk.Importer
	Exporter    *bulk.Exporter
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Register, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
	})

	// Public storefront reads.
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/categories", controllers.CategoryList(svcs.Catalog, logg))
		r.Get("/products", controllers.ProductList(svcs.Catalog, logg))
		r.Get("/products/{productID}", controllers.ProductDetail(svcs.Catalog, logg))
	})
	r.Get("/api/v1/tiers", controllers.TierList(svcs.Tiers, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.Me(svcs.Users, logg))
			r.Patch("/", controllers.MeUpdate(svcs.Users, logg))
		})
		r.Get("/wallet", controllers.WalletStatement(svcs.Wallet, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.OrderDetail(svcs.Orders, logg))
		})

		r.Route("/commissions", func(r chi.Router) {
			r.Get("/", controllers.CommissionList(svcs.Commissions, logg))
			r.Get("/summary", controllers.CommissionSummary(svcs.Commissions, logg))
		})

		r.Get("/genealogy", controllers.GenealogyTree(svcs.Genealogy, logg))

		r.Route("/payouts", func(r chi.Router) {
			r.Post("/", controllers.PayoutRequest(svcs.Payouts, logg))
			r.Get("/", controllers.PayoutList(svcs.Payouts, logg))
			r.Get("/{payoutID}", controllers.PayoutDetail(svcs.Payouts, logg))
		})

		r.Post("/partnership/apply", controllers.TierAllocate(svcs.Tiers, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Post("/categories", controllers.CategoryCreate(svcs.Catalog, logg))
			r.Patch("/categories/{categoryID}", controllers.CategoryUpdate(svcs.Catalog, logg))
			r.Post("/products", controllers.ProductCreate(svcs.Catalog, logg))
			r.Patch("/products/{productID}", controllers.ProductUpdate(svcs.Catalog, logg))
			r.Post("/products/import", controllers.AdminProductImport(svcs.Importer, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.OrderDetail(svcs.Orders, logg))
			r.Post("/{orderID}/status", controllers.OrderTransition(svcs.Orders, logg))
		})

		r.Route("/commissions", func(r chi.Router) {
			r.Get("/", controllers.AdminCommissionList(svcs.Commissions, logg))
			r.Post("/{commissionID}/review", controllers.AdminCommissionReview(svcs.Commissions, logg))
		})
		r.Get("/commission-rates", controllers.RateList(svcs.Rates, logg))
		r.Put("/commission-rates", controllers.AdminRateReplace(svcs.Rates, logg))

		r.Route("/export", func(r chi.Router) {
			r.Get("/commissions", controllers.AdminCommissionExport(svcs.Exporter, logg))
			r.Get("/orders", controllers.AdminOrderExport(svcs.Exporter, logg))
		})

		r.Get("/genealogy/{userID}", controllers.AdminGenealogyTree(svcs.Genealogy, logg))

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", controllers.AdminPayoutList(svcs.Payouts, logg))
			r.Get("/{payoutID}", controllers.PayoutDetail(svcs.Payouts, logg))
			r.Post("/{payoutID}/review", controllers.AdminPayoutReview(svcs.Payouts, logg))
			r.Post("/{payoutID}/pay", controllers.AdminPayoutMarkPaid(svcs.Payouts, logg))
		})

		r.Route("/tiers", func(r chi.Router) {
			r.Post("/", controllers.AdminTierCreate(svcs.Tiers, logg))
			r.Patch("/{tierID}", controllers.AdminTierUpdate(svcs.Tiers, logg))
		})
	})

	return r
}
