package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackura/cybershelf/internal/config"
	authsvc "github.com/hackura/cybershelf/internal/services/auth"
	downloadsvc "github.com/hackura/cybershelf/internal/services/downloads"
	paymentsvc "github.com/hackura/cybershelf/internal/services/payments"
	purchasesvc "github.com/hackura/cybershelf/internal/services/purchases"
	ratesvc "github.com/hackura/cybershelf/internal/services/rate"
	"github.com/hackura/cybershelf/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService     *authsvc.Service
	Paystack        *paymentsvc.PaystackAdapter
	PayPal          *paymentsvc.PayPalAdapter
	PurchaseService *purchasesvc.Service
	DownloadService *downloadsvc.Service
	RateLimiter     *ratesvc.Limiter
	Logger          *zap.Logger
	Config          config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	webhookHandler := handlers.NewWebhookHandler(deps.Paystack, deps.PurchaseService, deps.Logger)
	checkoutHandler := handlers.NewCheckoutHandler(deps.PayPal, deps.PurchaseService)
	downloadHandler := handlers.NewDownloadHandler(deps.DownloadService, deps.RateLimiter, deps.Logger)
	libraryHandler := handlers.NewLibraryHandler(deps.PurchaseService)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.Post("/webhooks/paystack", webhookHandler.Paystack)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(authMW).Post("/logout", authHandler.Logout)
			r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
		})

		r.With(authMW).Post("/checkout/paypal/confirm", checkoutHandler.PayPalConfirm)

		r.Get("/downloads/by-reference/{reference}", downloadHandler.ByReference)
		r.Get("/downloads/by-token", downloadHandler.ByToken)
		r.With(authMW).Post("/downloads/token", downloadHandler.IssueToken)

		r.With(authMW).Get("/library", libraryHandler.List)
	})
}
