/**
 * @description
 * This file sets up the HTTP router for the funding-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// FundingRoutes creates and returns a new router for the funding service.
func FundingRoutes(h *FundingHandlers, jwksURL string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwksURL))

		// Profile ledger and totals
		r.Get("/profile", h.GetProfileHandler)
		r.Get("/totals", h.GetTotalsHandler)

		// Deposits
		r.Post("/deposits", h.CreateDepositHandler)
		r.Get("/deposits", h.ListOwnDepositsHandler)

		// Withdrawals
		r.Post("/withdrawals", h.CreateWithdrawalHandler)
		r.Get("/withdrawals", h.ListOwnWithdrawalsHandler)

		// Catalog visible to users
		r.Get("/plans", h.ListPlansHandler)
		r.Get("/payment-methods", h.ListPaymentMethodsHandler)

		// Proof-of-payment uploads
		r.Post("/uploads/proof", h.UploadProofHandler)

		// Admin console. Role enforcement happens in the service layer.
		r.Route("/admin", func(r chi.Router) {
			r.Get("/deposits", h.AdminListDepositsHandler)
			r.Post("/deposits/{depositID}/approve", h.AdminApproveDepositHandler)
			r.Post("/deposits/{depositID}/decline", h.AdminDeclineDepositHandler)

			r.Get("/withdrawals", h.AdminListWithdrawalsHandler)
			r.Post("/withdrawals/{withdrawalID}/approve", h.AdminApproveWithdrawalHandler)
			r.Post("/withdrawals/{withdrawalID}/decline", h.AdminDeclineWithdrawalHandler)

			r.Get("/payment-methods", h.AdminListPaymentMethodsHandler)
			r.Post("/payment-methods", h.AdminCreatePaymentMethodHandler)
			r.Put("/payment-methods/{methodID}", h.AdminUpdatePaymentMethodHandler)
			r.Post("/payment-methods/{methodID}/enable", h.AdminEnablePaymentMethodHandler)
			r.Post("/payment-methods/{methodID}/disable", h.AdminDisablePaymentMethodHandler)
			r.Delete("/payment-methods/{methodID}", h.AdminDeletePaymentMethodHandler)

			r.Get("/plans", h.ListPlansHandler)
			r.Post("/plans", h.AdminCreatePlanHandler)
			r.Put("/plans/{planID}", h.AdminUpdatePlanHandler)
			r.Delete("/plans/{planID}", h.AdminDeletePlanHandler)

			r.Get("/profiles", h.AdminListProfilesHandler)
			r.Put("/profiles/{profileID}/ledger", h.AdminUpdateLedgerHandler)
			r.Post("/profiles/{profileID}/deactivate", h.AdminDeactivateProfileHandler)
			r.Delete("/profiles/{profileID}", h.AdminDeleteProfileHandler)
		})
	})

	return r
}
