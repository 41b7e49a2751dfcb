package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"marketplace/models"
)

// Routes собирает chi-роутер со всеми маршрутами API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.Log))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		// авторизация
		r.Post("/auth/signup", h.SignUpHandler)
		r.Post("/auth/signin", h.SignInHandler)
		r.Post("/auth/signout", h.SignOutHandler)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			// доступно и неподтверждённым аккаунтам
			r.Get("/me", h.MeHandler)
			r.Patch("/me", h.UpdateMeHandler)
			r.Get("/notifications", h.ListNotificationsHandler)
			r.Post("/notifications/{notificationId}/read", h.MarkNotificationReadHandler)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(models.RoleClient, models.RoleSupplier, models.RoleAdmin))
				r.Get("/categories", h.ListCategoriesHandler)
				r.Get("/catalog", h.ListCatalogHandler)
				r.Get("/suppliers/{supplierId}/ratings", h.ListSupplierRatingsHandler)

				// заказы
				r.Get("/orders", h.ListOrdersHandler)
				r.Get("/orders/{orderId}", h.GetOrderHandler)
				r.Get("/orders/{orderId}/history", h.GetOrderHistoryHandler)
				r.Patch("/orders/{orderId}/status", h.UpdateOrderStatusHandler)
			})

			// клиент: запросы котировок
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(models.RoleClient))
				r.Post("/rfqs", h.CreateRFQHandler)
				r.Get("/rfqs", h.ListMyRFQsHandler)
				r.Post("/rfqs/{rfqId}/cancel", h.CancelRFQHandler)
				r.Post("/quotes/{quoteId}/accept", h.AcceptQuoteHandler)
				r.Post("/orders/{orderId}/rating", h.RateOrderHandler)
			})
			r.With(RequireRole(models.RoleClient, models.RoleAdmin)).Get("/rfqs/{rfqId}", h.GetRFQHandler)

			// поставщик: товары и предложения
			r.Route("/supplier", func(r chi.Router) {
				r.Use(RequireRole(models.RoleSupplier))
				r.Get("/items", h.ListInventoryHandler)
				r.Post("/items", h.CreateItemHandler)
				r.Put("/items/{itemId}", h.UpdateItemHandler)
				r.Delete("/items/{itemId}", h.DeleteItemHandler)
				r.Get("/rfqs", h.ListOpportunitiesHandler)
				r.Get("/quotes", h.ListMyQuotesHandler)
			})
			r.With(RequireRole(models.RoleSupplier)).Post("/rfqs/{rfqId}/quotes", h.SubmitQuoteHandler)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(models.RoleAdmin))
				r.Get("/users", h.ListUsersHandler)
				r.Patch("/users/{userId}/status", h.SetUserStatusHandler)
				r.Get("/items", h.ListItemsHandler)
				r.Patch("/items/{itemId}/status", h.SetItemStatusHandler)
				r.Get("/margin-rules", h.ListMarginRulesHandler)
				r.Post("/margin-rules", h.CreateMarginRuleHandler)
				r.Put("/margin-rules/{ruleId}", h.UpdateMarginRuleHandler)
				r.Post("/expire", h.ExpireStaleHandler)
				r.Get("/orders/export", h.ExportOrdersHandler)
			})
		})
	})
	return r
}
