package api

import (
	stdhttp "net/http"

	intconfig "travelfinance/internal/config"
	h "travelfinance/internal/http/handlers"
	"travelfinance/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(env intconfig.Env, fin *h.Finance) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		zap.L().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":      "route not found",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": middleware.GetRequestID(c),
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		// Reports
		reports := api.Group("/reports")
		reports.GET("/finance", fin.GetFinanceReport)
		reports.GET("/finance/trips/:id", fin.GetTripReport)

		// Bookings
		bookings := api.Group("/bookings")
		bookings.GET("/:id/reconciliation", fin.GetReconciliation)
		bookings.POST("/:id/reconcile", fin.Reconcile)
		bookings.POST("/:id/cancel", fin.CancelBooking)
		bookings.POST("/:id/payments", fin.RecordPayment)
		bookings.GET("/:id/installments", fin.ListInstallments)
		bookings.POST("/:id/installments", fin.CreateInstallmentPlan)

		// Payments
		payments := api.Group("/payments")
		payments.PUT("/:id/revert", fin.RevertPayment)
		payments.DELETE("/:id", fin.DeletePayment)

		// Installments
		installments := api.Group("/installments")
		installments.POST("/preview", fin.PreviewInstallments)
		installments.PUT("/:id/paid", fin.MarkInstallmentPaid)
		installments.PUT("/:id/unpaid", fin.MarkInstallmentUnpaid)
		installments.DELETE("/:id", fin.DeleteInstallment)
	}

	h.SetRouter(r)
	return r
}
