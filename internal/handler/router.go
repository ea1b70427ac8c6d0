package handler

import (
	"finledger/internal/config"
	"finledger/internal/infrastructure/lock"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, locker lock.Locker, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(RecoveryMiddleware(log))
	r.Use(CORSMiddleware())

	h := NewHandler(db, locker, cfg, log)

	v1 := r.Group("/api/v1")
	{
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", h.CreateAccount)
			accounts.GET("", h.ListAccounts)
			accounts.GET("/net-worth", h.NetWorth)
			accounts.GET("/:id", h.GetAccount)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.POST("", h.PostTransaction)
			transactions.GET("", h.ListTransactions)
			transactions.GET("/:id", h.GetTransaction)
			transactions.PUT("/:id", h.UpdateTransaction)
			transactions.POST("/:id/confirm", h.ConfirmTransaction)
			transactions.DELETE("/:id", h.DeleteTransaction)
		}

		transfers := v1.Group("/transfers")
		{
			transfers.POST("", h.PostTransfer)
			transfers.GET("/:id", h.GetTransfer)
			transfers.DELETE("/:id", h.DeleteTransfer)
		}

		debts := v1.Group("/debts")
		{
			debts.POST("", h.CreateDebt)
			debts.GET("", h.ListDebts)
			debts.GET("/:id", h.GetDebt)
			debts.DELETE("/:id", h.DeleteDebt)
			debts.POST("/:id/payments", h.PostDebtPayment)
			debts.GET("/:id/payments", h.ListDebtPayments)
			debts.DELETE("/payments/:id", h.DeleteDebtPayment)
		}

		envelopes := v1.Group("/envelopes")
		{
			envelopes.POST("", h.CreateEnvelope)
			envelopes.GET("", h.ListEnvelopes)
			envelopes.GET("/:id", h.GetEnvelope)
			envelopes.POST("/:id/allocations", h.Allocate)
			envelopes.DELETE("/allocations/:id", h.DeleteAllocation)
		}

		recurring := v1.Group("/recurring")
		{
			recurring.POST("", h.CreateTemplate)
			recurring.GET("", h.ListTemplates)
			recurring.POST("/sweep", h.Sweep)
			recurring.PUT("/:id", h.UpdateTemplate)
			recurring.DELETE("/:id", h.DeactivateTemplate)
			recurring.POST("/:id/materialize", h.Materialize)
		}

		currencies := v1.Group("/currencies")
		{
			currencies.PUT("", h.UpsertCurrency)
			currencies.GET("", h.ListCurrencies)
			currencies.GET("/convert", h.Convert)
		}

		types := v1.Group("/types")
		{
			types.POST("", h.CreateType)
			types.GET("", h.ListTypes)
			types.POST("/:id/subtypes", h.CreateSubtype)
		}

		v1.POST("/admin/recalculate", h.Recalculate)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
