package handlers

import (
	"time"

	"travelfinance/internal/http/middleware"
	"travelfinance/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Finance serves the reconciliation, installment and report endpoints.
// Services are built per request so each carries its request_id.
type Finance struct {
	Store            services.LedgerStore
	Reader           services.BookingReader
	Source           services.ReportSource
	Cache            services.ReportCache
	Locks            *services.BookingLocks
	CacheTTL         time.Duration
	FareExpenseShare decimal.Decimal
	Now              func() time.Time
}

func (f *Finance) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Finance) payments(c *gin.Context) services.PaymentService {
	return services.PaymentService{
		Store:     f.Store,
		Reader:    f.Reader,
		Locks:     f.Locks,
		RequestID: middleware.GetRequestID(c),
		Now:       f.Now,
	}
}

func (f *Finance) installments(c *gin.Context) services.InstallmentService {
	return services.InstallmentService{
		Store:     f.Store,
		Reader:    f.Reader,
		Locks:     f.Locks,
		RequestID: middleware.GetRequestID(c),
		Now:       f.Now,
	}
}

func (f *Finance) reports(c *gin.Context) services.ReportsService {
	return services.ReportsService{
		Source:           f.Source,
		Cache:            f.Cache,
		CacheTTL:         f.CacheTTL,
		FareExpenseShare: f.FareExpenseShare,
		RequestID:        middleware.GetRequestID(c),
		Now:              f.Now,
	}
}
