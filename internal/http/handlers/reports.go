package handlers

import (
	"net/http"
	"strconv"

	"travelfinance/internal/utils"

	"github.com/gin-gonic/gin"
)

// GetFinanceReport serves GET /api/reports/finance?start_date=&end_date=
// Missing dates default to the current month; refresh=true skips the cache.
func (f *Finance) GetFinanceReport(c *gin.Context) {
	w, err := utils.ParseWindow(c.Query("start_date"), c.Query("end_date"), f.now())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	svc := f.reports(c)
	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		if err := svc.InvalidateFinanceReport(c.Request.Context(), w); err != nil {
			utils.LogWarn(svc.RequestID, "report", "cache_delete", "report cache not cleared", err)
		}
	}
	report, err := svc.GetFinanceReport(c.Request.Context(), w)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetTripReport serves GET /api/reports/finance/trips/:id
func (f *Finance) GetTripReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := f.reports(c).GetTripReport(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
