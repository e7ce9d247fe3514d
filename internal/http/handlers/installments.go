package handlers

import (
	"net/http"
	"time"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/finance"
	"travelfinance/internal/services"
	"travelfinance/internal/utils"

	"github.com/gin-gonic/gin"
)

// planPayload accepts dates as YYYY-MM-DD, the format the booking screens send.
type planPayload struct {
	Balance      domain.Money `json:"balance"`
	Count        int          `json:"count"`
	IntervalDays int          `json:"interval_days"`
	StartDate    string       `json:"start_date"`
}

func (p planPayload) start() (*time.Time, error) {
	if utils.TrimOrEmpty(p.StartDate) == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(p.StartDate)
	if err != nil {
		return nil, domain.ValidationError{Field: "start_date", Msg: "expected YYYY-MM-DD", Err: err}
	}
	return &t, nil
}

// PreviewInstallments runs the planner on the posted figures; nothing is stored.
func (f *Finance) PreviewInstallments(c *gin.Context) {
	var p planPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	start, err := p.start()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	req := finance.PlanRequest{Balance: p.Balance, Count: p.Count, IntervalDays: p.IntervalDays}
	if start != nil {
		req.Start = *start
	}
	items, err := f.installments(c).Preview(req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": finance.KindOf(p.Count), "installments": items})
}

func (f *Finance) ListInstallments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := f.installments(c).List(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": id, "installments": items})
}

func (f *Finance) CreateInstallmentPlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var p planPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	start, err := p.start()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	res, err := f.installments(c).CreatePlan(c.Request.Context(), id,
		services.PlanInput{Count: p.Count, IntervalDays: p.IntervalDays, Start: start})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

type paidPayload struct {
	PaidAt string `json:"paid_at"`
}

// MarkInstallmentPaid accepts an optional "YYYY-MM-DD HH:MM:SS" paid_at;
// an empty body means now.
func (f *Finance) MarkInstallmentPaid(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var p paidPayload
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &p) {
		return
	}
	var at *time.Time
	if utils.TrimOrEmpty(p.PaidAt) != "" {
		t, err := utils.ParseDateTime(p.PaidAt)
		if err != nil {
			RespondDomainError(c, domain.ValidationError{Field: "paid_at", Msg: "expected YYYY-MM-DD HH:MM:SS", Err: err})
			return
		}
		at = &t
	}
	it, err := f.installments(c).MarkPaid(c.Request.Context(), id, at)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (f *Finance) MarkInstallmentUnpaid(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	it, err := f.installments(c).MarkUnpaid(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (f *Finance) DeleteInstallment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := f.installments(c).Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "installment deleted", "id": id})
}
