package handlers

import (
	"net/http"

	"travelfinance/internal/services"

	"github.com/gin-gonic/gin"
)

// GetReconciliation shows the booking's allocation and derived status
// without writing anything.
func (f *Finance) GetReconciliation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := f.payments(c).View(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (f *Finance) Reconcile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := f.payments(c).Reconcile(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (f *Finance) CancelBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := f.payments(c).CancelBooking(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (f *Finance) RecordPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in services.PaymentInput
	if !BindJSONOrError(c, &in) {
		return
	}
	event, rec, err := f.payments(c).RecordPayment(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": event, "reconciliation": rec})
}

func (f *Finance) RevertPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := f.payments(c).RevertPayment(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (f *Finance) DeletePayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := f.payments(c).DeletePayment(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
