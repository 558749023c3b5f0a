package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/facestudio/facestudio/internal/ledger"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/facestudio/facestudio/internal/payment"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentHandler confirms gateway payments and issues credits.
type PaymentHandler struct {
	db      *gorm.DB
	ledger  *ledger.Service
	gateway *payment.Client
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(db *gorm.DB, ledgerSvc *ledger.Service, gateway *payment.Client) *PaymentHandler {
	return &PaymentHandler{db: db, ledger: ledgerSvc, gateway: gateway}
}

// confirmPaymentRequest defines the request body for payment confirmation.
type confirmPaymentRequest struct {
	PaymentKey string `json:"payment_key"`
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
	PlanID     uint64 `json:"plan_id"`
}

// Confirm validates the order against the plan, asks the gateway to capture
// the payment and grants the plan's credits. The gateway response is the
// source of truth; credits are only issued after a successful capture.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body confirmPaymentRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.PaymentKey) == "" || strings.TrimSpace(body.OrderID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_key and order_id are required"})
		return
	}

	var plan models.PricingPlan
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND is_active = ?", body.PlanID, true).
		First(&plan).Error; errFind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan"})
		return
	}
	if plan.Price != body.Amount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount does not match plan price"})
		return
	}

	// Only a captured order blocks a retry. Failed rows stay retryable so a
	// declined card or a gateway outage does not brick the order forever.
	var existing models.Payment
	errDup := h.db.WithContext(c.Request.Context()).
		Where("order_id = ? AND status = ?", body.OrderID, models.PaymentStatusSucceeded).
		First(&existing).Error
	if errDup == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "order already processed"})
		return
	}
	if !errors.Is(errDup, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query payment failed"})
		return
	}

	confirmation, errConfirm := h.gateway.Confirm(c.Request.Context(), body.PaymentKey, body.OrderID, body.Amount)
	if errConfirm != nil {
		if !errors.Is(errConfirm, payment.ErrConfirmFailed) {
			log.WithError(errConfirm).WithField("order_id", body.OrderID).Warn("payment: gateway unreachable, order left retryable")
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable"})
			return
		}

		record := models.Payment{
			UserID:     userID,
			PlanID:     plan.ID,
			OrderID:    body.OrderID,
			PaymentKey: body.PaymentKey,
			Amount:     body.Amount,
			Currency:   "KRW",
			Status:     models.PaymentStatusFailed,
		}
		if errCreate := h.upsertPayment(c, &record); errCreate != nil {
			log.WithError(errCreate).Warn("payment: record failed confirmation")
		}
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "payment confirmation failed"})
		return
	}

	record := models.Payment{
		UserID:     userID,
		PlanID:     plan.ID,
		OrderID:    body.OrderID,
		PaymentKey: body.PaymentKey,
		Amount:     body.Amount,
		Currency:   confirmation.Currency,
		Method:     confirmation.Method,
		Status:     models.PaymentStatusSucceeded,
	}
	if errCreate := h.upsertPayment(c, &record); errCreate != nil {
		log.WithError(errCreate).WithField("order_id", body.OrderID).Error("payment: record captured payment failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment recorded at gateway but not locally, contact support"})
		return
	}

	source, errGrant := h.ledger.Grant(c.Request.Context(), userID, plan, fmt.Sprintf("Purchased %s (%d credits)", plan.Name, plan.Credits))
	if errGrant != nil {
		log.WithError(errGrant).WithField("order_id", body.OrderID).Error("payment: credit grant failed after capture")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment captured but credits not issued, contact support"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":  record.OrderID,
		"method":    record.Method,
		"credits":   plan.Credits,
		"source_id": source.ID,
	})
}

// upsertPayment writes the confirmation outcome for an order, replacing an
// earlier failed attempt under the same order_id.
func (h *PaymentHandler) upsertPayment(c *gin.Context, record *models.Payment) error {
	return h.db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payment_key", "amount", "currency", "method", "status"}),
	}).Create(record).Error
}
