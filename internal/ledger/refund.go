package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/facestudio/facestudio/internal/models"
	"gorm.io/gorm"
)

// refundWindow is how long after purchase an unused source stays refundable.
const refundWindow = 7 * 24 * time.Hour

// RequestRefund validates eligibility and locks the source while the request
// awaits admin review. Eligibility requires an untouched active source
// younger than the refund window.
func (s *Service) RequestRefund(ctx context.Context, userID, sourceID uint64, reason string) (*models.RefundRequest, error) {
	var request models.RefundRequest

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var source models.CreditSource
		if errFind := lockForUpdate(tx).
			Where("id = ? AND user_id = ?", sourceID, userID).
			First(&source).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrSourceNotFound
			}
			return errFind
		}

		if source.RemainingCredits != source.InitialCredits {
			return fmt.Errorf("%w: %w", ErrRefundNotEligible, ErrSourcePartiallyUsed)
		}
		if time.Since(source.CreatedAt) >= refundWindow {
			return fmt.Errorf("%w: %w", ErrRefundNotEligible, ErrRefundWindowExpired)
		}
		if source.Status != models.SourceStatusActive {
			return fmt.Errorf("%w: %w", ErrRefundNotEligible, ErrSourceNotActive)
		}

		request = models.RefundRequest{
			UserID:   userID,
			SourceID: sourceID,
			Reason:   strings.TrimSpace(reason),
			Status:   models.RefundStatusPending,
		}
		if errCreate := tx.Create(&request).Error; errCreate != nil {
			return errCreate
		}

		return tx.Model(&models.CreditSource{}).
			Where("id = ?", sourceID).
			Update("status", models.SourceStatusPendingRefund).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &request, nil
}

// ProcessRefund resolves a pending refund request. Approval flips the source
// to refunded, decrements the balance by its remaining credits and logs a
// refund transaction; rejection unlocks the source with no balance change.
// The balance adjustment is explicit application logic committed atomically
// with the status change. Either outcome is terminal for the request.
func (s *Service) ProcessRefund(ctx context.Context, requestID uint64, approve bool, adminNote string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.RefundRequest
		if errFind := lockForUpdate(tx).First(&request, requestID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return errFind
		}
		if request.Status != models.RefundStatusPending {
			return ErrRequestResolved
		}

		var source models.CreditSource
		if errFind := lockForUpdate(tx).First(&source, request.SourceID).Error; errFind != nil {
			return errFind
		}

		status := models.RefundStatusRejected
		if approve {
			status = models.RefundStatusApproved
		}
		if errUpdate := tx.Model(&models.RefundRequest{}).
			Where("id = ?", request.ID).
			Updates(map[string]any{
				"status":     status,
				"admin_note": strings.TrimSpace(adminNote),
				"updated_at": time.Now().UTC(),
			}).Error; errUpdate != nil {
			return errUpdate
		}

		if !approve {
			return tx.Model(&models.CreditSource{}).
				Where("id = ?", source.ID).
				Update("status", models.SourceStatusActive).Error
		}

		if errUpdate := tx.Model(&models.CreditSource{}).
			Where("id = ?", source.ID).
			Update("status", models.SourceStatusRefunded).Error; errUpdate != nil {
			return errUpdate
		}

		transaction := models.CreditTransaction{
			UserID:      request.UserID,
			Amount:      source.RemainingCredits,
			Type:        models.TransactionTypeRefund,
			Description: fmt.Sprintf("Refund Approved (Source: %d)", source.ID),
		}
		if errCreate := tx.Create(&transaction).Error; errCreate != nil {
			return errCreate
		}

		return tx.Model(&models.User{}).
			Where("id = ?", request.UserID).
			Update("credits", gorm.Expr("credits - ?", source.RemainingCredits)).Error
	})
}
