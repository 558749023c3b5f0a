package ledger

import (
	"context"
	"fmt"
	"time"

	dbutil "github.com/facestudio/facestudio/internal/db"
	"github.com/facestudio/facestudio/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service implements the credit ledger: FIFO deduction over sources,
// purchase grants and balance reconciliation.
type Service struct {
	db *gorm.DB
}

// NewService constructs a ledger Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// lockForUpdate adds a row lock on dialects that support it. SQLite has no
// row locks; its single-writer model covers the read-modify-write sequence.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if dbutil.IsSQLite(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Deduct consumes cost credits from the user's active sources, oldest first.
// The balance check, source decrements, usage transaction and consumption
// records are committed as one atomic unit. imageID links the consumption
// rows to a generated image when supplied.
func (s *Service) Deduct(ctx context.Context, userID uint64, cost int64, imageID *uint64) error {
	if cost <= 0 {
		return fmt.Errorf("ledger: invalid cost %d", cost)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if errFind := lockForUpdate(tx).First(&user, userID).Error; errFind != nil {
			return errFind
		}
		if user.Credits < cost {
			return ErrInsufficientCredits
		}

		var sources []models.CreditSource
		if errFind := lockForUpdate(tx).
			Where("user_id = ? AND status = ? AND remaining_credits > 0", userID, models.SourceStatusActive).
			Order("created_at ASC, id ASC").
			Find(&sources).Error; errFind != nil {
			return errFind
		}

		type draw struct {
			sourceID uint64
			amount   int64
		}
		left := cost
		var draws []draw
		for i := range sources {
			if left <= 0 {
				break
			}
			source := &sources[i]
			amount := source.RemainingCredits
			if amount > left {
				amount = left
			}

			updates := map[string]any{
				"remaining_credits": gorm.Expr("remaining_credits - ?", amount),
				"updated_at":        time.Now().UTC(),
			}
			if source.RemainingCredits == amount {
				updates["status"] = models.SourceStatusExhausted
			}
			if errUpdate := tx.Model(&models.CreditSource{}).
				Where("id = ?", source.ID).
				Updates(updates).Error; errUpdate != nil {
				return errUpdate
			}

			left -= amount
			draws = append(draws, draw{sourceID: source.ID, amount: amount})
		}

		if left > 0 {
			log.WithFields(log.Fields{
				"user_id": userID,
				"cost":    cost,
				"short":   left,
			}).Error("ledger: aggregate balance covers cost but active sources do not")
			return ErrLedgerInconsistency
		}

		transaction := models.CreditTransaction{
			UserID:      userID,
			Amount:      -cost,
			Type:        models.TransactionTypeUsage,
			Description: fmt.Sprintf("Image Generation (%d credits)", cost),
		}
		if errCreate := tx.Create(&transaction).Error; errCreate != nil {
			return errCreate
		}

		for _, d := range draws {
			consumption := models.CreditConsumption{
				UserID:         userID,
				SourceID:       d.sourceID,
				TransactionID:  transaction.ID,
				AmountDeducted: d.amount,
				ImageID:        imageID,
			}
			if errCreate := tx.Create(&consumption).Error; errCreate != nil {
				return errCreate
			}
		}

		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("credits", gorm.Expr("credits - ?", cost)).Error
	})
}

// Grant creates an active credit source for a confirmed purchase, logs the
// purchase transaction and increments the balance, all atomically.
func (s *Service) Grant(ctx context.Context, userID uint64, plan models.PricingPlan, description string) (*models.CreditSource, error) {
	source := models.CreditSource{
		UserID:           userID,
		PlanID:           plan.ID,
		InitialCredits:   plan.Credits,
		RemainingCredits: plan.Credits,
		Status:           models.SourceStatusActive,
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&source).Error; errCreate != nil {
			return errCreate
		}

		transaction := models.CreditTransaction{
			UserID:      userID,
			Amount:      plan.Credits,
			Type:        models.TransactionTypePurchase,
			Description: description,
		}
		if errCreate := tx.Create(&transaction).Error; errCreate != nil {
			return errCreate
		}

		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("credits", gorm.Expr("credits + ?", plan.Credits)).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &source, nil
}

// Balance returns the user's denormalized aggregate credit balance.
func (s *Service) Balance(ctx context.Context, userID uint64) (int64, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).Select("credits").First(&user, userID).Error; errFind != nil {
		return 0, errFind
	}
	return user.Credits, nil
}

// Rebalance recomputes the aggregate balance from active source sums. The
// source sum is authoritative; the user row is a cache repaired here.
func (s *Service) Rebalance(ctx context.Context, userID uint64) (int64, error) {
	var total int64
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errSum := tx.Model(&models.CreditSource{}).
			Where("user_id = ? AND status = ?", userID, models.SourceStatusActive).
			Select("COALESCE(SUM(remaining_credits), 0)").
			Scan(&total).Error; errSum != nil {
			return errSum
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("credits", total).Error
	})
	if errTx != nil {
		return 0, errTx
	}
	return total, nil
}
