package repository

import (
	"context"
	"time"

	"academy/internal/domain/model"
	repo "academy/internal/repository"

	"gorm.io/gorm"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) Create(ctx context.Context, p model.Payment) (model.Payment, error) {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

func (r *PaymentGormRepository) FindByID(ctx context.Context, paymentID int64) (model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).First(&p, paymentID).Error
	if isNotFound(err) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

func (r *PaymentGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.Payment, error) {
	var items []model.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.Payment{}, err
	}
	return items, nil
}

// 結果待ちの試行が残っているか
func (r *PaymentGormRepository) HasPendingByOrderID(ctx context.Context, orderID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("order_id = ? AND status = ?", orderID, model.PaymentStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PaymentGormRepository) List(ctx context.Context, f repo.PaymentListFilter) ([]model.Payment, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Payment{})

	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.PaymentType != nil {
		q = q.Where("payment_type = ?", *f.PaymentType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Payment{}, 0, err
	}

	var items []model.Payment
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id asc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Payment{}, 0, err
	}
	return items, total, nil
}

func (r *PaymentGormRepository) UpdateStatusIf(ctx context.Context, paymentID int64, from model.PaymentStatus, to model.PaymentStatus, failureCode *string) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if failureCode != nil {
		updates["failure_code"] = *failureCode
	}

	res := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", paymentID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PaymentGormRepository) ReviewIfPending(ctx context.Context, paymentID int64, to model.PaymentStatus, review repo.PaymentReview) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", paymentID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":        to,
			"reviewed_by":   review.ReviewerID,
			"reviewed_at":   review.ReviewedAt,
			"reject_reason": review.RejectReason,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// 決済は成功したのに注文が pending のまま（受講登録が終わっていない）もの
func (r *PaymentGormRepository) ListSuccessfulWithPendingOrder(ctx context.Context, limit int) ([]model.Payment, error) {
	var items []model.Payment
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("payments.status = ? AND orders.status = ?", model.PaymentStatusSuccessful, model.OrderStatusPending).
		Order("payments.id asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return []model.Payment{}, err
	}
	return items, nil
}

// ゲートウェイ側で処理中のままのカード決済
func (r *PaymentGormRepository) ListPendingCardOlderThan(ctx context.Context, before time.Time, limit int) ([]model.Payment, error) {
	var items []model.Payment
	err := r.db.WithContext(ctx).
		Where("payment_type = ? AND status = ? AND gateway_charge_id IS NOT NULL AND created_at < ?",
			model.PaymentTypeCard, model.PaymentStatusPending, before).
		Order("id asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return []model.Payment{}, err
	}
	return items, nil
}
