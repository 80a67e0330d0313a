package repository

import (
	"context"
	"time"

	"academy/internal/domain/model"
	repo "academy/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if isNotFound(err) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

// 条件付き更新。別の処理が先に遷移させていたら false
func (r *OrderGormRepository) UpdateStatusIf(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]interface{}{
			"status":              to,
			"payment_lease_token": "",
			"payment_lease_until": nil,
			"updated_at":          time.Now(),
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// pending でリースが空いているときだけ取る。1文のUPDATEなので同時に来ても勝つのは1つ
func (r *OrderGormRepository) ClaimPaymentLease(ctx context.Context, orderID int64, token string, now time.Time, until time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusPending).
		Where("payment_lease_token = '' OR payment_lease_until IS NULL OR payment_lease_until < ?", now).
		// 審査待ちなどの pending 決済が残っている注文は取らせない
		Where("NOT EXISTS (SELECT 1 FROM payments p WHERE p.order_id = orders.id AND p.status = ?)", model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_lease_token": token,
			"payment_lease_until": until,
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderGormRepository) HoldsPaymentLease(ctx context.Context, orderID int64, token string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ? AND payment_lease_token = ? AND payment_lease_until >= ?",
			orderID, model.OrderStatusPending, token, now).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 1, nil
}

// 自分のリースだけ外す
func (r *OrderGormRepository) ReleasePaymentLease(ctx context.Context, orderID int64, token string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_lease_token = ?", orderID, token).
		Updates(map[string]interface{}{
			"payment_lease_token": "",
			"payment_lease_until": nil,
		}).Error
}
