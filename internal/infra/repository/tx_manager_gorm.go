package repository

import (
	"context"

	repo "academy/internal/repository"

	"gorm.io/gorm"
)

// トランザクション中だけ有効なrepo群。txを握ったDBから都度作る
type txRepos struct {
	tx *gorm.DB
}

func (r txRepos) Orders() repo.OrderRepository           { return NewOrderGormRepository(r.tx) }
func (r txRepos) OrderItems() repo.OrderItemRepository   { return NewOrderItemGormRepository(r.tx) }
func (r txRepos) Payments() repo.PaymentRepository       { return NewPaymentGormRepository(r.tx) }
func (r txRepos) Enrollments() repo.EnrollmentRepository { return NewEnrollmentGormRepository(r.tx) }
func (r txRepos) AuditLogs() repo.AuditLogRepository     { return NewAuditLogGormRepository(r.tx) }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

// fnがerrorを返すかpanicしたらロールバック
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txRepos{tx: tx})
	})
}
