package repository

import (
	"context"
	"time"

	"academy/internal/domain/model"
)

type PaymentListFilter struct {
	Status      *model.PaymentStatus
	PaymentType *model.PaymentType
	Page        int
	Limit       int
}

// 審査結果
type PaymentReview struct {
	ReviewerID   int64
	ReviewedAt   time.Time
	RejectReason *string
}

type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (model.Payment, error)
	FindByID(ctx context.Context, paymentID int64) (model.Payment, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.Payment, error)
	HasPendingByOrderID(ctx context.Context, orderID int64) (bool, error)
	List(ctx context.Context, f PaymentListFilter) ([]model.Payment, int64, error)

	// from のときだけ to に変える。変わったら true
	UpdateStatusIf(ctx context.Context, paymentID int64, from model.PaymentStatus, to model.PaymentStatus, failureCode *string) (bool, error)
	// 振込の審査結果を残しつつ pending から遷移する
	ReviewIfPending(ctx context.Context, paymentID int64, to model.PaymentStatus, review PaymentReview) (bool, error)

	// 照合ジョブ用
	ListSuccessfulWithPendingOrder(ctx context.Context, limit int) ([]model.Payment, error)
	ListPendingCardOlderThan(ctx context.Context, before time.Time, limit int) ([]model.Payment, error)
}
