package usecase

import (
	"context"
	"fmt"

	"academy/internal/domain/model"
	"academy/internal/infra/logging"
	"academy/internal/infra/metrics"
	"academy/internal/infra/storage"
	repo "academy/internal/repository"

	"go.uber.org/zap"
)

// BankTransferUsecase は振込明細を受け付け、管理者の審査待ちにする
type BankTransferUsecase struct {
	validator     *PaymentValidator
	payments      repo.PaymentRepository
	slipValidator SlipValidator
	storage       ObjectStorage
	dispatcher    *Dispatcher
	log           *zap.Logger
	metrics       *metrics.Checkout
}

func NewBankTransferUsecase(
	validator *PaymentValidator,
	payments repo.PaymentRepository,
	slipValidator SlipValidator,
	objects ObjectStorage,
	dispatcher *Dispatcher,
	log *zap.Logger,
	m *metrics.Checkout,
) *BankTransferUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &BankTransferUsecase{
		validator:     validator,
		payments:      payments,
		slipValidator: slipValidator,
		storage:       objects,
		dispatcher:    dispatcher,
		log:           log,
		metrics:       m,
	}
}

type slipSubmittedEvent struct {
	OrderID      int64  `json:"order_id"`
	UserID       int64  `json:"user_id"`
	PaymentID    int64  `json:"payment_id"`
	Amount       int64  `json:"amount"`
	SlipImageURL string `json:"slip_image_url"`
}

func (u *BankTransferUsecase) Pay(ctx context.Context, userID int64, orderID int64, slip SlipFile) (PaymentResult, error) {
	v, err := u.validator.Validate(ctx, userID, orderID)
	if err != nil {
		return PaymentResult{}, err
	}
	return u.Submit(ctx, v, slip)
}

func (u *BankTransferUsecase) Submit(ctx context.Context, v ValidatedOrder, slip SlipFile) (PaymentResult, error) {
	defer func() {
		if err := u.validator.Release(context.WithoutCancel(ctx), v); err != nil {
			u.log.Warn("release payment lease failed", logging.OrderID(v.Order.ID), zap.Error(err))
		}
	}()

	// 保存前に検証する（壊れたファイルは書かない）
	info, err := u.slipValidator.ValidateSlip(slip)
	if err != nil {
		if ue, ok := AsError(err); ok && ue.OrderID == 0 {
			ue.OrderID = v.Order.ID
		}
		return PaymentResult{}, err
	}

	log := u.log.With(logging.OrderID(v.Order.ID), logging.UserID(v.Order.UserID))

	if err := u.validator.ensureHeld(ctx, v); err != nil {
		return PaymentResult{}, err
	}

	stored, err := u.storage.Upload(ctx, storage.Object{
		Bytes:       slip.Bytes,
		Filename:    slip.Filename,
		ContentType: info.ContentType,
	}, fmt.Sprintf("slips/%d", v.Order.ID))
	if err != nil {
		return PaymentResult{}, fmt.Errorf("upload slip: %w", err)
	}

	// アップロード中に他の決済が進んでいたら取り消す
	if err := u.validator.ensureHeld(ctx, v); err != nil {
		u.deleteObject(log, stored.Path)
		return PaymentResult{}, err
	}

	url, path := stored.URL, stored.Path
	saved, err := u.payments.Create(ctx, model.Payment{
		OrderID:       v.Order.ID,
		UserID:        v.Order.UserID,
		PaymentType:   model.PaymentTypeBankTransfer,
		Status:        model.PaymentStatusPending,
		Amount:        v.ChargeAmount,
		SlipImageURL:  &url,
		SlipImagePath: &path,
	})
	if err != nil {
		u.deleteObject(log, stored.Path)
		return PaymentResult{}, fmt.Errorf("create payment: %w", err)
	}
	u.metrics.PaymentRecorded(string(model.PaymentTypeBankTransfer), string(model.PaymentStatusPending))
	log.Info("slip submitted", logging.PaymentID(saved.ID))

	u.dispatcher.Fire(EventSlipSubmitted, slipSubmittedEvent{
		OrderID:      v.Order.ID,
		UserID:       v.Order.UserID,
		PaymentID:    saved.ID,
		Amount:       saved.Amount,
		SlipImageURL: url,
	})

	return PaymentResult{
		PaymentID:    saved.ID,
		OrderID:      v.Order.ID,
		PaymentType:  model.PaymentTypeBankTransfer,
		Status:       model.PaymentStatusPending,
		OrderStatus:  model.OrderStatusPending,
		Amount:       saved.Amount,
		SlipImageURL: url,
	}, nil
}

func (u *BankTransferUsecase) deleteObject(log *zap.Logger, path string) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultNotifyTimeout)
	defer cancel()
	if err := u.storage.Delete(ctx, path); err != nil {
		log.Error("orphaned slip object", zap.String("path", path), zap.Error(err))
	}
}
