package usecase

import (
	"errors"
	"fmt"
)

// Kind はチェックアウト処理で呼び出し側に返す失敗の種類
type Kind string

const (
	KindCourseNotFound       Kind = "COURSE_NOT_FOUND"
	KindDuplicateItem        Kind = "DUPLICATE_ITEM"
	KindNotFound             Kind = "NOT_FOUND"
	KindForbidden            Kind = "FORBIDDEN"
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindOrderNotFound        Kind = "ORDER_NOT_FOUND"
	KindAccessDenied         Kind = "ACCESS_DENIED"
	KindAlreadyProcessed     Kind = "ALREADY_PROCESSED"
	KindEmptyOrder           Kind = "EMPTY_ORDER"
	KindBelowMinimumAmount   Kind = "BELOW_MINIMUM_AMOUNT"
	KindInvalidCard          Kind = "INVALID_CARD"
	KindExpiredCard          Kind = "EXPIRED_CARD"
	KindInsufficientFunds    Kind = "INSUFFICIENT_FUNDS"
	KindDeclined             Kind = "DECLINED"
	KindGatewayUnavailable   Kind = "GATEWAY_UNAVAILABLE"
	KindFileTooLarge         Kind = "FILE_TOO_LARGE"
	KindUnsupportedType      Kind = "UNSUPPORTED_TYPE"
	KindSignatureMismatch    Kind = "SIGNATURE_MISMATCH"
	KindDimensionOutOfRange  Kind = "DIMENSION_OUT_OF_RANGE"
	KindSettlementIncomplete Kind = "SETTLEMENT_INCOMPLETE"
	KindInvalidCoupon        Kind = "INVALID_COUPON"
)

// Retryable: 同じ入力で再実行すれば通る可能性がある
func (k Kind) Retryable() bool {
	switch k {
	case KindGatewayUnavailable, KindSettlementIncomplete:
		return true
	default:
		return false
	}
}

// Error はユースケース層の業務エラー
type Error struct {
	Kind             Kind
	Message          string
	OrderID          int64
	PaymentID        int64
	MissingCourseIDs []int64
	// 原因（ログ用。レスポンスには出さない）
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func AsError(err error) (*Error, bool) {
	var ue *Error
	ok := errors.As(err, &ue)
	return ue, ok
}

// IsKind は err が指定の Kind か
func IsKind(err error, kind Kind) bool {
	ue, ok := AsError(err)
	return ok && ue.Kind == kind
}
