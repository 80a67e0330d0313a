// Package gateway はカード決済ゲートウェイとのやり取りを扱う。
package gateway

import (
	"errors"
	"fmt"
)

// ChargeRequest の Amount は最小通貨単位
type ChargeRequest struct {
	Amount         int64
	Currency       string
	CardToken      string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

// ChargeResult はゲートウェイが返したチャージの状態
type ChargeResult struct {
	ID             string `json:"id"`
	Amount         int64  `json:"amount"`
	Paid           bool   `json:"paid"`
	Status         string `json:"status"`
	FailureCode    string `json:"failure_code"`
	FailureMessage string `json:"failure_message"`
}

// ChargeOutcome はチャージ結果をこちらの決済ステータスに寄せたもの
type ChargeOutcome string

const (
	OutcomeSuccessful ChargeOutcome = "successful"
	OutcomeFailed     ChargeOutcome = "failed"
	// ゲートウェイ側でまだ処理中。成功とも失敗とも扱わない
	OutcomePending ChargeOutcome = "pending"
)

// MapChargeStatus: paid → 成功 / 未払い+失敗コード → 失敗 / 未払いのみ → 処理中
func MapChargeStatus(r ChargeResult) ChargeOutcome {
	if r.Paid {
		return OutcomeSuccessful
	}
	if r.FailureCode != "" {
		return OutcomeFailed
	}
	return OutcomePending
}

// Category はユーザー向けに出し分けるゲートウェイエラーの分類
type Category string

const (
	CategoryInvalidCard       Category = "INVALID_CARD"
	CategoryExpiredCard       Category = "EXPIRED_CARD"
	CategoryInsufficientFunds Category = "INSUFFICIENT_FUNDS"
	CategoryDeclined          Category = "DECLINED"
	CategoryUnavailable       Category = "GATEWAY_UNAVAILABLE"
)

// Error はゲートウェイが拒否した、または到達できなかったときのエラー
type Error struct {
	Category Category
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s (%s): %v", e.Category, e.Code, e.Err)
	}
	return fmt.Sprintf("gateway %s (%s): %s", e.Category, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func AsError(err error) (*Error, bool) {
	var ge *Error
	ok := errors.As(err, &ge)
	return ge, ok
}

// ClassifyCode はゲートウェイのエラーコード・失敗コードを分類に寄せる
func ClassifyCode(code string) Category {
	switch code {
	case "invalid_card", "invalid_security_code", "invalid_card_number", "used_token", "invalid_account_number":
		return CategoryInvalidCard
	case "expired_card", "invalid_expiration_date":
		return CategoryExpiredCard
	case "insufficient_fund", "insufficient_funds", "insufficient_balance":
		return CategoryInsufficientFunds
	case "service_not_found", "timeout", "internal_error", "service_unavailable":
		return CategoryUnavailable
	default:
		// payment_rejected, stolen_or_lost_card, failed_fraud_check, failed_processing など
		return CategoryDeclined
	}
}
