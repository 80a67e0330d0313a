package handler

import (
	"net/http"
	"strconv"

	"academy/internal/middleware"
	"academy/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error            string  `json:"error"`
	Code             string  `json:"code,omitempty"`
	Retryable        bool    `json:"retryable,omitempty"`
	OrderID          int64   `json:"order_id,omitempty"`
	PaymentID        int64   `json:"payment_id,omitempty"`
	MissingCourseIDs []int64 `json:"missing_course_ids,omitempty"`
}

// Kind → HTTPステータス
func statusFor(k usecase.Kind) int {
	switch k {
	case usecase.KindInvalidInput:
		return http.StatusBadRequest
	case usecase.KindForbidden, usecase.KindAccessDenied:
		return http.StatusForbidden
	case usecase.KindNotFound, usecase.KindOrderNotFound, usecase.KindCourseNotFound:
		return http.StatusNotFound
	case usecase.KindDuplicateItem, usecase.KindAlreadyProcessed:
		return http.StatusConflict
	case usecase.KindEmptyOrder, usecase.KindBelowMinimumAmount, usecase.KindInvalidCoupon,
		usecase.KindSignatureMismatch, usecase.KindDimensionOutOfRange:
		return http.StatusUnprocessableEntity
	case usecase.KindInvalidCard, usecase.KindExpiredCard, usecase.KindInsufficientFunds, usecase.KindDeclined:
		return http.StatusPaymentRequired
	case usecase.KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case usecase.KindUnsupportedType:
		return http.StatusUnsupportedMediaType
	case usecase.KindGatewayUnavailable, usecase.KindSettlementIncomplete:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ue, ok := usecase.AsError(err); ok {
		status := statusFor(ue.Kind)
		if status == http.StatusInternalServerError || ue.Kind.Retryable() {
			logFor(c).Warn("request failed", zap.String("kind", string(ue.Kind)), zap.Error(err))
		}
		return c.JSON(status, ErrorResponse{
			Error:            ue.Message,
			Code:             string(ue.Kind),
			Retryable:        ue.Kind.Retryable(),
			OrderID:          ue.OrderID,
			PaymentID:        ue.PaymentID,
			MissingCourseIDs: ue.MissingCourseIDs,
		})
	}

	//500。中身はログにだけ出す
	logFor(c).Error("unexpected error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: string(usecase.KindInvalidInput)})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
}

func logFor(c echo.Context) *zap.Logger {
	l := zap.L().With(zap.String("route", c.Path()))
	if uid, ok := middleware.UserID(c); ok {
		l = l.With(zap.Int64("user_id", uid))
	}
	return l
}

func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
