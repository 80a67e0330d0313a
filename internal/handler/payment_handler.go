package handler

import (
	"context"
	"io"
	"net/http"

	"academy/internal/middleware"
	"academy/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CardPayer interface {
	Pay(ctx context.Context, userID int64, orderID int64, cardToken string) (usecase.PaymentResult, error)
}

type SlipPayer interface {
	Pay(ctx context.Context, userID int64, orderID int64, slip usecase.SlipFile) (usecase.PaymentResult, error)
}

// /orders/{id}/payments/* のHTTP
type PaymentHandler struct {
	card CardPayer
	bank SlipPayer
	// 明細の読み込み上限。これを超えた分は読まない
	maxSlipBytes int64
}

func NewPaymentHandler(card CardPayer, bank SlipPayer, maxSlipBytes int64) *PaymentHandler {
	return &PaymentHandler{card: card, bank: bank, maxSlipBytes: maxSlipBytes}
}

type CardPaymentRequest struct {
	CardToken string `json:"card_token"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, auth ...echo.MiddlewareFunc) {
	g := e.Group("/orders/:id/payments", auth...)

	g.POST("/card", h.payByCard)
	g.POST("/bank-transfer", h.payByBankTransfer)
}

func (h *PaymentHandler) payByCard(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req CardPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.CardToken == "" {
		return badRequest(c, "card_token is required")
	}

	out, err := h.card.Pay(c.Request().Context(), userID, orderID, req.CardToken)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// multipart/form-data の slip フィールドで受け取る
func (h *PaymentHandler) payByBankTransfer(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	fh, err := c.FormFile("slip")
	if err != nil {
		return badRequest(c, "slip file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "slip file is unreadable")
	}
	defer f.Close()

	// 上限+1まで読めばサイズ超過は判定できる
	body, err := io.ReadAll(io.LimitReader(f, h.maxSlipBytes+1))
	if err != nil {
		return badRequest(c, "slip file is unreadable")
	}

	out, err := h.bank.Pay(c.Request().Context(), userID, orderID, usecase.SlipFile{
		Bytes:       body,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
	})
	if err != nil {
		return writeError(c, err)
	}
	// 審査待ち
	return c.JSON(http.StatusAccepted, out)
}
