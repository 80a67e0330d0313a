package handler

import (
	"context"
	"net/http"
	"strconv"

	"academy/internal/domain/model"
	"academy/internal/middleware"
	"academy/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentReviewer interface {
	ListPending(ctx context.Context, page int, limit int) (usecase.PaymentListOutput, error)
	Approve(ctx context.Context, adminID int64, paymentID int64) (usecase.ReviewOutput, error)
	Reject(ctx context.Context, adminID int64, paymentID int64, reason string) (usecase.ReviewOutput, error)
	History(ctx context.Context, paymentID int64) ([]model.AuditLog, error)
}

// 振込明細の審査（ADMIN）
type AdminPaymentHandler struct {
	uc PaymentReviewer
}

func NewAdminPaymentHandler(uc PaymentReviewer) *AdminPaymentHandler {
	return &AdminPaymentHandler{uc: uc}
}

type RejectPaymentRequest struct {
	Reason string `json:"reason"`
}

// auth の最後に AdminRoleGuard を足す
func (h *AdminPaymentHandler) RegisterRoutes(e *echo.Echo, auth ...echo.MiddlewareFunc) {
	mws := make([]echo.MiddlewareFunc, 0, len(auth)+1)
	mws = append(mws, auth...)
	mws = append(mws, middleware.AdminRoleGuard())
	admin := e.Group("/admin", mws...)

	admin.GET("/payments/pending", h.listPending)
	admin.POST("/payments/:id/approve", h.approve)
	admin.POST("/payments/:id/reject", h.reject)
	admin.GET("/payments/:id/audit-logs", h.history)
}

func (h *AdminPaymentHandler) listPending(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid page")
		}
		page = p
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		limit = l
	}

	out, err := h.uc.ListPending(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminPaymentHandler) approve(c echo.Context) error {
	adminID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.Approve(c.Request().Context(), adminID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminPaymentHandler) reject(c echo.Context) error {
	adminID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req RejectPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Reject(c.Request().Context(), adminID, id, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminPaymentHandler) history(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.History(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
