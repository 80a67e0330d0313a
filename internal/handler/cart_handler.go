package handler

import (
	"context"
	"net/http"

	"academy/internal/middleware"
	"academy/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CartService interface {
	GetMyCart(ctx context.Context, userID int64) (usecase.CartSnapshot, error)
	AddItem(ctx context.Context, userID int64, courseID int64) (usecase.CartSnapshot, error)
	RemoveItem(ctx context.Context, userID int64, itemID int64) (usecase.CartSnapshot, error)
}

// /cartのHTTP
type CartHandler struct {
	uc CartService
}

// DI
func NewCartHandler(uc CartService) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartItemRequest struct {
	CourseID int64 `json:"course_id"`
}

// /cart, /cart/items/{id} を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, auth ...echo.MiddlewareFunc) {
	g := e.Group("/cart", auth...)

	g.GET("", h.getCart)
	g.POST("/items", h.addItem)
	g.DELETE("/items/:id", h.removeItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.GetMyCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.CourseID <= 0 {
		return badRequest(c, "course_id is required")
	}

	out, err := h.uc.AddItem(c.Request().Context(), userID, req.CourseID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CartHandler) removeItem(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), userID, itemID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
