package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Skotchmaster/rocketshoes/internal/cart"
	"github.com/Skotchmaster/rocketshoes/internal/logging"
	"github.com/Skotchmaster/rocketshoes/internal/models"
	"github.com/Skotchmaster/rocketshoes/internal/transport"
	"github.com/labstack/echo/v4"
)

type CartStore interface {
	Cart() []models.Product
	Summary() cart.Summary
	AddProduct(ctx context.Context, productID int) error
	RemoveProduct(ctx context.Context, productID int) error
	UpdateProductAmount(ctx context.Context, productID, amount int) error
}

type CartHTTP struct {
	Store CartStore
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	return c.JSON(http.StatusOK, h.response())
}

func (h *CartHTTP) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Store.Summary())
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ProductID <= 0 {
		l.Warn("add_item_error", "status", 400, "reason", "product_id required")
		return echo.NewHTTPError(http.StatusBadRequest, "product_id required")
	}

	if err := h.Store.AddProduct(ctx, req.ProductID); err != nil {
		return h.failure(c, l, "add_item_error", err)
	}
	return c.JSON(http.StatusOK, h.response())
}

func (h *CartHTTP) UpdateAmount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_amount")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("update_amount_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	var req transport.UpdateAmountRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_amount_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Store.UpdateProductAmount(ctx, id, req.Amount); err != nil {
		return h.failure(c, l, "update_amount_error", err)
	}
	return c.JSON(http.StatusOK, h.response())
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("remove_item_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	if err := h.Store.RemoveProduct(ctx, id); err != nil {
		return h.failure(c, l, "remove_item_error", err)
	}
	return c.JSON(http.StatusOK, h.response())
}

func (h *CartHTTP) response() transport.CartResponse {
	return transport.CartResponse{Cart: h.Store.Cart(), Summary: h.Store.Summary()}
}

// failure answers with the shopper-facing message; the store has already
// logged the cause.
func (h *CartHTTP) failure(c echo.Context, l *slog.Logger, event string, err error) error {
	status := statusFor(err)
	l.Debug(event, "status", status, "error", err)

	msg := cart.Message(err)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return c.JSON(status, transport.ErrorResponse{Message: msg, Cart: h.Store.Cart()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cart.ErrNotInCart):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrStockExceeded):
		return http.StatusConflict
	case errors.Is(err, cart.ErrRemote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
