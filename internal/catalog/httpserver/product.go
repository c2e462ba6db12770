package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Skotchmaster/rocketshoes/internal/catalog/service"
	"github.com/Skotchmaster/rocketshoes/internal/logging"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			l.Warn("get_product_failed", "status", 404, "reason", "product not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrValidation):
			l.Warn("get_product_failed", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
		default:
			l.Error("get_product_failed", "status", 500, "reason", "cannot get product", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
		}
	}

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "stock.get_stock")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("get_stock_failed", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	stock, err := h.Svc.GetStock(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			l.Warn("get_stock_failed", "status", 404, "reason", "stock not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "stock not found")
		case errors.Is(err, service.ErrValidation):
			l.Warn("get_stock_failed", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
		default:
			l.Error("get_stock_failed", "status", 500, "reason", "cannot get stock", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot get stock")
		}
	}

	return c.JSON(http.StatusOK, stock)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := ParseIntDefault(c.QueryParam("page"), 1)
	size := ParseIntDefault(c.QueryParam("size"), DefaultPageSize)
	offset, limit := Calculate(page, size)

	total, items, err := h.Svc.GetProducts(ctx, offset, limit)
	if err != nil {
		l.Error("get_products_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list products")
	}

	return c.JSON(http.StatusOK, pageResponse(items, offset, limit, total))
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := ParseIntDefault(c.QueryParam("page"), 1)
	size := ParseIntDefault(c.QueryParam("size"), DefaultPageSize)
	offset, limit := Calculate(page, size)

	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("search_products_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "query error")
		}
		l.Error("search_products_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, pageResponse(items, offset, limit, total))
}

func pageResponse(items any, offset, limit int, total int64) map[string]any {
	page := offset/limit + 1
	return map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	}
}
