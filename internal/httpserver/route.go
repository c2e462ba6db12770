package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	CartHandler *CartHTTP
	Metrics     http.Handler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	cart := e.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.GET("/summary", d.CartHandler.GetSummary)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.PATCH("/items/:id", d.CartHandler.UpdateAmount)
	cart.DELETE("/items/:id", d.CartHandler.RemoveItem)
}
