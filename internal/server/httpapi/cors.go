package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// corsHeaders allows any origin and answers preflight requests with an
// empty 200 (echo's CORS middleware answers 204).
func corsHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set(echo.HeaderAccessControlAllowOrigin, "*")
		h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE, OPTIONS")
		h.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type, Authorization")
		h.Set(echo.HeaderAccessControlMaxAge, "86400")

		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusOK)
		}
		return next(c)
	}
}
