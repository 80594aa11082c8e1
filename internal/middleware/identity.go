package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// subjectKey returns a stable identifier for the authenticated caller,
// or "guest" when no token claims were stored. JWT numeric claims
// decode as float64, hence the formatting instead of an assertion.
func subjectKey(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "guest"
	}
	switch id := v.(type) {
	case string:
		if id != "" {
			return id
		}
		return "guest"
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return fmt.Sprintf("%v", id)
	}
}
