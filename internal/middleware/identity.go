package middleware

// identity.go holds the caller lookup shared by the rate limiter and the
// response cache.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/service-booking/internal/session"
)

// callerKey identifies the caller for bucketing: "<role>:<id>" for a signed
// in identity and "guest" otherwise.
func callerKey(c echo.Context) string {
    id, ok := session.FromContext(c.Request().Context())
    if !ok {
        return "guest"
    }
    return string(id.Role) + ":" + strconv.FormatUint(id.ID, 10)
}
