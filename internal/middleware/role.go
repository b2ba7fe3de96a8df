package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/service-booking/internal/model"
    "github.com/iliyamo/service-booking/internal/session"
)

// RequireRole guards API routes.  The gate decision is returned as a
// *session.AuthorizationError, which the error handler renders as 401 or
// 403 with a redirect action pointing at the login entry point or the
// caller's own dashboard.  With no roles any signed-in identity passes.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if err := authorize(c, roles).Err(); err != nil {
                return err
            }
            return next(c)
        }
    }
}

// RequireView guards dashboard routes.  A denied caller is not shown an
// error: it is sent to the decision's redirect target with 303 See Other.
func RequireView(role model.Role) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            d := authorize(c, []model.Role{role})
            if !d.Allowed {
                return c.Redirect(http.StatusSeeOther, d.Redirect)
            }
            return next(c)
        }
    }
}

func authorize(c echo.Context, roles []model.Role) session.Decision {
    if id, ok := session.FromContext(c.Request().Context()); ok {
        return session.Authorize(&id, roles...)
    }
    return session.Authorize(nil, roles...)
}
