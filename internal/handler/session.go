package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/service-booking/internal/errs"
    "github.com/iliyamo/service-booking/internal/middleware"
    "github.com/iliyamo/service-booking/internal/session"
)

// SessionHandler exposes the session lifecycle: the login entry point, the
// current identity and logout.  Tokens are issued by the external auth
// service; a session here is the lifetime of one verified access token.
type SessionHandler struct {
    Revoker session.Revoker
}

func NewSessionHandler(r session.Revoker) *SessionHandler {
    if r == nil {
        panic("nil revoker passed to NewSessionHandler")
    }
    return &SessionHandler{Revoker: r}
}

// Login handles GET /v1/login.  Anonymous callers are told how to
// authenticate; signed-in callers are pointed at their dashboard.
func (h *SessionHandler) Login(c echo.Context) error {
    if id, ok := session.FromContext(c.Request().Context()); ok {
        return c.JSON(http.StatusOK, echo.Map{
            "authenticated": true,
            "identity":      id,
            "view":          session.ViewFor(id.Role),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{
        "authenticated": false,
        "message":       "obtain an access token from the auth service and send it as 'Authorization: Bearer <token>'",
    })
}

// Me handles GET /v1/me.
func (h *SessionHandler) Me(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"identity": id, "view": session.ViewFor(id.Role)})
}

// Logout handles POST /v1/logout by revoking the presented token until it
// would have expired.  Further requests with it get 401.
func (h *SessionHandler) Logout(c echo.Context) error {
    jti, _ := c.Get(middleware.TokenIDKey).(string)
    exp, _ := c.Get(middleware.TokenExpKey).(time.Time)
    if jti == "" {
        return errs.NewUnauthorizedError("no active session").WithRedirect(session.LoginPath, "sign in to continue")
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    if err := h.Revoker.Revoke(ctx, jti, exp); err != nil {
        return errs.NewServiceUnavailableError("session store unavailable", "SESSION_STORE_UNAVAILABLE")
    }
    return c.NoContent(http.StatusNoContent)
}
