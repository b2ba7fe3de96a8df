package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "strconv"
    "strings" // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers
    "github.com/rs/zerolog"

    "github.com/iliyamo/service-booking/internal/errs"
    "github.com/iliyamo/service-booking/internal/session"
    "github.com/iliyamo/service-booking/internal/utils"
)

// Context keys set by Authenticate for downstream middleware and handlers.
const (
    UserIDKey   = "user_id"
    RoleKey     = "role"
    TokenIDKey  = "token_id"
    TokenExpKey = "token_exp"
)

// Authenticate resolves the request identity from a Bearer access token.
// A request without an Authorization header proceeds anonymously so the
// gates further down can redirect it to the login entry point.  A token that
// is malformed, expired, wrongly signed or revoked is rejected with 401 and
// the same redirect.  revoker may be nil.
func Authenticate(secret string, revoker session.Revoker, log zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if auth == "" {
                return next(c)
            }
            if !strings.HasPrefix(auth, "Bearer ") {
                return unauthorized("missing bearer token")
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            tok, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return unauthorized("invalid token")
            }

            if revoker != nil {
                revoked, err := revoker.Revoked(c.Request().Context(), tok.ID)
                if err != nil {
                    log.Error().Err(err).Msg("revocation lookup failed")
                    return errs.NewServiceUnavailableError("session store unavailable", "SESSION_STORE_UNAVAILABLE")
                }
                if revoked {
                    return unauthorized("session has ended")
                }
            }

            req := c.Request()
            c.SetRequest(req.WithContext(session.WithIdentity(req.Context(), tok.Identity)))
            c.Set(UserIDKey, strconv.FormatUint(tok.Identity.ID, 10))
            c.Set(RoleKey, string(tok.Identity.Role))
            c.Set(TokenIDKey, tok.ID)
            c.Set(TokenExpKey, tok.Exp)
            return next(c)
        }
    }
}

func unauthorized(msg string) error {
    return errs.NewUnauthorizedError(msg).WithRedirect(session.LoginPath, "sign in to continue")
}
