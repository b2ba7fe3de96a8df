package middleware

import (
    "errors"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/rs/zerolog"

    "github.com/iliyamo/service-booking/internal/errs"
)

// RequestLogger emits one zerolog line per request.  When the handler
// returned an error the response has not been written yet, so the status is
// taken from the error the way ErrorHandler will render it.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogURI:     true,
        LogStatus:  true,
        LogError:   true,
        LogLatency: true,
        LogMethod:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            status := v.Status
            if v.Error != nil {
                status = MapError(v.Error).Status
            }

            var e *zerolog.Event
            switch {
            case status >= 500:
                e = log.Error().Err(v.Error)
            case status >= 400:
                e = log.Warn()
            default:
                e = log.Info()
            }
            if uid, ok := c.Get(UserIDKey).(string); ok {
                e = e.Str("user_id", uid)
            }
            if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
                e = e.Str("request_id", rid)
            }
            e.Dur("latency", v.Latency).
                Int("status", status).
                Str("method", v.Method).
                Str("uri", v.URI).
                Str("ip", c.RealIP()).
                Msg("API")
            return nil
        },
    })
}

// isHTTPError reports whether err already carries an API error body.
func isHTTPError(err error) (*errs.HTTPError, bool) {
    var he *errs.HTTPError
    if errors.As(err, &he) {
        return he, true
    }
    return nil, false
}
