package middleware

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/service-booking/internal/booking"
    "github.com/iliyamo/service-booking/internal/errs"
    "github.com/iliyamo/service-booking/internal/session"
)

// MapError translates any error a handler or middleware returns into the
// API error body.  Unknown errors become a bare 500.
func MapError(err error) *errs.HTTPError {
    if he, ok := isHTTPError(err); ok {
        return he
    }

    var (
        ve *booking.ValidationError
        te *booking.InvalidTransitionError
        nf *booking.NotFoundError
        ee *echo.HTTPError
    )
    switch {
    case errors.As(err, &ve):
        fields := make([]errs.FieldError, 0, len(ve.Issues))
        for _, is := range ve.Issues {
            fields = append(fields, errs.FieldError{Field: is.Field, Error: is.Message})
        }
        return errs.NewBadRequestError("Validation failed", "VALIDATION_FAILED", fields)
    case errors.As(err, &te):
        return errs.NewConflictError(te.Error(), "INVALID_TRANSITION")
    case errors.As(err, &nf):
        return errs.NewNotFoundError(nf.Error())
    case errors.Is(err, booking.ErrSyncPending):
        return errs.NewConflictError("booking has a change that is still being saved, retry shortly", "SYNC_PENDING")
    case errors.Is(err, booking.ErrPersistence):
        return errs.NewServiceUnavailableError("bookings could not be saved, try again later", "PERSISTENCE_UNAVAILABLE")
    }

    if ae, ok := session.IsAuthorizationError(err); ok {
        var he *errs.HTTPError
        if ae.Status == http.StatusUnauthorized {
            he = errs.NewUnauthorizedError(ae.Reason)
        } else {
            he = errs.NewForbiddenError(ae.Reason)
        }
        return he.WithRedirect(ae.Redirect, "redirecting to "+ae.Redirect)
    }

    if errors.As(err, &ee) {
        msg, ok := ee.Message.(string)
        if !ok {
            msg = http.StatusText(ee.Code)
        }
        if ee.Code == http.StatusNotFound {
            msg = "Route not found"
        }
        return &errs.HTTPError{
            Code:    errs.MakeUpperCaseWithUnderscores(http.StatusText(ee.Code)),
            Message: msg,
            Status:  ee.Code,
        }
    }
    return errs.NewInternalServerError()
}

// ErrorHandler is the echo.HTTPErrorHandler for the server.  Server faults
// are logged with the original error; the client only sees the mapped body.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        he := MapError(err)
        if he.Status >= http.StatusInternalServerError {
            log.Error().Err(err).Int("status", he.Status).Str("error_code", he.Code).Msg(he.Message)
        }
        if c.Response().Committed {
            return
        }
        if c.Request().Method == http.MethodHead {
            _ = c.NoContent(he.Status)
            return
        }
        _ = c.JSON(he.Status, he)
    }
}
