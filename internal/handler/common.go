package handler // handler defines http handlers

import (
    "context"
    "strconv" // strconv converts strings to numeric types
    "time"

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/service-booking/internal/booking"
    "github.com/iliyamo/service-booking/internal/model"
    "github.com/iliyamo/service-booking/internal/session"
)

// requestTimeout bounds the blocking work a single request may trigger.
const requestTimeout = 5 * time.Second

// currentIdentity returns the identity resolved by the auth middleware.
// Routes using it sit behind a role gate, so a missing identity is an
// authorization failure rather than a server fault.
func currentIdentity(c echo.Context) (model.Identity, error) {
    if id, ok := session.FromContext(c.Request().Context()); ok {
        return id, nil
    }
    return model.Identity{}, session.Authorize(nil).Err()
}

// parseID reads a positive decimal id from a path or query value.  Ids are
// compared exactly, so anything that is not a plain unsigned integer is
// rejected instead of coerced.
func parseID(field, raw string) (uint64, error) {
    n, err := strconv.ParseUint(raw, 10, 64)
    if err != nil || n == 0 {
        return 0, invalidField(field, "must be a positive integer")
    }
    return n, nil
}

func invalidField(field, msg string) error {
    return &booking.ValidationError{Issues: []booking.FieldIssue{{Field: field, Message: msg}}}
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// listResponse is the envelope for booking collections.
type listResponse struct {
    Items []model.Booking `json:"items"`
    Count int             `json:"count"`
}

func newList(items []model.Booking) listResponse {
    return listResponse{Items: items, Count: len(items)}
}
