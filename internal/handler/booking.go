package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/service-booking/internal/booking"
    "github.com/iliyamo/service-booking/internal/errs"
    "github.com/iliyamo/service-booking/internal/model"
    "github.com/iliyamo/service-booking/internal/session"
)

// BookingHandler serves the booking API.  Role gates run in middleware;
// per-booking checks (ownership, allowed target status) run here before the
// store is touched.
type BookingHandler struct {
    Svc *booking.Service
    Now func() time.Time // defaults to time.Now in UTC
}

// NewBookingHandler panics if svc is nil.
func NewBookingHandler(svc *booking.Service) *BookingHandler {
    if svc == nil {
        panic("nil service passed to NewBookingHandler")
    }
    return &BookingHandler{Svc: svc}
}

type createBookingReq struct {
    ProviderID   uint64 `json:"provider_id"`
    ProviderName string `json:"provider_name"`
    CustomerName string `json:"customer_name"`
    Service      string `json:"service"`
    Date         string `json:"date"`
}

type updateStatusReq struct {
    Status string `json:"status"`
    Notes  string `json:"notes"`
}

// Create handles POST /v1/bookings.  The booking is always created for the
// calling customer under the identity's display name; customer_name from the
// body is only used when the token carries no name.
func (h *BookingHandler) Create(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    if err := session.CanCreate(id); err != nil {
        return err
    }
    var req createBookingReq
    if err := c.Bind(&req); err != nil {
        return errs.NewBadRequestError("invalid request body", "", nil)
    }
    name := id.Name
    if strings.TrimSpace(name) == "" {
        name = req.CustomerName
    }

    ctx, cancel := withTimeout(c)
    defer cancel()
    b, err := h.Svc.Create(ctx, id, booking.NewBooking{
        ProviderID:   req.ProviderID,
        ProviderName: req.ProviderName,
        CustomerID:   id.ID,
        CustomerName: name,
        Service:      req.Service,
        Date:         req.Date,
    })
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, b)
}

// List handles GET /v1/bookings.  Customers and providers always get their
// own bookings; admins may narrow with ?role=provider|customer&id=N.  All
// callers may filter by ?status=.
func (h *BookingHandler) List(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    f, err := h.scope(c, id, true)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, newList(h.Svc.Store().List(f)))
}

// visible loads booking :id and hides it from callers that may not see it.
func (h *BookingHandler) visible(c echo.Context) (model.Identity, model.Booking, error) {
    id, err := currentIdentity(c)
    if err != nil {
        return id, model.Booking{}, err
    }
    bid, err := parseID("id", c.Param("id"))
    if err != nil {
        return id, model.Booking{}, err
    }
    b, err := h.Svc.Store().Get(bid)
    if err != nil {
        return id, model.Booking{}, err
    }
    if !session.CanView(id, b) {
        return id, model.Booking{}, &booking.NotFoundError{ID: bid}
    }
    return id, b, nil
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
    _, b, err := h.visible(c)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, b)
}

// History handles GET /v1/bookings/:id/history.
func (h *BookingHandler) History(c echo.Context) error {
    _, b, err := h.visible(c)
    if err != nil {
        return err
    }
    changes, err := h.Svc.Store().History(b.ID)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"booking_id": b.ID, "status": b.Status, "changes": changes})
}

// UpdateStatus handles PATCH /v1/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
    id, b, err := h.visible(c)
    if err != nil {
        return err
    }
    var req updateStatusReq
    if err := c.Bind(&req); err != nil {
        return errs.NewBadRequestError("invalid request body", "", nil)
    }
    to := model.Status(strings.TrimSpace(req.Status))
    if !to.Valid() {
        return invalidField("status", "must be one of requested, accepted, rejected, completed")
    }
    if err := session.CanTransition(id, b, to); err != nil {
        return err
    }

    ctx, cancel := withTimeout(c)
    defer cancel()
    updated, err := h.Svc.UpdateStatus(ctx, id, b.ID, to, req.Notes)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, updated)
}

// Upcoming handles GET /v1/bookings/upcoming: the caller's bookings that
// are still open and dated today or later, soonest first.
func (h *BookingHandler) Upcoming(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    f, err := h.scope(c, id, false)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, newList(h.Svc.Store().Upcoming(f, h.now())))
}

// Stats handles GET /v1/stats.  Customers and providers get counts for
// their own bookings; admins see everything and may narrow like List.
func (h *BookingHandler) Stats(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    f, err := h.scope(c, id, false)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, h.Svc.Store().Stats(f))
}

// scope builds the caller's filter from ?role=&id= and, when withStatus is
// set, ?status=.  Only admins may pick the id.
func (h *BookingHandler) scope(c echo.Context, id model.Identity, withStatus bool) (booking.Filter, error) {
    q := session.ScopeQuery{Role: c.QueryParam("role")}
    if withStatus {
        q.Status = model.Status(strings.TrimSpace(c.QueryParam("status")))
    }
    if raw := c.QueryParam("id"); raw != "" && id.Role == model.RoleAdmin {
        var err error
        if q.ID, err = parseID("id", raw); err != nil {
            return booking.Filter{}, err
        }
    }
    return session.ScopeFilter(id, q)
}

func (h *BookingHandler) now() time.Time {
    if h.Now != nil {
        return h.Now()
    }
    return time.Now().UTC()
}
