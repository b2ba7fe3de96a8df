package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/service-booking/internal/booking"
    "github.com/iliyamo/service-booking/internal/model"
    "github.com/iliyamo/service-booking/internal/session"
)

// recentLimit is how many bookings the admin dashboard shows.
const recentLimit = 5

type dashboard struct {
    Identity model.Identity  `json:"identity"`
    View     string          `json:"view"`
    Stats    booking.Stats   `json:"stats"`
    Bookings []model.Booking `json:"bookings"`
}

type providerDashboard struct {
    dashboard
    Incoming []model.Booking `json:"incoming"`
}

type adminDashboard struct {
    dashboard
    Recent []model.Booking `json:"recent"`
}

// DashboardHandler renders the per-role landing views.  Each route is
// guarded by middleware.RequireView, which redirects callers that do not
// belong there.
type DashboardHandler struct {
    Store *booking.Store
}

func NewDashboardHandler(store *booking.Store) *DashboardHandler {
    if store == nil {
        panic("nil store passed to NewDashboardHandler")
    }
    return &DashboardHandler{Store: store}
}

// Customer handles GET /v1/customer: the caller's own requests.
func (h *DashboardHandler) Customer(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, h.base(id, booking.ByCustomer(id.ID)))
}

// Provider handles GET /v1/provider: every booking addressed to the caller,
// with the ones still awaiting a decision listed separately.
func (h *DashboardHandler) Provider(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    f := booking.ByProvider(id.ID)
    incoming := f
    incoming.Status = model.StatusRequested
    return c.JSON(http.StatusOK, providerDashboard{
        dashboard: h.base(id, f),
        Incoming:  h.Store.List(incoming),
    })
}

// Admin handles GET /v1/admin: the unscoped aggregate and the most recent
// bookings.
func (h *DashboardHandler) Admin(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    all := booking.All()
    return c.JSON(http.StatusOK, adminDashboard{
        dashboard: h.base(id, all),
        Recent:    h.Store.Recent(all, recentLimit),
    })
}

func (h *DashboardHandler) base(id model.Identity, f booking.Filter) dashboard {
    return dashboard{
        Identity: id,
        View:     session.ViewFor(id.Role),
        Stats:    h.Store.Stats(f),
        Bookings: h.Store.List(f),
    }
}
