package model

import "time"

// Status is the lifecycle state of a booking.
type Status string

const (
    StatusRequested Status = "requested"
    StatusAccepted  Status = "accepted"
    StatusRejected  Status = "rejected"
    StatusCompleted Status = "completed"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{StatusRequested, StatusAccepted, StatusRejected, StatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
    switch s {
    case StatusRequested, StatusAccepted, StatusRejected, StatusCompleted:
        return true
    }
    return false
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool { return s == StatusRejected || s == StatusCompleted }

// Booking records one service request from a customer to a provider.
// Provider and customer names are denormalized so a booking can be rendered
// without joining other tables.
//
// Fields:
//  ID           – bookings.id, assigned by the store and never reused.
//  ProviderID   – identity id of the provider the request is addressed to.
//  CustomerID   – identity id of the customer who created the request (0 when unknown).
//  Date         – requested service date, YYYY-MM-DD.
//  Status       – current lifecycle state.
//  Tentative    – true while the latest change has not been confirmed by persistence.
type Booking struct {
    ID           uint64    `json:"id"`
    ProviderID   uint64    `json:"provider_id"`
    ProviderName string    `json:"provider_name"`
    CustomerID   uint64    `json:"customer_id"`
    CustomerName string    `json:"customer_name"`
    Service      string    `json:"service"`
    Date         string    `json:"date"`
    Status       Status    `json:"status"`
    Tentative    bool      `json:"tentative"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}

// StatusChange is one entry of a booking's status history.  Entries are
// append-only.  Notes is the free text the actor attached to the change.
type StatusChange struct {
    BookingID uint64    `json:"booking_id"`
    From      Status    `json:"from"`
    To        Status    `json:"to"`
    ChangedBy uint64    `json:"changed_by"`
    Notes     string    `json:"notes"`
    At        time.Time `json:"at"`
}
