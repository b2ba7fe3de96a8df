// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingEventsQueue is the durable queue booking events are routed to.
const BookingEventsQueue = "booking.events"

// Event types published on the booking events queue.
const (
    EventBookingCreated       = "booking.created"
    EventBookingStatusChanged = "booking.status_changed"
)

// BookingEvent is published after a booking change has been persisted.  It
// carries enough of the booking for downstream consumers to log or audit it
// without querying the service.
type BookingEvent struct {
    EventID      string `json:"event_id"`
    Type         string `json:"type"`
    BookingID    uint64 `json:"booking_id"`
    ProviderID   uint64 `json:"provider_id"`
    ProviderName string `json:"provider_name"`
    CustomerID   uint64 `json:"customer_id"`
    CustomerName string `json:"customer_name"`
    Service      string `json:"service"`
    Date         string `json:"date"`
    From         string `json:"from,omitempty"`
    Status       string `json:"status"`
    Notes        string `json:"notes,omitempty"`
    ActorID      uint64 `json:"actor_id"`
    ActorRole    string `json:"actor_role"`
    OccurredAt   string `json:"occurred_at"`
}
