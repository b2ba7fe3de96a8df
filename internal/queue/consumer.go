// consumer.go holds the audit consumer: it listens to the booking events
// queue and appends one human-friendly line per event to an audit log.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// AuditLog appends formatted booking events to a file.
type AuditLog struct {
    mu   sync.Mutex
    path string
}

// NewAuditLog returns an AuditLog writing to path.  The directory is
// created on first write.
func NewAuditLog(path string) *AuditLog { return &AuditLog{path: path} }

// Append writes one line for ev.
func (a *AuditLog) Append(ev BookingEvent) error {
    a.mu.Lock()
    defer a.mu.Unlock()

    if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
        return fmt.Errorf("mkdir audit dir: %w", err)
    }
    f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open audit log: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatEvent(ev)); err != nil {
        return fmt.Errorf("write audit log: %w", err)
    }
    return nil
}

// FormatEvent renders ev as a single newline-terminated line.
func FormatEvent(ev BookingEvent) string {
    switch ev.Type {
    case EventBookingCreated:
        return fmt.Sprintf("[%s] Booking requested | booking_id=%d | provider_id=%d | provider=%q | customer_id=%d | customer=%q | service=%q | date=%s | event_id=%s\n",
            ev.OccurredAt, ev.BookingID, ev.ProviderID, ev.ProviderName, ev.CustomerID, ev.CustomerName, ev.Service, ev.Date, ev.EventID)
    case EventBookingStatusChanged:
        return fmt.Sprintf("[%s] Booking status changed | booking_id=%d | %s -> %s | by=%s:%d | provider_id=%d | customer_id=%d | event_id=%s\n",
            ev.OccurredAt, ev.BookingID, ev.From, ev.Status, ev.ActorRole, ev.ActorID, ev.ProviderID, ev.CustomerID, ev.EventID)
    }
    return fmt.Sprintf("[%s] Booking event %s | booking_id=%d | status=%s | event_id=%s\n",
        ev.OccurredAt, ev.Type, ev.BookingID, ev.Status, ev.EventID)
}

// AuditConsumer consumes the booking events queue into an AuditLog.
type AuditConsumer struct {
    url   string
    audit *AuditLog
    log   zerolog.Logger
}

// NewAuditConsumer wires a consumer for the broker at url.
func NewAuditConsumer(url string, audit *AuditLog, log zerolog.Logger) *AuditConsumer {
    return &AuditConsumer{url: url, audit: audit, log: log.With().Str("component", "audit-consumer").Logger()}
}

// Run connects, declares the queue and consumes until ctx is cancelled.
// Broker failures are retried with exponential backoff capped at 30s.
func (a *AuditConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(a.url)
        if err != nil {
            a.log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = a.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        a.log.Warn().Err(err).Msg("consume loop ended, reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (a *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        a.log.Warn().Err(err).Msg("set QoS failed")
    }
    if _, err := ch.QueueDeclare(BookingEventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(BookingEventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := a.Handle(d.Body); err != nil {
                a.log.Error().Err(err).Msg("handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and appends it to the audit log.
func (a *AuditConsumer) Handle(body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.BookingID == 0 || ev.Type == "" {
        return errors.New("event without booking id or type")
    }
    return a.audit.Append(ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
