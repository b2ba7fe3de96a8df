// Package service holds outbound integrations of the booking service.
// Publisher delivers booking events to RabbitMQ; failures are returned so
// callers can log them without interrupting the request flow.
package service

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    q "github.com/iliyamo/service-booking/internal/queue"
)

// Publisher keeps one broker connection and channel open and redials
// lazily after the broker drops them.  It is safe for concurrent use.
type Publisher struct {
    url   string
    queue string
    log   zerolog.Logger

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the booking events queue.  No
// connection is made until the first publish.
func NewPublisher(url string, log zerolog.Logger) *Publisher {
    return &Publisher{url: url, queue: q.BookingEventsQueue, log: log.With().Str("component", "publisher").Logger()}
}

// dialTimeout bounds the TCP connect and the AMQP handshake.
const dialTimeout = 5 * time.Second

// dialContext is amqp.DefaultDial bound to ctx, so a cancelled publish
// stops waiting on an unreachable broker.
func dialContext(ctx context.Context) func(network, addr string) (net.Conn, error) {
    return func(network, addr string) (net.Conn, error) {
        d := net.Dialer{Timeout: dialTimeout}
        conn, err := d.DialContext(ctx, network, addr)
        if err != nil {
            return nil, err
        }
        deadline := time.Now().Add(dialTimeout)
        if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
            deadline = dl
        }
        // Cleared by the client once the handshake completes.
        if err := conn.SetDeadline(deadline); err != nil {
            _ = conn.Close()
            return nil, err
        }
        return conn, nil
    }
}

// channel returns an open channel, dialing and declaring the queue when
// needed.  Callers hold p.mu.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.closeLocked()

    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      dialContext(ctx),
    })
    if err != nil {
        return nil, fmt.Errorf("rabbitmq dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq channel: %w", err)
    }
    // Durable so events survive broker restarts.
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    p.log.Info().Str("queue", p.queue).Msg("connected to broker")
    return ch, nil
}

// PublishBookingEvent sends ev as a persistent JSON message.  Dialing and
// publishing both stop when ctx is done.
func (p *Publisher) PublishBookingEvent(ctx context.Context, ev q.BookingEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel(ctx)
    if err != nil {
        return err
    }
    err = ch.PublishWithContext(ctx,
        "",      // default exchange
        p.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            MessageId:    ev.EventID,
            Type:         ev.Type,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        })
    if err != nil {
        // Drop the channel so the next publish redials.
        p.closeLocked()
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    return p.closeLocked()
}

func (p *Publisher) closeLocked() error {
    var errs []error
    if p.ch != nil {
        if err := p.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
            errs = append(errs, err)
        }
        p.ch = nil
    }
    if p.conn != nil {
        if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
            errs = append(errs, err)
        }
        p.conn = nil
    }
    return errors.Join(errs...)
}
