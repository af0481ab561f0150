// Package events is the change feed of the record store.
//
// Every committed mutation becomes one Change message, JSON encoded and
// published persistently to a durable direct exchange. A single durable queue
// is bound to it with the queue name as routing key, so messages published
// while nobody listens wait for the next `fintrack events watch`. The feed is
// informational: nothing reads it back into a store.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Client publishes and consumes Change messages on one channel.
type Client struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
}

// NewClient dials url and declares the feed topology.
func NewClient(url, exchange, queue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &Client{conn: conn, channel: channel, exchange: exchange, queue: queue}
	if err := c.declareFeed(); err != nil {
		c.Close()
		return nil, fmt.Errorf("declare change feed: %w", err)
	}
	return c, nil
}

// declareFeed creates the durable exchange and queue and binds them. All
// three calls are idempotent.
func (c *Client) declareFeed() error {
	if err := c.channel.ExchangeDeclare(c.exchange, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange %s: %w", c.exchange, err)
	}
	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue %s: %w", c.queue, err)
	}
	if err := c.channel.QueueBind(c.queue, c.routingKey(), c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", c.queue, c.exchange, err)
	}
	return nil
}

func (c *Client) routingKey() string {
	return c.queue
}

// Notify publishes change. It satisfies the record store's notifier port.
func (c *Client) Notify(ctx context.Context, change Change) error {
	body, err := change.ToJSON()
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    change.Timestamp,
		Type:         change.Op,
		Body:         body,
	}
	if err := c.channel.PublishWithContext(ctx, c.exchange, c.routingKey(), false, false, msg); err != nil {
		return fmt.Errorf("publish %s change: %w", change.Op, err)
	}

	slog.DebugContext(ctx, "Published change", "op", change.Op, "id", change.ID, "count", change.Count)
	return nil
}

// Consume delivers changes to handler until ctx is cancelled. Undecodable
// messages are dropped; handler failures are requeued.
func (c *Client) Consume(ctx context.Context, handler func(*Change) error) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("change feed closed by broker")
			}
			if err := deliver(ctx, d, handler); err != nil {
				return err
			}
		}
	}
}

// deliver decodes one delivery, runs handler on it and settles it. Only a
// failure to settle is returned.
func deliver(ctx context.Context, d amqp091.Delivery, handler func(*Change) error) error {
	change, err := ChangeFromJSON(d.Body)
	if err != nil {
		slog.WarnContext(ctx, "Dropping undecodable change", "error", err)
		return d.Nack(false, false)
	}
	if err := handler(change); err != nil {
		slog.WarnContext(ctx, "Change handler failed, requeueing", "error", err, "op", change.Op, "id", change.ID)
		return d.Nack(false, true)
	}
	return d.Ack(false)
}

// Close shuts the channel and the connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		errs = append(errs, c.channel.Close())
	}
	if c.conn != nil {
		errs = append(errs, c.conn.Close())
	}
	return errors.Join(errs...)
}
