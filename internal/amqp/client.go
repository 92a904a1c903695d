package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Client publishes and consumes ledger events on one exchange and queue.
// Broken connections are re-dialled lazily; repeated publish failures open
// a circuit breaker so callers fail fast while the broker is away.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connectLocked() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.conn = conn
	c.channel = channel
	return nil
}

func declareTopology(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key equals the queue name on the direct exchange.
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// ensureChannel returns a usable channel, reconnecting if the old one died.
func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() && c.conn != nil && !c.conn.IsClosed() {
		return c.channel, nil
	}

	c.closeLocked()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	slog.Info("AMQP connection re-established", "exchange", c.exchangeName)
	return c.channel, nil
}

// PublishTransactionRecorded sends a transaction.recorded event.
func (c *Client) PublishTransactionRecorded(ctx context.Context, accountID, transactionID int64, at time.Time) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish transaction %d: %w", transactionID, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := NewTransactionRecordedMessage(accountID, transactionID, at)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.MessageID,
			Type:         TransactionRecordedType,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.mu.Lock()
			c.closeLocked()
			c.mu.Unlock()
		}
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	slog.InfoContext(ctx, "Published transaction event",
		"message_id", msg.MessageID,
		"account_id", accountID,
		"transaction_id", transactionID,
		"exchange", c.exchangeName)
	return nil
}

// TransactionHandler processes one decoded event. Returning an error requeues it.
type TransactionHandler func(ctx context.Context, msg *TransactionRecordedMessage) error

// ConsumeTransactionRecorded delivers events to handler until ctx is done,
// reconnecting with exponential backoff when the broker drops the channel.
func (c *Client) ConsumeTransactionRecorded(ctx context.Context, handler TransactionHandler) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, handler, func() { attempt = 0 })
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}

		wait := exponentialBackoff(attempt)
		attempt++
		slog.WarnContext(ctx, "AMQP consumer interrupted, reconnecting",
			"error", err,
			"attempt", attempt,
			"backoff", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler TransactionHandler, connected func()) error {
	ch, err := c.ensureChannel()
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	connected()

	slog.InfoContext(ctx, "Started consuming transaction events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, delivery amqp091.Delivery, handler TransactionHandler) {
	msg, err := TransactionRecordedMessageFromJSON(delivery.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping malformed message", "message_id", delivery.MessageId, "error", err)
		delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle transaction event",
			"message_id", msg.MessageID,
			"transaction_id", msg.TransactionID,
			"error", err)
		delivery.Nack(false, true)
		return
	}

	delivery.Ack(false)
	slog.DebugContext(ctx, "Handled transaction event",
		"message_id", msg.MessageID,
		"transaction_id", msg.TransactionID)
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}

	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()

	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()

	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			slog.Warn("AMQP circuit breaker opened", "failures", atomic.LoadInt64(&c.failureCount))
		}
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

// exponentialBackoff doubles from one second and caps at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}
