// Package push consumes the server's WebSocket push channel: wallet
// snapshots, confirmed transactions and operator alerts arrive here and
// are applied to the local store.
//
// The channel is best-effort. Every message type is also reachable by
// polling or replay, so a dropped connection degrades freshness, never
// correctness.
package push

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	usecase "github.com/mimi6060/festivals-pos/internal/application/usecases/push"
	"github.com/mimi6060/festivals-pos/internal/domain/events"
	"github.com/mimi6060/festivals-pos/internal/domain/retry"
)

// Message type tags on the push envelope.
const (
	MessageWalletSnapshot = "wallet_snapshot"
	MessageTransaction    = "transaction"
	MessageAlert          = "alert"
)

// envelope is the wire frame of every push message.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Config holds the channel endpoint and device credentials.
type Config struct {
	URL              string // e.g. wss://api.festival.example/api/v1/push
	Token            string
	DeviceID         uuid.UUID
	HandshakeTimeout time.Duration
	PongTimeout      time.Duration // read deadline between server pings
}

// Consumer maintains the connection and applies messages.
type Consumer struct {
	cfg    Config
	apply  *usecase.ApplyPushUseCase
	bus    ports.EventBus
	log    *slog.Logger
	jitter retry.Jitter
	dialer *websocket.Dialer
}

// NewConsumer creates a stopped consumer; call Run to start.
func NewConsumer(cfg Config, apply *usecase.ApplyPushUseCase, bus ports.EventBus, log *slog.Logger) *Consumer {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 90 * time.Second
	}
	return &Consumer{
		cfg:    cfg,
		apply:  apply,
		bus:    bus,
		log:    log,
		jitter: retry.DefaultJitter,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
	}
}

// Run connects and consumes until the context ends, reconnecting with
// conservative backoff. A successful connect doubles as the network-up
// signal the sync queue listens for.
func (c *Consumer) Run(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := c.connect(ctx)
		if err != nil {
			delay := retry.Delay(retry.ConservativePolicy, attempt, c.jitter)
			if attempt < retry.ConservativePolicy.MaxRetries {
				attempt++
			}
			c.log.Warn("push channel connect failed",
				"error", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}

		attempt = 0
		c.log.Info("push channel connected", "url", c.cfg.URL)
		c.bus.Publish(ctx, events.NewNetworkUp("push"))

		c.consume(ctx, conn)
		_ = conn.Close()
	}
}

func (c *Consumer) connect(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.Token)
	header.Set("X-Device-ID", c.cfg.DeviceID.String())

	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// consume reads frames until the connection breaks or the context ends.
func (c *Consumer) consume(ctx context.Context, conn *websocket.Conn) {
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})
	_ = conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))

	// Unblock ReadMessage on shutdown.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.log.Warn("push channel dropped", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))

		c.handleMessage(ctx, raw)
	}
}

// handleMessage dispatches one frame. A malformed or unknown message is
// logged and skipped; the channel must survive protocol additions.
func (c *Consumer) handleMessage(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Warn("malformed push frame", "error", err)
		return
	}

	switch env.Type {
	case MessageWalletSnapshot:
		var snapshot dtos.WalletSnapshot
		if err := json.Unmarshal(env.Payload, &snapshot); err != nil {
			c.log.Warn("malformed wallet snapshot", "error", err)
			return
		}
		if err := c.apply.ApplyWalletSnapshot(ctx, snapshot); err != nil {
			c.log.Error("failed to apply wallet snapshot",
				"wallet_id", snapshot.WalletID, "error", err)
		}

	case MessageTransaction:
		var pushed dtos.ServerTransaction
		if err := json.Unmarshal(env.Payload, &pushed); err != nil {
			c.log.Warn("malformed pushed transaction", "error", err)
			return
		}
		if err := c.apply.ApplyTransaction(ctx, pushed); err != nil {
			c.log.Error("failed to apply pushed transaction",
				"transaction_id", pushed.ID, "error", err)
		}

	case MessageAlert:
		var alert dtos.ServerAlertDTO
		if err := json.Unmarshal(env.Payload, &alert); err != nil {
			c.log.Warn("malformed alert", "error", err)
			return
		}
		if err := c.apply.ApplyAlert(ctx, alert); err != nil {
			c.log.Error("failed to apply alert", "error", err)
		}

	default:
		c.log.Debug("skipping unknown push message type", "type", env.Type)
	}
}
