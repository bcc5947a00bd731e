// Package finnhub streams live trade prints from the Finnhub websocket API.
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

var errNotConnected = errors.New("finnhub not connected")

// Client implements a QuoteStream backed by the Finnhub websocket.
type Client struct {
	apiKey         string
	websocketURL   string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	l              *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	tickers   []string
}

var _ drepo.QuoteStream = (*Client)(nil)

// New creates a Finnhub quote stream.
func New(apiKey, websocketURL string, reconnectDelay, pingInterval time.Duration, l *applogger.Logger) *Client {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		l:              l.Component("finnhub"),
	}
}

// Connect establishes the websocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.websocketURL)
	if err != nil {
		return fmt.Errorf("finnhub url: %w", err)
	}
	if c.apiKey != "" {
		q := u.Query()
		q.Set("token", c.apiKey)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("finnhub connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.l.Info("finnhub connected", applogger.String("url", c.websocketURL))
	return nil
}

// Subscribe subscribes to tickers and remembers them for reconnects.
func (c *Client) Subscribe(ctx context.Context, tickers []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return errNotConnected
	}
	for _, t := range tickers {
		msg := map[string]string{"type": "subscribe", "symbol": t}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	c.tickers = append([]string(nil), tickers...)
	c.l.Info("finnhub subscribed", applogger.Strings("tickers", tickers))
	return nil
}

type fhTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type fhMessage struct {
	Type string    `json:"type"`
	Data []fhTrade `json:"data"`
}

// parseQuotes decodes a frame. Frames other than trades yield no quotes.
func parseQuotes(b []byte) ([]*models.Quote, error) {
	var m fhMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m.Type != "trade" {
		return nil, nil
	}
	out := make([]*models.Quote, 0, len(m.Data))
	for _, d := range m.Data {
		out = append(out, &models.Quote{
			Ticker:    util.NormalizeTicker(d.S),
			Timestamp: d.T / 1000,
			Price:     d.P,
			Volume:    d.V,
		})
	}
	return out, nil
}

// Read streams quotes and errors until ctx is done or the connection fails.
// Quotes are dropped when the consumer falls behind.
func (c *Client) Read(ctx context.Context) (<-chan *models.Quote, <-chan error) {
	quotes := make(chan *models.Quote, 1024)
	errs := make(chan error, 1)

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		errs <- errNotConnected
		close(quotes)
		close(errs)
		return quotes, errs
	}

	go c.pingLoop(ctx, conn)

	go func() {
		defer close(quotes)
		defer close(errs)
		for {
			if ctx.Err() != nil {
				return
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("finnhub read: %w", err)
				}
				return
			}
			batch, err := parseQuotes(b)
			if err != nil {
				continue
			}
			for _, q := range batch {
				select {
				case quotes <- q:
				default:
					c.l.Debug("finnhub quote dropped", applogger.String("ticker", q.Ticker))
				}
			}
		}
	}()

	return quotes, errs
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Reconnect closes, waits the reconnect delay, reconnects and resubscribes.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	tickers := append([]string(nil), c.tickers...)
	c.mu.Unlock()
	return c.Subscribe(ctx, tickers)
}

// Close closes the websocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected reports the connection status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
