// Package pricefeed streams off-chain ticker prices over websocket. The
// prices gate harvest scheduling (is the pending reward worth the gas) and
// feed status reporting; on-chain accounting never reads them.
package pricefeed

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"lusd-sp-engine/internal/config"
)

type quote struct {
	price float64
	at    time.Time
}

type Client struct {
	url            string
	reconnectDelay time.Duration
	symbols        []string
	log            *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	quotes map[string]quote
}

func New(cfg config.PriceFeedConfig, log *zap.Logger) *Client {
	return &Client{
		url:            cfg.URL,
		reconnectDelay: cfg.ReconnectDelay,
		symbols:        []string{cfg.LQTYSymbol, cfg.ETHSymbol},
		log:            log,
		quotes:         make(map[string]quote),
	}
}

// Price returns the latest quote for a symbol and when it arrived.
func (c *Client) Price(symbol string) (float64, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.quotes[strings.ToUpper(symbol)]
	if !ok {
		return 0, time.Time{}, false
	}
	return q.price, q.at, true
}

// Run keeps the stream alive until ctx is done, reconnecting after read
// failures.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.connect(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("price feed connect failed", zap.Error(err))
		} else {
			if err := c.readLoop(ctx); err != nil && ctx.Err() == nil {
				c.log.Warn("price feed read loop ended", zap.Error(err))
			}
			c.reset()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return err
	}
	sub := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": streamNames(c.symbols),
		"id":     1,
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe marshal failed")
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe write failed")
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return nil
		}
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		c.handleMessage(data)
	}
}

func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close(websocket.StatusNormalClosure, "reset")
		c.conn = nil
	}
}

type tickerMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
	Symbol string          `json:"s"`
	Close  string          `json:"c"`
}

func (c *Client) handleMessage(data []byte) {
	symbol, price, ok := parseTicker(data)
	if !ok {
		return
	}
	c.mu.Lock()
	c.quotes[symbol] = quote{price: price, at: time.Now()}
	c.mu.Unlock()
}

// parseTicker accepts a miniTicker payload either bare or wrapped in a
// combined-stream envelope.
func parseTicker(data []byte) (string, float64, bool) {
	var msg tickerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", 0, false
	}
	if len(msg.Data) > 0 {
		var inner tickerMessage
		if err := json.Unmarshal(msg.Data, &inner); err != nil {
			return "", 0, false
		}
		msg = inner
	}
	if msg.Symbol == "" || msg.Close == "" {
		return "", 0, false
	}
	price, err := strconv.ParseFloat(msg.Close, 64)
	if err != nil || price <= 0 {
		return "", 0, false
	}
	return strings.ToUpper(msg.Symbol), price, true
}

func streamNames(symbols []string) []string {
	streams := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if symbol == "" {
			continue
		}
		streams = append(streams, strings.ToLower(symbol)+"@miniTicker")
	}
	return streams
}
