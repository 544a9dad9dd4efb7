package alpaca

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sbansal6/alpaca-mcp-server/internal/constant"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/sirupsen/logrus"
)

const (
	defaultStreamDuration  = 5 * time.Second
	defaultStreamMaxTrades = 20
	streamHandshakeTimeout = 10 * time.Second
)

var (
	ErrStreamAuthFailed      = errors.New("alpaca stream authentication failed")
	ErrStreamSubscribeFailed = errors.New("alpaca stream subscription failed")
)

type streamMessage struct {
	Type  string
	Msg   string
	Code  int
	Trade entity.StreamedTrade
}

// StreamStockTrades collects live trades for one symbol until the duration
// elapses or MaxTrades have been received, whichever comes first.
func (c *Client) StreamStockTrades(ctx context.Context, req entity.StreamTradesRequest) ([]entity.StreamedTrade, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return nil, config.ErrMissingCredentials
	}

	duration := req.Duration
	if duration <= 0 {
		duration = defaultStreamDuration
	}
	maxTrades := req.MaxTrades
	if maxTrades <= 0 {
		maxTrades = defaultStreamMaxTrades
	}
	feed := strings.ToLower(strings.TrimSpace(req.Feed))
	if feed == "" {
		feed = constant.DefaultStreamFeed
	}

	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	wsURL := c.streamBaseURL + "/v2/" + feed
	logger := logrus.WithFields(logrus.Fields{
		"url":    wsURL,
		"symbol": req.Symbol,
	})
	logger.Debug("connecting to alpaca data stream")

	dialer := websocket.Dialer{HandshakeTimeout: streamHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("alpaca stream dial failed: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	if err := c.streamHandshake(conn, req.Symbol); err != nil {
		return nil, err
	}

	trades := make([]entity.StreamedTrade, 0, maxTrades)
	for len(trades) < maxTrades {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || isTimeout(err) {
				break
			}
			return trades, fmt.Errorf("alpaca stream read failed: %w", err)
		}

		messages, err := decodeStreamMessages(payload)
		if err != nil {
			logger.WithError(err).Warn("skipping malformed stream message")
			continue
		}

		for _, msg := range messages {
			if msg.Type == "error" {
				return trades, fmt.Errorf("alpaca stream error: code=%d message=%s", msg.Code, msg.Msg)
			}
			if msg.Type != "t" || !strings.EqualFold(msg.Trade.Symbol, req.Symbol) {
				continue
			}

			trades = append(trades, msg.Trade)
			if len(trades) >= maxTrades {
				break
			}
		}
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	logger.WithField("trades", len(trades)).Debug("alpaca data stream closed")

	return trades, nil
}

// streamHandshake waits for the connect greeting, authenticates and subscribes.
func (c *Client) streamHandshake(conn *websocket.Conn, symbol string) error {
	if _, err := readControl(conn, "connected"); err != nil {
		return err
	}

	err := conn.WriteJSON(map[string]any{
		"action": "auth",
		"key":    c.apiKey,
		"secret": c.apiSecret,
	})
	if err != nil {
		return err
	}

	msg, err := readControl(conn, "authenticated")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStreamAuthFailed, err)
	}
	if msg.Type == "error" {
		return fmt.Errorf("%w: code=%d message=%s", ErrStreamAuthFailed, msg.Code, msg.Msg)
	}

	err = conn.WriteJSON(map[string]any{
		"action": "subscribe",
		"trades": []string{symbol},
	})
	if err != nil {
		return err
	}

	msg, err = readControl(conn, "subscription")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStreamSubscribeFailed, err)
	}
	if msg.Type == "error" {
		return fmt.Errorf("%w: code=%d message=%s", ErrStreamSubscribeFailed, msg.Code, msg.Msg)
	}

	return nil
}

// readControl reads frames until it sees the expected control message or an error message.
func readControl(conn *websocket.Conn, expected string) (streamMessage, error) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return streamMessage{}, err
		}

		messages, err := decodeStreamMessages(payload)
		if err != nil {
			return streamMessage{}, fmt.Errorf("malformed stream message: %w", err)
		}

		for _, msg := range messages {
			switch {
			case msg.Type == "error":
				return msg, nil
			case msg.Type == "subscription" && expected == "subscription":
				return msg, nil
			case msg.Type == "success" && msg.Msg == expected:
				return msg, nil
			}
		}
	}
}

// decodeStreamMessages splits a frame into messages by their "T" key. Frames
// carry keys that differ only by case ("T" and "t", "S" and "s"), so each
// message is read as a key map before the trade fields are decoded.
func decodeStreamMessages(payload []byte) ([]streamMessage, error) {
	var raws []map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, err
	}

	messages := make([]streamMessage, 0, len(raws))
	for _, raw := range raws {
		var msg streamMessage
		if err := unmarshalKey(raw, "T", &msg.Type); err != nil {
			return nil, err
		}

		if msg.Type != "t" {
			if err := unmarshalKey(raw, "msg", &msg.Msg); err != nil {
				return nil, err
			}
			if err := unmarshalKey(raw, "code", &msg.Code); err != nil {
				return nil, err
			}
			messages = append(messages, msg)
			continue
		}

		if err := unmarshalKey(raw, "S", &msg.Trade.Symbol); err != nil {
			return nil, err
		}
		delete(raw, "T")
		delete(raw, "S")

		body, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, &msg.Trade.StockTrade); err != nil {
			return nil, err
		}

		messages = append(messages, msg)
	}

	return messages, nil
}

func unmarshalKey(raw map[string]json.RawMessage, key string, dst any) error {
	value, ok := raw[key]
	if !ok {
		return nil
	}

	return json.Unmarshal(value, dst)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
