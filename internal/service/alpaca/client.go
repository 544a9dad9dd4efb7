package alpaca

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/sirupsen/logrus"
)

const defaultRequestTimeout = 15 * time.Second

// Client talks to the trading, market data and option data REST APIs plus the
// market data stream. It holds no mutable state and is safe for concurrent use.
type Client struct {
	apiKey        string
	apiSecret     string
	tradeBaseURL  string
	dataBaseURL   string
	streamBaseURL string
	optionsFeed   string
	httpClient    *http.Client
}

func NewClient(cfg config.AlpacaConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		apiKey:        strings.TrimSpace(cfg.APIKey),
		apiSecret:     strings.TrimSpace(cfg.APISecret),
		tradeBaseURL:  cfg.ResolveTradeAPIURL(),
		dataBaseURL:   cfg.ResolveDataAPIURL(),
		streamBaseURL: cfg.ResolveStreamDataWSS(),
		optionsFeed:   strings.TrimSpace(cfg.OptionsFeed),
		httpClient:    &http.Client{Timeout: timeout},
	}
}

type apiErrorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) tradeURL(path string, query url.Values) string {
	return buildURL(c.tradeBaseURL, path, query)
}

func (c *Client) dataURL(path string, query url.Values) string {
	return buildURL(c.dataBaseURL, path, query)
}

func buildURL(baseURL, path string, query url.Values) string {
	endpoint := baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	return endpoint
}

// do sends one request and decodes a 2xx body into out (when out is non-nil).
// Non-2xx responses become *entity.BrokerAPIError.
func (c *Client) do(ctx context.Context, method, endpoint string, payload, out any) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.apiKey == "" || c.apiSecret == "" {
		return config.ErrMissingCredentials
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("alpaca request encode failed: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	req.Header.Set("APCA-API-KEY-ID", c.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.apiSecret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := parseAPIError(resp.StatusCode, respBody)
		logrus.WithFields(logrus.Fields{
			"method": method,
			"path":   req.URL.Path,
			"status": apiErr.StatusCode,
			"code":   apiErr.Code,
		}).Debug("alpaca request rejected")

		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("alpaca response parse failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	return nil
}

func parseAPIError(statusCode int, body []byte) *entity.BrokerAPIError {
	apiErr := &entity.BrokerAPIError{StatusCode: statusCode}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
	}

	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}

	return apiErr
}

// IsNotFound reports whether err is a 404 from the broker.
func IsNotFound(err error) bool {
	var apiErr *entity.BrokerAPIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
