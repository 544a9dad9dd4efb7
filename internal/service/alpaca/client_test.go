package alpaca

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.AlpacaConfig{
		APIKey:        "key-id",
		APISecret:     "secret",
		TradeAPIURL:   server.URL,
		DataAPIURL:    server.URL,
		StreamDataWSS: "ws" + strings.TrimPrefix(server.URL, "http"),
	})
}

func TestSubmitOrderSendsCredentialsAndWireBody(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/orders" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("APCA-API-KEY-ID"); got != "key-id" {
			t.Fatalf("expected key header, got %q", got)
		}
		if got := r.Header.Get("APCA-API-SECRET-KEY"); got != "secret" {
			t.Fatalf("expected secret header, got %q", got)
		}

		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Fatalf("invalid body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ord-1","client_order_id":"order_1","symbol":"AAPL","qty":"10","filled_qty":"0","side":"buy","type":"limit","time_in_force":"day","status":"accepted","created_at":"2026-01-02T15:04:05Z","updated_at":"2026-01-02T15:04:05Z"}`))
	})

	limit := decimal.RequireFromString("150.5")
	order, err := client.SubmitOrder(context.Background(), entity.PlaceOrderRequest{
		Symbol:        "AAPL",
		Quantity:      decimal.NewFromInt(10),
		Side:          entity.OrderSideBuy,
		Type:          entity.OrderTypeLimit,
		TimeInForce:   entity.TimeInForceDay,
		LimitPrice:    &limit,
		ClientOrderID: "order_1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody["side"] != "buy" || gotBody["type"] != "limit" || gotBody["time_in_force"] != "day" {
		t.Fatalf("expected lower-case enums, got %v", gotBody)
	}
	if gotBody["qty"] != "10" || gotBody["limit_price"] != "150.5" {
		t.Fatalf("expected decimal strings, got qty=%v limit=%v", gotBody["qty"], gotBody["limit_price"])
	}
	if _, ok := gotBody["stop_price"]; ok {
		t.Fatalf("stop_price should be omitted, got %v", gotBody)
	}
	if _, ok := gotBody["order_class"]; ok {
		t.Fatalf("order_class should be omitted, got %v", gotBody)
	}

	if order.ID != "ord-1" || order.Side != entity.OrderSideBuy || order.Type != entity.OrderTypeLimit {
		t.Fatalf("unexpected order: %+v", order)
	}
	if order.Quantity == nil || !order.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected qty: %v", order.Quantity)
	}
}

func TestErrorEnvelopeBecomesBrokerAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":40310000,"message":"account not eligible to trade uncovered option contracts"}`))
	})

	_, err := client.SubmitOrder(context.Background(), entity.PlaceOrderRequest{Symbol: "AAPL"})

	var apiErr *entity.BrokerAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected BrokerAPIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Code != 40310000 {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if !strings.Contains(apiErr.Message, "uncovered option contracts") {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
}

func TestNonJSONErrorKeepsRawBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("position does not exist"))
	})

	_, err := client.GetOpenPosition(context.Background(), "TSLA")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "position does not exist") {
		t.Fatalf("expected raw body in error, got %v", err)
	}
}

func TestMissingCredentialsFailBeforeNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(config.AlpacaConfig{TradeAPIURL: server.URL})
	_, err := client.GetAccount(context.Background())
	if !errors.Is(err, config.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if called {
		t.Fatal("request should not reach the server")
	}

	_, err = client.StreamStockTrades(context.Background(), entity.StreamTradesRequest{Symbol: "AAPL"})
	if !errors.Is(err, config.ErrMissingCredentials) {
		t.Fatalf("expected stream to report ErrMissingCredentials, got %v", err)
	}
}

func TestGetLatestStockQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/stocks/quotes/latest" || r.URL.Query().Get("symbols") != "AAPL" {
			t.Fatalf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"quotes":{"AAPL":{"t":"2026-01-02T15:04:05Z","ap":190.12,"as":3,"bp":190.1,"bs":5}}}`))
	})

	quote, err := client.GetLatestStockQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote == nil || !quote.AskPrice.Equal(decimal.RequireFromString("190.12")) || !quote.BidSize.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected quote: %+v", quote)
	}

	missing, err := client.GetLatestStockQuote(context.Background(), "MSFT")
	if err != nil || missing != nil {
		t.Fatalf("expected nil quote for missing symbol, got %+v err=%v", missing, err)
	}
}

func TestGetOptionContractsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("underlying_symbols") != "SPY" || query.Get("type") != "call" || query.Get("limit") != "5" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		if query.Has("expiration_date") {
			t.Fatalf("empty filters must be omitted: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"option_contracts":[{"symbol":"SPY260117C00500000","strike_price":"500","type":"call","close_price":null}],"next_page_token":null}`))
	})

	contracts, err := client.GetOptionContracts(context.Background(), entity.OptionContractFilter{
		UnderlyingSymbol: "SPY",
		Type:             "CALL",
		Limit:            5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contracts) != 1 || contracts[0].ClosePrice.Valid {
		t.Fatalf("unexpected contracts: %+v", contracts)
	}
}

func TestCancelAllOrdersParsesStatuses(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = w.Write([]byte(`[{"id":"a","status":200,"body":{}},{"id":"b","status":500,"body":{"message":"x"}}]`))
	})

	statuses, err := client.CancelAllOrders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 2 || statuses[1].Status != 500 {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
}

func TestClosePositionStatusOrderID(t *testing.T) {
	status := entity.ClosePositionStatus{Symbol: "AAPL", Status: 200, Body: json.RawMessage(`{"id":"close-1"}`)}
	if got := status.OrderID(); got != "close-1" {
		t.Fatalf("expected close-1, got %q", got)
	}
	if got := (entity.ClosePositionStatus{}).OrderID(); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestStreamStockTradesCollectsUntilMaxTrades(t *testing.T) {
	upgrader := websocket.Upgrader{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/iex" {
			t.Errorf("unexpected stream path %s", r.URL.Path)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"success","msg":"connected"}]`))

		var auth map[string]any
		_ = conn.ReadJSON(&auth)
		if auth["action"] != "auth" || auth["key"] != "key-id" {
			t.Errorf("unexpected auth message: %v", auth)
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"success","msg":"authenticated"}]`))

		var sub map[string]any
		_ = conn.ReadJSON(&sub)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"subscription","trades":["AAPL"]}]`))

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"t","S":"AAPL","i":1,"x":"V","p":190.5,"s":10,"t":"2026-01-02T15:04:05Z","c":["@"],"z":"C"},{"T":"t","S":"MSFT","i":2,"x":"V","p":400,"s":1,"t":"2026-01-02T15:04:05Z"}]`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"t","S":"AAPL","i":3,"x":"V","p":190.6,"s":5,"t":"2026-01-02T15:04:06Z"}]`))

		_, _, _ = conn.ReadMessage()
	})

	trades, err := client.StreamStockTrades(context.Background(), entity.StreamTradesRequest{
		Symbol:    "AAPL",
		MaxTrades: 2,
		Duration:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].Symbol != "AAPL" || trades[0].ID != 1 || !trades[0].Size.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected first trade: %+v", trades[0])
	}
	if trades[1].ID != 3 {
		t.Fatalf("unexpected second trade: %+v", trades[1])
	}
}

func TestStreamStockTradesAuthFailure(t *testing.T) {
	upgrader := websocket.Upgrader{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"success","msg":"connected"}]`))
		_, _, _ = conn.ReadMessage()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"error","code":402,"msg":"auth failed"}]`))
		_, _, _ = conn.ReadMessage()
	})

	_, err := client.StreamStockTrades(context.Background(), entity.StreamTradesRequest{Symbol: "AAPL", Duration: 2 * time.Second})
	if !errors.Is(err, ErrStreamAuthFailed) {
		t.Fatalf("expected ErrStreamAuthFailed, got %v", err)
	}
}
