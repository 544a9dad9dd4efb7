package mcp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/shopspring/decimal"
)

const (
	notAvailable   = "N/A"
	separatorShort = "-------------------"
	separatorLong  = "-----------------------------------"
	snapshotTime   = "2006-01-02 15:04:05.000000 MST"
)

// textBlock accumulates "Label: value" lines.
type textBlock struct {
	b strings.Builder
}

func (t *textBlock) line(s string) {
	t.b.WriteString(s)
	t.b.WriteByte('\n')
}

func (t *textBlock) linef(format string, args ...any) {
	fmt.Fprintf(&t.b, format, args...)
	t.b.WriteByte('\n')
}

func (t *textBlock) field(label string, value any) {
	t.linef("%s: %v", label, value)
}

func (t *textBlock) blank() {
	t.b.WriteByte('\n')
}

func (t *textBlock) String() string {
	return t.b.String()
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func moneyPtr(d *decimal.Decimal) string {
	if d == nil {
		return notAvailable
	}

	return money(*d)
}

func price6(d decimal.Decimal) string {
	return "$" + d.StringFixed(6)
}

func percentOf(fraction decimal.Decimal) string {
	return fraction.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

func decimalPtrString(d *decimal.Decimal) string {
	if d == nil {
		return notAvailable
	}

	return d.String()
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}

	return "No"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return notAvailable
	}

	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return notAvailable
	}

	return formatTime(*t)
}

func wireValue[T ~string](v T) string {
	if v == "" {
		return notAvailable
	}

	return strings.ToLower(string(v))
}

func conditions(c []string) string {
	return "[" + strings.Join(c, ", ") + "]"
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}

	return v
}

// brokerMessage prefers the broker's own error message over the wrapped form.
func brokerMessage(err error) string {
	var apiErr *entity.BrokerAPIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return err.Error()
}

func rawBody(b json.RawMessage) string {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return ""
	}

	return s
}
