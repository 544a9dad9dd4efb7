package repository

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestLegsValue(t *testing.T) {
	tests := []struct {
		name string
		legs json.RawMessage
		want string
	}{
		{name: "nil", legs: nil, want: "[]"},
		{name: "json null", legs: json.RawMessage("null"), want: "[]"},
		{name: "blank", legs: json.RawMessage("  "), want: "[]"},
		{name: "legs", legs: json.RawMessage(` [{"symbol":"AAPL250117C00150000","side":"buy","ratio_qty":1}] `), want: `[{"symbol":"AAPL250117C00150000","side":"buy","ratio_qty":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := legsValue(tt.legs); got != tt.want {
				t.Fatalf("legsValue() = %q, want %q", got, tt.want)
			}
		})
	}
}
