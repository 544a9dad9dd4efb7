package entity

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

type OrderJournalOutcome string

const (
	OrderJournalOutcomeAccepted OrderJournalOutcome = "ACCEPTED"
	OrderJournalOutcomeRejected OrderJournalOutcome = "REJECTED"
	OrderJournalOutcomeFailed   OrderJournalOutcome = "FAILED"
)

// OrderJournal is one submission attempt that passed local validation.
type OrderJournal struct {
	ID             string              `db:"id" json:"id"`
	ClientOrderID  string              `db:"client_order_id" json:"client_order_id"`
	Family         OrderFamily         `db:"family" json:"family"`
	Symbol         string              `db:"symbol" json:"symbol"`
	Side           null.String         `db:"side" json:"side"`
	OrderType      string              `db:"order_type" json:"order_type"`
	OrderClass     null.String         `db:"order_class" json:"order_class"`
	TimeInForce    string              `db:"time_in_force" json:"time_in_force"`
	Quantity       decimal.Decimal     `db:"quantity" json:"quantity"`
	Legs           json.RawMessage     `db:"legs" json:"legs"`
	Outcome        OrderJournalOutcome `db:"outcome" json:"outcome"`
	RemoteOrderID  null.String         `db:"remote_order_id" json:"remote_order_id"`
	RemoteStatus   null.String         `db:"remote_status" json:"remote_status"`
	FilledQuantity *decimal.Decimal    `db:"filled_quantity" json:"filled_quantity"`
	FilledAvgPrice *decimal.Decimal    `db:"filled_avg_price" json:"filled_avg_price"`
	FailureKind    null.String         `db:"failure_kind" json:"failure_kind"`
	FailureReason  null.String         `db:"failure_reason" json:"failure_reason"`
	Message        null.String         `db:"message" json:"message"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

func (o OrderJournal) TableName() string {
	return "order_journals"
}

type OrderJournalEvent struct {
	RetryCount int          `json:"retry"`
	Data       OrderJournal `json:"data"`
}
