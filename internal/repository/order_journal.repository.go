package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
)

type OrderJournalRepository struct {
	db *sqlx.DB
}

func NewOrderJournalRepository(db *sqlx.DB) *OrderJournalRepository {
	return &OrderJournalRepository{db: db}
}

// Create inserts the entry. Replayed entries with a known id are ignored.
func (r *OrderJournalRepository) Create(ctx context.Context, orderJournal *entity.OrderJournal) error {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(orderJournal.TableName()).
		Columns(
			"id",
			"client_order_id",
			"family",
			"symbol",
			"side",
			"order_type",
			"order_class",
			"time_in_force",
			"quantity",
			"legs",
			"outcome",
			"remote_order_id",
			"remote_status",
			"filled_quantity",
			"filled_avg_price",
			"failure_kind",
			"failure_reason",
			"message",
			"created_at",
			"updated_at",
		).
		Values(
			orderJournal.ID,
			orderJournal.ClientOrderID,
			orderJournal.Family,
			orderJournal.Symbol,
			orderJournal.Side,
			orderJournal.OrderType,
			orderJournal.OrderClass,
			orderJournal.TimeInForce,
			orderJournal.Quantity,
			legsValue(orderJournal.Legs),
			orderJournal.Outcome,
			orderJournal.RemoteOrderID,
			orderJournal.RemoteStatus,
			orderJournal.FilledQuantity,
			orderJournal.FilledAvgPrice,
			orderJournal.FailureKind,
			orderJournal.FailureReason,
			orderJournal.Message,
			orderJournal.CreatedAt,
			orderJournal.UpdatedAt,
		).
		Suffix("ON CONFLICT (id) DO NOTHING")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *OrderJournalRepository) GetByID(ctx context.Context, id string) (*entity.OrderJournal, error) {
	var orderJournal entity.OrderJournal
	err := r.db.GetContext(ctx, &orderJournal, "SELECT * FROM order_journals WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &orderJournal, nil
}

// GetPendingSync returns accepted entries whose remote status may still change.
func (r *OrderJournalRepository) GetPendingSync(ctx context.Context, terminalStatuses []string, limit uint64) ([]entity.OrderJournal, error) {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("*").
		From("order_journals").
		Where(sq.Eq{"outcome": entity.OrderJournalOutcomeAccepted}).
		Where(sq.NotEq{"remote_order_id": nil}).
		OrderBy("created_at asc")

	if len(terminalStatuses) > 0 {
		queryBuilder = queryBuilder.Where(sq.NotEq{"remote_status": terminalStatuses})
	}
	if limit > 0 {
		queryBuilder = queryBuilder.Limit(limit)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	var orderJournals []entity.OrderJournal
	err = r.db.SelectContext(ctx, &orderJournals, query, args...)
	if err != nil {
		return nil, err
	}

	return orderJournals, nil
}

func (r *OrderJournalRepository) Update(ctx context.Context, orderJournal *entity.OrderJournal) error {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Update(orderJournal.TableName()).
		Set("remote_status", orderJournal.RemoteStatus).
		Set("filled_quantity", orderJournal.FilledQuantity).
		Set("filled_avg_price", orderJournal.FilledAvgPrice).
		Set("updated_at", orderJournal.UpdatedAt).
		Where(sq.Eq{"id": orderJournal.ID})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// legsValue stores stock orders with an empty array so the column stays non-null.
func legsValue(legs []byte) string {
	trimmed := strings.TrimSpace(string(legs))
	if trimmed == "" || trimmed == "null" {
		return "[]"
	}

	return trimmed
}
