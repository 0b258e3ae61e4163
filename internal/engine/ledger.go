package engine

import (
	"context"
	"sort"
	"time"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
	"restaurant-pos/internal/validation"
)

// Range is an inclusive time interval; a zero bound is open
type Range struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range
func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Aggregate sums ledger amounts. Every value is derived from the ledger
// entries in the range at call time.
type Aggregate struct {
	Count      int                                     `json:"count"`
	Total      models.Money                            `json:"total"`
	ByType     map[models.TransactionType]models.Money `json:"by_type"`
	ByCategory map[string]models.Money                 `json:"by_category"`
	ByDay      map[string]models.Money                 `json:"by_day"`
	ByMethod   map[models.PaymentMethod]models.Money   `json:"by_method"`
}

// SalesReport summarizes sales and refunds for a range of days
type SalesReport struct {
	From          string                                `json:"start_date"`
	To            string                                `json:"end_date"`
	TotalSales    models.Money                          `json:"total_sales"`
	TotalRefunds  models.Money                          `json:"total_refunds"`
	NetSales      models.Money                          `json:"net_sales"`
	SalesCount    int                                   `json:"sales_count"`
	SalesByMethod map[models.PaymentMethod]models.Money `json:"sales_by_method"`
	SalesByDay    map[string]models.Money               `json:"sales_by_day"`
}

// uncategorized is the ByCategory key for entries without a category
const uncategorized = "Uncategorized"

// RecordTransaction appends a ledger entry with a generated id and
// timestamp. A Sale naming an order marks that order Paid.
func (e *Engine) RecordTransaction(ctx context.Context, in models.TransactionInput) (models.Transaction, error) {
	if err := validation.ValidateTransaction(in); err != nil {
		return models.Transaction{}, apperr.Invalid(err)
	}

	tx := models.Transaction{
		ID:          e.newID(),
		OrderID:     in.OrderID,
		Type:        in.Type,
		Amount:      models.RoundCents(in.Amount),
		Method:      in.Method,
		Timestamp:   e.now(),
		Description: in.Description,
		Category:    in.Category,
		StaffID:     in.StaffID,
	}

	err := e.update(ctx, "transaction_recorded", func(r store.Repos) ([]models.Event, error) {
		var events []models.Event
		if tx.Type == models.TxSale && tx.OrderID != "" {
			order, err := getOrder(ctx, r, tx.OrderID)
			if err != nil {
				return nil, err
			}
			order.PaymentStatus = models.PaymentPaid
			order.PaymentMethod = tx.Method
			order.UpdatedAt = tx.Timestamp
			if err := r.Orders().Save(ctx, order); err != nil {
				return nil, err
			}
			events = append(events, models.Event{Type: models.EventOrderPaid, Order: ptr(order.Clone()), Transaction: ptr(tx)})
		}

		if err := r.Transactions().Append(ctx, tx); err != nil {
			return nil, err
		}
		return append([]models.Event{{Type: models.EventLedgerRecorded, Transaction: ptr(tx)}}, events...), nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	e.metrics.LedgerRecorded(tx.Type, tx.Amount)
	return tx, nil
}

// ListTransactions returns the ledger in recording order
func (e *Engine) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return e.filterTransactions(ctx, func(models.Transaction) bool { return true })
}

// TransactionsByType returns entries of one type
func (e *Engine) TransactionsByType(ctx context.Context, t models.TransactionType) ([]models.Transaction, error) {
	return e.filterTransactions(ctx, func(tx models.Transaction) bool { return tx.Type == t })
}

// TransactionsByDateRange returns entries recorded inside rng
func (e *Engine) TransactionsByDateRange(ctx context.Context, rng Range) ([]models.Transaction, error) {
	return e.filterTransactions(ctx, func(tx models.Transaction) bool { return rng.Contains(tx.Timestamp) })
}

func (e *Engine) filterTransactions(ctx context.Context, keep func(models.Transaction) bool) ([]models.Transaction, error) {
	var out []models.Transaction
	err := e.view(ctx, func(r store.Repos) error {
		all, err := r.Transactions().List(ctx)
		if err != nil {
			return err
		}
		for _, tx := range all {
			if keep(tx) {
				out = append(out, tx)
			}
		}
		return nil
	})
	return out, err
}

// Aggregate sums the ledger over rng, optionally restricted to one type
func (e *Engine) Aggregate(ctx context.Context, rng Range, typeFilter models.TransactionType) (Aggregate, error) {
	txs, err := e.TransactionsByDateRange(ctx, rng)
	if err != nil {
		return Aggregate{}, err
	}

	agg := Aggregate{
		Total:      models.Zero,
		ByType:     make(map[models.TransactionType]models.Money),
		ByCategory: make(map[string]models.Money),
		ByDay:      make(map[string]models.Money),
		ByMethod:   make(map[models.PaymentMethod]models.Money),
	}
	for _, tx := range txs {
		if typeFilter != "" && tx.Type != typeFilter {
			continue
		}
		agg.Count++
		agg.Total = agg.Total.Add(tx.Amount)
		agg.ByType[tx.Type] = agg.ByType[tx.Type].Add(tx.Amount)
		category := tx.Category
		if category == "" {
			category = uncategorized
		}
		agg.ByCategory[category] = agg.ByCategory[category].Add(tx.Amount)
		day := tx.Timestamp.UTC().Format(models.DateLayout)
		agg.ByDay[day] = agg.ByDay[day].Add(tx.Amount)
		agg.ByMethod[tx.Method] = agg.ByMethod[tx.Method].Add(tx.Amount)
	}
	return agg, nil
}

// SalesReport summarizes Sale and Refund entries from the start of from to
// the end of to, both YYYY-MM-DD
func (e *Engine) SalesReport(ctx context.Context, from, to string) (SalesReport, error) {
	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return SalesReport{}, apperr.Invalid(validation.ValidationError{Field: "start_date", Message: "start_date must be formatted as YYYY-MM-DD"})
	}
	end, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return SalesReport{}, apperr.Invalid(validation.ValidationError{Field: "end_date", Message: "end_date must be formatted as YYYY-MM-DD"})
	}
	rng := Range{From: start, To: end.Add(24*time.Hour - time.Nanosecond)}

	sales, err := e.Aggregate(ctx, rng, models.TxSale)
	if err != nil {
		return SalesReport{}, err
	}
	refunds, err := e.Aggregate(ctx, rng, models.TxRefund)
	if err != nil {
		return SalesReport{}, err
	}

	return SalesReport{
		From:          from,
		To:            to,
		TotalSales:    sales.Total,
		TotalRefunds:  refunds.Total,
		NetSales:      sales.Total.Sub(refunds.Total),
		SalesCount:    sales.Count,
		SalesByMethod: sales.ByMethod,
		SalesByDay:    sales.ByDay,
	}, nil
}

// newestFirst returns up to n transactions ordered by timestamp descending
func newestFirst(txs []models.Transaction, n int) []models.Transaction {
	sorted := append([]models.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
