package engine

import (
	"context"
	"sort"

	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
)

const (
	topSellingLimit    = 5
	recentTransactions = 5
)

// Dashboard is the back-office summary
type Dashboard struct {
	TotalSales         models.Money               `json:"total_sales"`
	TotalExpenses      models.Money               `json:"total_expenses"`
	TotalRefunds       models.Money               `json:"total_refunds"`
	NetRevenue         models.Money               `json:"net_revenue"`
	OrderCounts        map[models.OrderStatus]int `json:"order_counts"`
	TotalOrders        int                        `json:"total_orders"`
	TableCounts        map[models.TableStatus]int `json:"table_counts"`
	TotalTables        int                        `json:"total_tables"`
	TopSellingItems    []TopSellingItem           `json:"top_selling_items"`
	RecentTransactions []models.Transaction       `json:"recent_transactions"`
}

// TopSellingItem is a menu item with its cumulative ordered quantity
type TopSellingItem struct {
	ItemID   string `json:"item_id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// Dashboard computes the summary from one consistent snapshot
func (e *Engine) Dashboard(ctx context.Context) (Dashboard, error) {
	d := Dashboard{
		TotalSales:    models.Zero,
		TotalExpenses: models.Zero,
		TotalRefunds:  models.Zero,
		OrderCounts: map[models.OrderStatus]int{
			models.StatusPending:    0,
			models.StatusProcessing: 0,
			models.StatusCompleted:  0,
			models.StatusCancelled:  0,
		},
		TableCounts: map[models.TableStatus]int{
			models.TableAvailable: 0,
			models.TableOccupied:  0,
			models.TableReserved:  0,
		},
	}

	err := e.view(ctx, func(r store.Repos) error {
		txs, err := r.Transactions().List(ctx)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			switch tx.Type {
			case models.TxSale:
				d.TotalSales = d.TotalSales.Add(tx.Amount)
			case models.TxExpense:
				d.TotalExpenses = d.TotalExpenses.Add(tx.Amount)
			case models.TxRefund:
				d.TotalRefunds = d.TotalRefunds.Add(tx.Amount)
			}
		}
		d.NetRevenue = d.TotalSales.Sub(d.TotalExpenses).Sub(d.TotalRefunds)
		d.RecentTransactions = newestFirst(txs, recentTransactions)

		orders, err := r.Orders().List(ctx)
		if err != nil {
			return err
		}
		for _, o := range orders {
			d.OrderCounts[o.Status]++
		}
		d.TotalOrders = len(orders)
		d.TopSellingItems = topSelling(orders, topSellingLimit)

		tables, err := r.Tables().List(ctx)
		if err != nil {
			return err
		}
		for _, t := range tables {
			d.TableCounts[t.Status]++
		}
		d.TotalTables = len(tables)
		return nil
	})
	return d, err
}

// topSelling ranks items by quantity across all orders; ties keep first-seen order
func topSelling(orders []models.Order, n int) []TopSellingItem {
	var ranked []TopSellingItem
	index := make(map[string]int)
	for _, o := range orders {
		for _, line := range o.Items {
			i, ok := index[line.Item.ID]
			if !ok {
				i = len(ranked)
				index[line.Item.ID] = i
				ranked = append(ranked, TopSellingItem{ItemID: line.Item.ID, Title: line.Item.Title})
			}
			ranked[i].Quantity += line.Quantity
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Quantity > ranked[j].Quantity
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
