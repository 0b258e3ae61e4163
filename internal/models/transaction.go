package models

import "time"

// TransactionType classifies a ledger entry
type TransactionType string

const (
	TxSale       TransactionType = "Sale"
	TxRefund     TransactionType = "Refund"
	TxExpense    TransactionType = "Expense"
	TxAdjustment TransactionType = "Adjustment"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TxSale, TxRefund, TxExpense, TxAdjustment:
		return true
	}
	return false
}

// Transaction is an append-only ledger entry
type Transaction struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id,omitempty"`
	Type        TransactionType `json:"type"`
	Amount      Money           `json:"amount"`
	Method      PaymentMethod   `json:"method"`
	Timestamp   time.Time       `json:"timestamp"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	StaffID     string          `json:"staff_id"`
}

// Clone returns a copy of t
func (t Transaction) Clone() Transaction { return t }

// TransactionInput is the caller-supplied part of a transaction
type TransactionInput struct {
	OrderID     string          `json:"order_id,omitempty"`
	Type        TransactionType `json:"type"`
	Amount      Money           `json:"amount"`
	Method      PaymentMethod   `json:"method"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	StaffID     string          `json:"staff_id"`
}
