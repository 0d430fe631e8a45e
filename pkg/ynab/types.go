// Package ynab provides a multi-credential YNAB API client and types.
package ynab

// Cleared states for a transaction.
const (
	ClearedCleared    = "cleared"
	ClearedUncleared  = "uncleared"
	ClearedReconciled = "reconciled"
)

// FlagColors lists the flag colors the API accepts.
var FlagColors = []string{"red", "orange", "yellow", "green", "blue", "purple"}

// Transaction represents a budget transaction.
type Transaction struct {
	ID         string  `json:"id"`
	AccountID  string  `json:"account_id"`
	Date       string  `json:"date"`   // YYYY-MM-DD
	Amount     int64   `json:"amount"` // milliunits; negative is outflow
	PayeeID    *string `json:"payee_id,omitempty"`
	PayeeName  *string `json:"payee_name,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
	Memo       *string `json:"memo,omitempty"`
	Cleared    string  `json:"cleared"`
	Approved   bool    `json:"approved"`
	FlagColor  *string `json:"flag_color,omitempty"`
	Deleted    bool    `json:"deleted,omitempty"`
}

// SaveTransaction is the shape accepted by the create endpoint. It is also
// the snapshot stored as the inverse of a deletion: enough to recreate an
// equivalent transaction (the service assigns a new id).
type SaveTransaction struct {
	AccountID  string  `json:"account_id"`
	Date       string  `json:"date"`
	Amount     int64   `json:"amount"`
	PayeeID    *string `json:"payee_id,omitempty"`
	PayeeName  *string `json:"payee_name,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
	Memo       *string `json:"memo,omitempty"`
	Cleared    string  `json:"cleared,omitempty"`
	Approved   bool    `json:"approved"`
	FlagColor  *string `json:"flag_color,omitempty"`
}

// Snapshot captures the mutable state of a transaction as a SaveTransaction.
func Snapshot(tx *Transaction) SaveTransaction {
	return SaveTransaction{
		AccountID:  tx.AccountID,
		Date:       tx.Date,
		Amount:     tx.Amount,
		PayeeID:    copyString(tx.PayeeID),
		PayeeName:  copyString(tx.PayeeName),
		CategoryID: copyString(tx.CategoryID),
		Memo:       copyString(tx.Memo),
		Cleared:    tx.Cleared,
		Approved:   tx.Approved,
		FlagColor:  copyString(tx.FlagColor),
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// ListOptions narrows a transactions listing.
type ListOptions struct {
	SinceDate string // YYYY-MM-DD, empty for no filter
	Type      string // "uncategorized" or "unapproved", empty for all
}

// transactionResponse represents the response wrapping a single transaction.
type transactionResponse struct {
	Data struct {
		Transaction Transaction `json:"transaction"`
	} `json:"data"`
}

// transactionsResponse represents the response from the list endpoint.
type transactionsResponse struct {
	Data struct {
		Transactions []Transaction `json:"transactions"`
	} `json:"data"`
}

// saveTransactionBody wraps a write request body.
type saveTransactionBody struct {
	Transaction any `json:"transaction"`
}
