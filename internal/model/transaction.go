package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single line from an imported bank statement.
// Transactions are immutable once imported, except for the duplicate flag
// and the reference held by an accepted match.
type Transaction struct {
	Date        time.Time
	ID          string
	Name        string // Raw statement description
	Currency    string
	AccountID   string
	StatementID string // Source statement identifier
	Hash        string
	Amount      decimal.Decimal // Signed; debits are negative
	Duplicate   bool
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		t.Name,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
