package wallet

import (
	"github.com/shopspring/decimal"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
)

// EntryList wraps the paginated wallet entries plus the next page cursor.
type EntryList struct {
	Entries    []models.WalletEntry `json:"entries"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// Statement is the wallet view returned by the API.
type Statement struct {
	Balance    decimal.Decimal      `json:"balance"`
	Entries    []models.WalletEntry `json:"entries"`
	NextCursor string               `json:"next_cursor,omitempty"`
}
