package model

import "time"

// Transaction is one entry of the append-only stock history.
type Transaction struct {
	Date       time.Time `json:"date"`
	ItemName   string    `json:"itemName"`
	Type       string    `json:"type"`
	Quantity   int       `json:"quantity"`
	User       string    `json:"user"`
	UnitPrice  float64   `json:"unitPrice"`
	TotalPrice float64   `json:"totalPrice"`
}

// Transaction types.
const (
	TxAdd       = "ADD"
	TxUpdate    = "UPDATE"
	TxStockIn   = "STOCK IN"
	TxStockOut  = "STOCK OUT"
	TxSale      = "SALE"
	TxArchive   = "ARCHIVE"
	TxRetrieved = "RETRIEVED"
	TxEndOfDay  = "END_OF_DAY"
	TxDelete    = "DELETE"
)

// EndOfDayItem is the item name logged by the end-of-day reset.
const EndOfDayItem = "RESET STOCK IN/OUT COUNTERS"

// Description renders the relational free-text description.
func (t Transaction) Description() string {
	return t.Type + " - " + t.ItemName
}
