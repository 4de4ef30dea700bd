package model

import "time"

// Item is a stocked product. Quantity is authoritative only inside the ledger.
type Item struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	Quantity      int       `json:"quantity"`
	MinStockLevel int       `json:"minStockLevel"`
	UnitPrice     float64   `json:"unitPrice"`
	Supplier      string    `json:"supplier"`
	LastUpdated   time.Time `json:"lastUpdated"`
	LowStock      bool      `json:"lowStock"`
	OutOfStock    bool      `json:"outOfStock"`
	StockIn       int       `json:"stockIn"`
	StockOut      int       `json:"stockOut"`
}

// Stock statuses as shown to operators.
const (
	StatusNormal     = "NORMAL STOCK"
	StatusLowStock   = "LOW STOCK"
	StatusOutOfStock = "OUT OF STOCK"
)

// Refresh recomputes the derived stock flags from quantity and threshold.
func (i *Item) Refresh() {
	i.OutOfStock = i.Quantity == 0
	i.LowStock = i.Quantity > 0 && i.Quantity <= i.MinStockLevel
}

// Status returns the display status of the item.
func (i Item) Status() string {
	switch {
	case i.Quantity == 0:
		return StatusOutOfStock
	case i.Quantity <= i.MinStockLevel:
		return StatusLowStock
	default:
		return StatusNormal
	}
}

// TotalValue is quantity times unit price.
func (i Item) TotalValue() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// StockAlert records a transition of an item into low stock.
type StockAlert struct {
	ItemID       int64     `json:"itemId"`
	ItemName     string    `json:"itemName"`
	AlertDate    time.Time `json:"alertDate"`
	MinimumStock int       `json:"minimumStock"`
	Status       string    `json:"status"`
}

// StockAlertStatus is the status text of automatically raised alerts.
const StockAlertStatus = "Automatically generated low stock alert"

// Stats summarizes the active inventory.
type Stats struct {
	TotalItems      int     `json:"totalItems"`
	TotalQuantity   int     `json:"totalQuantity"`
	TotalValue      float64 `json:"totalValue"`
	LowStockCount   int     `json:"lowStockCount"`
	OutOfStockCount int     `json:"outOfStockCount"`
}
