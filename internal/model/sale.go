package model

import "time"

// Payment methods.
const (
	PaymentCash    = "Cash"
	PaymentEWallet = "E-wallet"
)

// DefaultCashier attributes sales with no authenticated user.
const DefaultCashier = "CASHIER"

// Sale is a completed checkout. All lines share Ref.
type Sale struct {
	Ref           string     `json:"ref"`
	User          string     `json:"user"`
	PaymentMethod string     `json:"paymentMethod"`
	PaymentRef    string     `json:"paymentRef,omitempty"`
	Tendered      float64    `json:"tendered"`
	Change        float64    `json:"change"`
	Total         float64    `json:"total"`
	Date          time.Time  `json:"date"`
	Lines         []SaleLine `json:"lines"`
}

// SaleLine is one item of a sale.
type SaleLine struct {
	ItemID    int64   `json:"itemId"`
	ItemName  string  `json:"itemName"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
}

// SalesSummary groups sale totals by payment method.
type SalesSummary struct {
	Count    int                `json:"count"`
	Total    float64            `json:"total"`
	ByMethod map[string]float64 `json:"byMethod"`
}
