package model

import (
	"fmt"
	"time"
)

// ArchiveRecord is an immutable snapshot of stock removed from the active inventory.
type ArchiveRecord struct {
	ID               int64     `json:"id"`
	ItemID           int64     `json:"itemId"`
	OriginalItemName string    `json:"originalItemName"`
	Category         string    `json:"category"`
	Type             string    `json:"type"`
	QuantityUsed     int       `json:"quantityUsed"`
	UnitPrice        float64   `json:"unitPrice"`
	Supplier         string    `json:"supplier"`
	DateUsed         time.Time `json:"dateUsed"`
	UsedBy           string    `json:"usedBy"`
	Reason           string    `json:"reason"`
	Restored         bool      `json:"restored,omitempty"`
}

// Archive record types.
const (
	ArchiveTypeUsed     = "Used Item"
	ArchiveTypeArchived = "ARCHIVED"
)

// MaxArchiveNote bounds the relational archive note.
const MaxArchiveNote = 250

// TotalValue is the value of the removed stock at its archived unit price.
func (r ArchiveRecord) TotalValue() float64 {
	return float64(r.QuantityUsed) * r.UnitPrice
}

// Note renders the compact relational form of the record.
func (r ArchiveRecord) Note() string {
	note := fmt.Sprintf("%s - %s - qty:%d - by:%s - reason:%s - price:%.2f",
		r.OriginalItemName, r.Type, r.QuantityUsed, r.UsedBy, r.Reason, r.UnitPrice)
	if len(note) > MaxArchiveNote {
		note = note[:MaxArchiveNote]
	}
	return note
}

// ArchiveStats summarizes the archive.
type ArchiveStats struct {
	TotalRecords  int            `json:"totalRecords"`
	TotalQuantity int            `json:"totalQuantity"`
	TotalValue    float64        `json:"totalValue"`
	ByType        map[string]int `json:"byType"`
}
