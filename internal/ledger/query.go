package ledger

import (
	"strings"

	"github.com/nvaprinting/stockroom/internal/model"
)

// Items returns a copy of every item in insertion order.
func (l *Ledger) Items() []model.Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneItems(l.store)
}

// Len returns the number of active items.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.store)
}

// Item returns the item with id.
func (l *Ledger) Item(id int64) (model.Item, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(id); i >= 0 {
		return l.store[i], true
	}
	return model.Item{}, false
}

// FindByName returns the first item whose name matches, ignoring case.
func (l *Ledger) FindByName(name string) (model.Item, bool) {
	name = strings.TrimSpace(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.store {
		if strings.EqualFold(it.Name, name) {
			return it, true
		}
	}
	return model.Item{}, false
}

// FindByCategory returns the items in category, ignoring case.
func (l *Ledger) FindByCategory(category string) []model.Item {
	return l.where(func(it model.Item) bool { return strings.EqualFold(it.Category, category) })
}

// LowStockItems returns items at or under their threshold but not empty.
func (l *Ledger) LowStockItems() []model.Item {
	return l.where(func(it model.Item) bool { return it.LowStock })
}

// OutOfStockItems returns items with nothing on hand.
func (l *Ledger) OutOfStockItems() []model.Item {
	return l.where(func(it model.Item) bool { return it.OutOfStock })
}

// Search matches term against name, category, description and supplier.
func (l *Ledger) Search(term string) []model.Item {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return l.Items()
	}
	return l.where(func(it model.Item) bool {
		for _, field := range []string{it.Name, it.Category, it.Description, it.Supplier} {
			if strings.Contains(strings.ToLower(field), term) {
				return true
			}
		}
		return false
	})
}

// Stats summarizes the active inventory.
func (l *Ledger) Stats() model.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	var st model.Stats
	for _, it := range l.store {
		st.TotalItems++
		st.TotalQuantity += it.Quantity
		st.TotalValue += it.TotalValue()
		if it.LowStock {
			st.LowStockCount++
		}
		if it.OutOfStock {
			st.OutOfStockCount++
		}
	}
	return st
}

func (l *Ledger) where(keep func(model.Item) bool) []model.Item {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []model.Item{}
	for _, it := range l.store {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
