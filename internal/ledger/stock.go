package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/nvaprinting/stockroom/internal/archive"
	"github.com/nvaprinting/stockroom/internal/model"
)

// Reasons recorded on consumed stock.
const (
	ReasonSold     = "Sold via POS"
	ReasonRestored = "Restored from archive"
)

// RestoredMinStock is the threshold given to items recreated from the archive.
const RestoredMinStock = 10

// ReduceItemQuantity takes amount units out of stock. It returns false and
// changes nothing when amount is not positive or exceeds the quantity on
// hand. On success the stock-out counter, one archive record and one
// STOCK OUT transaction all reflect exactly amount.
func (l *Ledger) ReduceItemQuantity(ctx context.Context, id int64, amount int, user, reason string) bool {
	_, ok := l.consume(ctx, id, amount, reason, model.TxStockOut, 0, model.Descriptor{User: user})
	return ok
}

// Sell consumes quantity units for a sale. It behaves like ReduceItemQuantity
// but records a single SALE transaction priced at unitPrice, attributed to the
// full descriptor. The archive record carries the bare user.
func (l *Ledger) Sell(ctx context.Context, id int64, quantity int, unitPrice float64, who model.Descriptor) (model.Item, bool) {
	return l.consume(ctx, id, quantity, ReasonSold, model.TxSale, unitPrice, who)
}

func (l *Ledger) consume(ctx context.Context, id int64, amount int, reason, txType string, unitPrice float64, who model.Descriptor) (model.Item, bool) {
	if amount <= 0 {
		return model.Item{}, false
	}

	l.mu.Lock()
	i := l.indexOf(id)
	if i < 0 || amount > l.store[i].Quantity {
		l.mu.Unlock()
		return model.Item{}, false
	}
	item := l.store[i]
	wasLow := item.LowStock
	item.Quantity -= amount
	item.StockOut += amount
	item.LastUpdated = l.now()
	item.Refresh()
	l.store[i] = item
	l.mu.Unlock()

	if who.User == "" {
		who.User = ActorFrom(ctx)
	}
	l.archive.ArchiveItemUsage(ctx, item, amount, who.User, reason, model.ArchiveTypeUsed)
	l.txlog.LogPriced(ctx, item.Name, txType, amount, who.String(), unitPrice)
	l.commit(item, wasLow)
	return item, true
}

// AddStock receives amount units into stock. It returns false for a
// non-positive amount or an unknown item.
func (l *Ledger) AddStock(ctx context.Context, id int64, amount int) bool {
	if amount <= 0 {
		return false
	}

	l.mu.Lock()
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return false
	}
	item := l.store[i]
	wasLow := item.LowStock
	item.Quantity += amount
	item.StockIn += amount
	item.LastUpdated = l.now()
	item.Refresh()
	l.store[i] = item
	l.mu.Unlock()

	l.txlog.LogPriced(ctx, item.Name, model.TxStockIn, amount, ActorFrom(ctx), 0)
	l.commit(item, wasLow)
	return true
}

// EndOfDay resets every stock-in and stock-out counter. The state before the
// reset becomes the snapshot backup, which RestoreFromBackup brings back.
func (l *Ledger) EndOfDay(ctx context.Context) error {
	if err := l.Flush(ctx); err != nil {
		return fmt.Errorf("draining pending saves: %w", err)
	}
	if err := l.SaveData(); err != nil {
		return fmt.Errorf("saving pre-reset state: %w", err)
	}

	l.mu.Lock()
	for i := range l.store {
		l.store[i].StockIn = 0
		l.store[i].StockOut = 0
	}
	reset := cloneItems(l.store)
	l.mu.Unlock()

	if err := l.SaveData(); err != nil {
		return fmt.Errorf("saving reset state: %w", err)
	}
	l.txlog.LogPriced(ctx, model.EndOfDayItem, model.TxEndOfDay, 0, ActorFrom(ctx), 0)

	for _, it := range reset {
		l.queue.Submit(func(ctx context.Context) { l.writePrimary(ctx, it) })
	}
	l.log.Info("end of day counters reset", "items", len(reset))
	l.notify()
	return nil
}

// RestoreArchived returns an archived quantity to stock. An active item with
// the same name receives the units; otherwise a new item is created from the
// archived snapshot. A record can be restored once, and is marked restored
// only after its stock is back.
func (l *Ledger) RestoreArchived(ctx context.Context, recordID int64) (model.Item, error) {
	l.restoreMu.Lock()
	defer l.restoreMu.Unlock()

	rec, ok := l.archive.Record(recordID)
	if !ok {
		return model.Item{}, fmt.Errorf("record %d: %w", recordID, archive.ErrNotFound)
	}
	if rec.Restored {
		return model.Item{}, fmt.Errorf("record %d: %w", recordID, archive.ErrAlreadyRestored)
	}

	var (
		item model.Item
		err  error
	)
	if existing, ok := l.FindByName(rec.OriginalItemName); ok {
		l.mu.Lock()
		i := l.indexOf(existing.ID)
		if i < 0 {
			l.mu.Unlock()
			return model.Item{}, fmt.Errorf("item %d: %w", existing.ID, ErrNotFound)
		}
		item = l.store[i]
		wasLow := item.LowStock
		item.Quantity += rec.QuantityUsed
		item.LastUpdated = l.now()
		item.Refresh()
		l.store[i] = item
		l.mu.Unlock()
		l.commit(item, wasLow)
	} else {
		description := strings.TrimSpace(rec.Reason)
		if description == "" {
			description = ReasonRestored
		}
		item, err = l.AddItem(ctx, model.Item{
			Name:          rec.OriginalItemName,
			Category:      rec.Category,
			Description:   description,
			Quantity:      rec.QuantityUsed,
			MinStockLevel: RestoredMinStock,
			UnitPrice:     rec.UnitPrice,
			Supplier:      rec.Supplier,
		})
		if err != nil {
			return model.Item{}, fmt.Errorf("recreating %q: %w", rec.OriginalItemName, err)
		}
	}

	if _, err := l.archive.MarkRestored(recordID); err != nil {
		l.log.Error("stock returned but record not marked restored", "record", recordID, "error", err)
	}
	l.txlog.LogPriced(ctx, item.Name, model.TxRetrieved, rec.QuantityUsed, ActorFrom(ctx), 0)
	return item, nil
}
