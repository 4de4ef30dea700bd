package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nvaprinting/stockroom/internal/model"
)

// folded is the case-insensitive key of a reference name. A Caser holds
// state, so each call gets its own.
func folded(s string) string { return cases.Fold().String(strings.TrimSpace(s)) }

// loadReference reads suppliers and categories from the local files and
// merges in whatever the primary holds.
func (l *Ledger) loadReference(ctx context.Context) {
	suppliers, err := l.suppliers.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		l.log.Error("failed to read suppliers", "error", err)
	}
	categories, err := l.categories.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		l.log.Error("failed to read categories", "error", err)
	}

	if remote, err := l.primary.ListSuppliers(ctx); err == nil {
		suppliers = mergeSuppliers(suppliers, remote)
	}
	if remote, err := l.primary.ListCategories(ctx); err == nil {
		categories = mergeCategories(categories, remote)
	}

	l.mu.Lock()
	l.supplierList = suppliers
	l.categoryList = categories
	l.mu.Unlock()
}

// Categories lists categories, preferring the primary. Without it the local
// list is merged with every category used by an item, de-duplicated ignoring
// case and sorted.
func (l *Ledger) Categories(ctx context.Context) []model.Category {
	if remote, err := l.primary.ListCategories(ctx); err == nil && len(remote) > 0 {
		return remote
	} else if err != nil {
		l.log.Warn("database unavailable, listing local categories", "error", err)
	}

	l.mu.Lock()
	cats := append([]model.Category(nil), l.categoryList...)
	for _, it := range l.store {
		if it.Category != "" {
			cats = append(cats, model.Category{Name: it.Category})
		}
	}
	l.mu.Unlock()

	return mergeCategories(nil, cats)
}

// AddCategory adds a category unless one with the same name exists.
func (l *Ledger) AddCategory(ctx context.Context, c model.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("category name is required: %w", ErrInvalid)
	}

	l.mu.Lock()
	for _, existing := range l.categoryList {
		if folded(existing.Name) == folded(c.Name) {
			l.mu.Unlock()
			return fmt.Errorf("category %q: %w", c.Name, ErrDuplicate)
		}
	}
	l.categoryList = append(l.categoryList, c)
	l.mu.Unlock()

	l.queue.Submit(func(ctx context.Context) {
		if _, err := l.primary.InsertCategory(ctx, c); err != nil {
			l.log.Warn("category not written to database", "category", c.Name, "error", err)
		}
		l.saveCategories()
	})
	return nil
}

// RemoveCategory deletes a category by name, ignoring case.
func (l *Ledger) RemoveCategory(ctx context.Context, name string) error {
	l.mu.Lock()
	removed := false
	kept := l.categoryList[:0]
	for _, c := range l.categoryList {
		if folded(c.Name) == folded(name) {
			removed = true
			name = c.Name
			continue
		}
		kept = append(kept, c)
	}
	l.categoryList = kept
	l.mu.Unlock()

	if !removed {
		return fmt.Errorf("category %q: %w", name, ErrNotFound)
	}

	l.queue.Submit(func(ctx context.Context) {
		if err := l.primary.DeleteCategory(ctx, name); err != nil {
			l.log.Warn("category not deleted from database", "category", name, "error", err)
		}
		l.saveCategories()
	})
	return nil
}

// Suppliers lists suppliers, preferring the primary.
func (l *Ledger) Suppliers(ctx context.Context) []model.Supplier {
	if remote, err := l.primary.ListSuppliers(ctx); err == nil && len(remote) > 0 {
		return remote
	} else if err != nil {
		l.log.Warn("database unavailable, listing local suppliers", "error", err)
	}
	return l.supplierSnapshot()
}

// AddSupplier adds a supplier, or updates the one with the same name.
func (l *Ledger) AddSupplier(ctx context.Context, s model.Supplier) error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return fmt.Errorf("supplier name is required: %w", ErrInvalid)
	}

	l.mu.Lock()
	l.supplierList = mergeSuppliers(l.supplierList, []model.Supplier{s})
	l.mu.Unlock()

	l.queue.Submit(func(ctx context.Context) {
		if err := l.primary.InsertSupplier(ctx, s); err != nil {
			l.log.Warn("supplier not written to database", "supplier", s.Name, "error", err)
		}
		l.saveSuppliers()
	})
	return nil
}

// RemoveSupplier deletes a supplier by name, ignoring case.
func (l *Ledger) RemoveSupplier(ctx context.Context, name string) error {
	l.mu.Lock()
	removed := false
	kept := l.supplierList[:0]
	for _, s := range l.supplierList {
		if folded(s.Name) == folded(name) {
			removed = true
			name = s.Name
			continue
		}
		kept = append(kept, s)
	}
	l.supplierList = kept
	l.mu.Unlock()

	if !removed {
		return fmt.Errorf("supplier %q: %w", name, ErrNotFound)
	}

	l.queue.Submit(func(ctx context.Context) {
		if err := l.primary.DeleteSupplierByName(ctx, name); err != nil {
			l.log.Warn("supplier not deleted from database", "supplier", name, "error", err)
		}
		l.saveSuppliers()
	})
	return nil
}

func (l *Ledger) supplierSnapshot() []model.Supplier {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Supplier(nil), l.supplierList...)
}

func (l *Ledger) categorySnapshot() []model.Category {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Category(nil), l.categoryList...)
}

func (l *Ledger) saveSuppliers() {
	if err := l.suppliers.Save(l.supplierSnapshot()); err != nil {
		l.log.Error("failed to save suppliers", "error", err)
	}
}

func (l *Ledger) saveCategories() {
	if err := l.categories.Save(l.categorySnapshot()); err != nil {
		l.log.Error("failed to save categories", "error", err)
	}
}

// mergeCategories appends add to base, skipping names already present, and
// sorts the result by folded name.
func mergeCategories(base, add []model.Category) []model.Category {
	seen := map[string]int{}
	var out []model.Category
	for _, c := range append(append([]model.Category(nil), base...), add...) {
		key := folded(c.Name)
		if key == "" {
			continue
		}
		if i, ok := seen[key]; ok {
			if out[i].Description == "" {
				out[i].Description = c.Description
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return folded(out[i].Name) < folded(out[j].Name) })
	return out
}

// mergeSuppliers updates suppliers in base by name from add, appending new ones.
func mergeSuppliers(base, add []model.Supplier) []model.Supplier {
	out := append([]model.Supplier(nil), base...)
	for _, s := range add {
		replaced := false
		for i := range out {
			if folded(out[i].Name) == folded(s.Name) {
				out[i] = s
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, s)
		}
	}
	return out
}
