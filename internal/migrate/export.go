package migrate

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nvaprinting/stockroom/internal/model"
)

// ExportSQL writes categories, suppliers and items as INSERT statements for
// the stockroom schema. Category names are title-cased and merged ignoring
// case, suppliers are merged on their trimmed name. It returns the number of
// items written.
func ExportSQL(w io.Writer, items []model.Item) (int, error) {
	title := cases.Title(language.English)
	fold := cases.Fold()

	var categories, suppliers []string
	seenCat := map[string]bool{}
	seenSup := map[string]bool{}
	for _, it := range items {
		if cat := strings.TrimSpace(it.Category); cat != "" && !seenCat[fold.String(cat)] {
			seenCat[fold.String(cat)] = true
			categories = append(categories, title.String(cat))
		}
		if sup := strings.TrimSpace(it.Supplier); sup != "" && !seenSup[sup] {
			seenSup[sup] = true
			suppliers = append(suppliers, sup)
		}
	}

	var b strings.Builder
	b.WriteString("-- Generated by stockroom export-sql\n")
	fmt.Fprintf(&b, "-- %d items, %d categories, %d suppliers\n", len(items), len(categories), len(suppliers))

	b.WriteString("\n-- categories\n")
	for i, name := range categories {
		fmt.Fprintf(&b, "INSERT INTO categories (id, name) VALUES (%d, %s);\n", i+1, quote(name))
	}

	b.WriteString("\n-- suppliers\n")
	for i, name := range suppliers {
		fmt.Fprintf(&b, "INSERT INTO suppliers (id, name) VALUES (%d, %s);\n", i+1, quote(name))
	}

	b.WriteString("\n-- items\n")
	for _, it := range items {
		id := "NULL"
		if it.ID > 0 {
			id = fmt.Sprint(it.ID)
		}
		category := strings.TrimSpace(it.Category)
		if category != "" {
			category = title.String(category)
		}
		fmt.Fprintf(&b,
			"INSERT INTO inventory_items (id, name, category, description, quantity, min_stock_level, unit_price, supplier) VALUES (%s, %s, %s, %s, %d, %d, %.2f, %s);\n",
			id, quote(strings.TrimSpace(it.Name)), quote(category), quote(it.Description),
			it.Quantity, it.MinStockLevel, it.UnitPrice, quote(strings.TrimSpace(it.Supplier)),
		)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return 0, fmt.Errorf("writing sql export: %w", err)
	}
	return len(items), nil
}

// quote renders s as a SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
