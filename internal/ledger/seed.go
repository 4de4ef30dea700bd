package ledger

import "github.com/nvaprinting/stockroom/internal/model"

// SampleCatalog is the starter inventory used when no data exists anywhere.
func SampleCatalog() []model.Item {
	return []model.Item{
		{Name: "A4 Paper", Category: "Paper", Description: "Standard A4 printing paper, 80gsm", Quantity: 500, MinStockLevel: 100, UnitPrice: 0.10, Supplier: "Office Supplies Co."},
		{Name: "A3 Paper", Category: "Paper", Description: "A3 size printing paper, 80gsm", Quantity: 200, MinStockLevel: 50, UnitPrice: 0.20, Supplier: "Office Supplies Co."},
		{Name: "Photo Paper", Category: "Paper", Description: "Glossy photo paper, A4 size", Quantity: 100, MinStockLevel: 25, UnitPrice: 0.50, Supplier: "Photo Supplies Inc."},

		{Name: "Black Ink Cartridge", Category: "Ink", Description: "Compatible black ink cartridge", Quantity: 15, MinStockLevel: 5, UnitPrice: 25.00, Supplier: "Print Solutions"},
		{Name: "Color Ink Set", Category: "Ink", Description: "CMY color ink cartridge set", Quantity: 10, MinStockLevel: 3, UnitPrice: 45.00, Supplier: "Print Solutions"},
		{Name: "Toner Cartridge", Category: "Toner", Description: "Laser printer toner cartridge", Quantity: 8, MinStockLevel: 2, UnitPrice: 75.00, Supplier: "Laser Tech"},

		{Name: "Heat Transfer Vinyl", Category: "Heat Press", Description: "Various colors heat transfer vinyl", Quantity: 50, MinStockLevel: 10, UnitPrice: 2.50, Supplier: "Vinyl Crafts"},
		{Name: "Sublimation Paper", Category: "Heat Press", Description: "Sublimation transfer paper", Quantity: 200, MinStockLevel: 50, UnitPrice: 0.75, Supplier: "Sublimation Supplies"},
		{Name: "Plain T-Shirts", Category: "Heat Press", Description: "Cotton t-shirts for printing", Quantity: 100, MinStockLevel: 20, UnitPrice: 8.00, Supplier: "Apparel Wholesale"},
		{Name: "Ceramic Mugs", Category: "Heat Press", Description: "White ceramic mugs for sublimation", Quantity: 50, MinStockLevel: 15, UnitPrice: 3.50, Supplier: "Mug Suppliers"},
		{Name: "Tumblers", Category: "Heat Press", Description: "Stainless steel tumblers", Quantity: 30, MinStockLevel: 10, UnitPrice: 12.00, Supplier: "Drinkware Co."},

		{Name: "Tarpaulin Material", Category: "Tarpaulin", Description: "Heavy-duty tarpaulin material", Quantity: 100, MinStockLevel: 20, UnitPrice: 3.00, Supplier: "Banner Materials"},
		{Name: "Eyelets", Category: "Tarpaulin", Description: "Metal eyelets for tarpaulin", Quantity: 1000, MinStockLevel: 200, UnitPrice: 0.05, Supplier: "Hardware Store"},
		{Name: "Rope", Category: "Tarpaulin", Description: "Nylon rope for tarpaulin", Quantity: 50, MinStockLevel: 10, UnitPrice: 1.50, Supplier: "Hardware Store"},
	}
}
