package model

import (
	"encoding/json"
	"fmt"
)

// Supplier is a vendor of stocked items.
type Supplier struct {
	Name            string `json:"name"`
	ContactNumber   string `json:"contactNumber"`
	Address         string `json:"address"`
	SuppliedProduct string `json:"suppliedProduct"`
}

// Category groups items.
type Category struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON accepts both the object form and a bare category name.
func (c *Category) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = Category{Name: name}
		return nil
	}

	type plain Category
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decoding category: %w", err)
	}
	*c = Category(p)
	return nil
}
