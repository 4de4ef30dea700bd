package api

import (
	"net/http"

	"github.com/nvaprinting/stockroom/internal/ledger"
	"github.com/nvaprinting/stockroom/internal/model"
)

// ReferenceHandler handles categories and suppliers.
type ReferenceHandler struct {
	Ledger *ledger.Ledger
}

// ListCategories handles GET /api/categories.
func (h *ReferenceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := h.Ledger.Categories(r.Context())
	if cats == nil {
		cats = []model.Category{}
	}
	jsonResponse(w, http.StatusOK, cats)
}

// CreateCategory handles POST /api/categories.
func (h *ReferenceHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c model.Category
	if err := decodeJSON(r, &c); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Ledger.AddCategory(r.Context(), c); err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, c)
}

// DeleteCategory handles DELETE /api/categories/{name}.
func (h *ReferenceHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.RemoveCategory(r.Context(), r.PathValue("name")); err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// ListSuppliers handles GET /api/suppliers.
func (h *ReferenceHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers := h.Ledger.Suppliers(r.Context())
	if suppliers == nil {
		suppliers = []model.Supplier{}
	}
	jsonResponse(w, http.StatusOK, suppliers)
}

// SaveSupplier handles POST /api/suppliers. An existing supplier with the
// same name is updated.
func (h *ReferenceHandler) SaveSupplier(w http.ResponseWriter, r *http.Request) {
	var s model.Supplier
	if err := decodeJSON(r, &s); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Ledger.AddSupplier(r.Context(), s); err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// DeleteSupplier handles DELETE /api/suppliers/{name}.
func (h *ReferenceHandler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.RemoveSupplier(r.Context(), r.PathValue("name")); err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "supplier deleted"})
}
