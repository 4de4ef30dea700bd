package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nvaprinting/stockroom/internal/ledger"
	"github.com/nvaprinting/stockroom/internal/model"
)

// ItemsHandler handles item and stock endpoints.
type ItemsHandler struct {
	Ledger *ledger.Ledger
}

type itemRequest struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Quantity      int     `json:"quantity"`
	MinStockLevel int     `json:"minStockLevel"`
	UnitPrice     float64 `json:"unitPrice"`
	Supplier      string  `json:"supplier"`

	// LastUpdated, when sent on PUT, must match the stored item.
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

func (req itemRequest) apply(item *model.Item) {
	item.Name = req.Name
	item.Category = req.Category
	item.Description = req.Description
	item.Quantity = req.Quantity
	item.MinStockLevel = req.MinStockLevel
	item.UnitPrice = req.UnitPrice
	item.Supplier = req.Supplier
}

type deleteItemRequest struct {
	Reason string `json:"reason"`
}

type stockRequest struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

// List handles GET /api/items. Optional filters: q (search) and category.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var items []model.Item
	switch {
	case q.Get("category") != "":
		items = h.Ledger.FindByCategory(q.Get("category"))
	default:
		items = h.Ledger.Search(q.Get("q"))
	}
	jsonResponse(w, http.StatusOK, items)
}

// LowStock handles GET /api/items/low-stock. Out of stock items are included
// after the low ones.
func (h *ItemsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items := append(h.Ledger.LowStockItems(), h.Ledger.OutOfStockItems()...)
	jsonResponse(w, http.StatusOK, items)
}

// Stats handles GET /api/stats.
func (h *ItemsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Ledger.Stats())
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var item model.Item
	req.apply(&item)
	item, err := h.Ledger.AddItem(r.Context(), item)
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	item, found := h.Ledger.Item(id)
	if !found {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. Stock counters are kept, and a
// lastUpdated older than the stored item is rejected with 409.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Ledger.EditItem(r.Context(), id, func(it *model.Item) error {
		if req.LastUpdated != nil && !req.LastUpdated.Equal(it.LastUpdated) {
			return fmt.Errorf("item %d: %w", id, ledger.ErrConflict)
		}
		req.apply(it)
		return nil
	})
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}. The remaining stock is archived
// under the given reason.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req deleteItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		jsonError(w, http.StatusBadRequest, "reason required")
		return
	}

	if err := h.Ledger.RemoveItem(r.Context(), id, req.Reason); err != nil {
		domainError(w, err)
		return
	}

	slog.Info("item archived", "user", ledger.ActorFrom(r.Context()), "id", id, "reason", req.Reason)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item archived"})
}

// StockIn handles POST /api/items/{id}/stock-in.
func (h *ItemsHandler) StockIn(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, func(id int64, req stockRequest) bool {
		return h.Ledger.AddStock(r.Context(), id, req.Amount)
	})
}

// StockOut handles POST /api/items/{id}/stock-out.
func (h *ItemsHandler) StockOut(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, func(id int64, req stockRequest) bool {
		return h.Ledger.ReduceItemQuantity(r.Context(), id, req.Amount, ledger.ActorFrom(r.Context()), req.Reason)
	})
}

func (h *ItemsHandler) adjust(w http.ResponseWriter, r *http.Request, apply func(int64, stockRequest) bool) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		jsonError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if _, found := h.Ledger.Item(id); !found {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	if !apply(id, req) {
		jsonError(w, http.StatusConflict, "not enough stock")
		return
	}

	item, _ := h.Ledger.Item(id)
	jsonResponse(w, http.StatusOK, item)
}
