package api

import (
	"errors"
	"net/http"

	"github.com/nvaprinting/stockroom/internal/checkout"
	"github.com/nvaprinting/stockroom/internal/ledger"
)

// CheckoutHandler handles point-of-sale endpoints.
type CheckoutHandler struct {
	Checkout *checkout.Coordinator
}

type checkoutRequest struct {
	Lines   []checkout.Line  `json:"lines"`
	Payment checkout.Payment `json:"payment"`
}

// Create handles POST /api/checkout. A sale that stops at a line responds
// 409 with the partial receipt, since the earlier lines are kept.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sale, err := h.Checkout.Checkout(r.Context(), ledger.ActorFrom(r.Context()), req.Lines, req.Payment)
	if err != nil && sale != nil {
		status := http.StatusConflict
		if errors.Is(err, checkout.ErrItemNotFound) {
			status = http.StatusNotFound
		}
		jsonResponse(w, status, map[string]any{"error": err.Error(), "sale": sale})
		return
	}
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, sale)
}
