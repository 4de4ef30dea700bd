package api

import (
	"log/slog"
	"net/http"

	"github.com/nvaprinting/stockroom/internal/archive"
	"github.com/nvaprinting/stockroom/internal/ledger"
	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/txlog"
)

// TransactionsHandler serves the transaction log.
type TransactionsHandler struct {
	Log *txlog.Log
}

func transactionFilter(r *http.Request) (txlog.Filter, error) {
	q := r.URL.Query()
	f := txlog.Filter{Type: q.Get("type"), ItemName: q.Get("item"), User: q.Get("user")}
	var err error
	if f.From, err = queryTime(r, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryTime(r, "to"); err != nil {
		return f, err
	}
	return f, nil
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := transactionFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid date")
		return
	}
	records := h.Log.Query(f)
	if records == nil {
		records = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, records)
}

// Summary handles GET /api/transactions/summary.
func (h *TransactionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	f, err := transactionFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid date")
		return
	}
	jsonResponse(w, http.StatusOK, h.Log.SalesSummary(f))
}

// Clear handles DELETE /api/transactions?confirm=true.
func (h *TransactionsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		jsonError(w, http.StatusBadRequest, "confirm=true required")
		return
	}
	if err := h.Log.Clear(); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to clear transactions")
		return
	}
	slog.Warn("transaction log cleared", "user", ledger.ActorFrom(r.Context()))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "transactions cleared"})
}

// ArchiveHandler serves the archive and restores from it.
type ArchiveHandler struct {
	Archive *archive.Log
	Ledger  *ledger.Ledger
}

// List handles GET /api/archive.
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := archive.Filter{Name: q.Get("name"), Category: q.Get("category"), User: q.Get("user")}
	var err error
	if f.From, err = queryTime(r, "from"); err == nil {
		f.To, err = queryTime(r, "to")
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid date")
		return
	}
	jsonResponse(w, http.StatusOK, h.Archive.Query(f))
}

// Stats handles GET /api/archive/stats.
func (h *ArchiveHandler) Stats(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"stats":      h.Archive.Stats(),
		"categories": h.Archive.Categories(),
	})
}

// Restore handles POST /api/archive/{id}/restore.
func (h *ArchiveHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid archive id")
		return
	}
	item, err := h.Ledger.RestoreArchived(r.Context(), id)
	if err != nil {
		domainError(w, err)
		return
	}
	slog.Info("archive record restored", "user", ledger.ActorFrom(r.Context()), "record", id, "item", item.Name)
	jsonResponse(w, http.StatusOK, item)
}

// Clear handles DELETE /api/archive?confirm=true.
func (h *ArchiveHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		jsonError(w, http.StatusBadRequest, "confirm=true required")
		return
	}
	if err := h.Archive.Clear(); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to clear archive")
		return
	}
	slog.Warn("archive cleared", "user", ledger.ActorFrom(r.Context()))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "archive cleared"})
}

// EndOfDayHandler closes and reopens the business day.
type EndOfDayHandler struct {
	Ledger *ledger.Ledger
}

// Close handles POST /api/end-of-day.
func (h *EndOfDayHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.EndOfDay(r.Context()); err != nil {
		slog.Error("end of day failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "end of day failed")
		return
	}
	jsonResponse(w, http.StatusOK, h.Ledger.Stats())
}

// Undo handles POST /api/end-of-day/undo.
func (h *EndOfDayHandler) Undo(w http.ResponseWriter, r *http.Request) {
	if !h.Ledger.RestoreFromBackup(r.Context()) {
		jsonError(w, http.StatusConflict, "no backup to restore")
		return
	}
	slog.Info("end of day undone", "user", ledger.ActorFrom(r.Context()))
	jsonResponse(w, http.StatusOK, h.Ledger.Stats())
}
