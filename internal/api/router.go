package api

import (
	"database/sql"
	"net/http"

	"github.com/nvaprinting/stockroom/internal/archive"
	"github.com/nvaprinting/stockroom/internal/auth"
	"github.com/nvaprinting/stockroom/internal/checkout"
	"github.com/nvaprinting/stockroom/internal/ledger"
	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/txlog"
)

// Services are the components the API serves. DB holds the user accounts and
// may be nil, in which case login is unavailable.
type Services struct {
	Ledger   *ledger.Ledger
	Archive  *archive.Log
	Txlog    *txlog.Log
	Checkout *checkout.Coordinator
	DB       *sql.DB
	Tokens   *auth.Tokens
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(s Services) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: s.DB, Tokens: s.Tokens}
	usersHandler := &UsersHandler{DB: s.DB}
	itemsHandler := &ItemsHandler{Ledger: s.Ledger}
	checkoutHandler := &CheckoutHandler{Checkout: s.Checkout}
	txHandler := &TransactionsHandler{Log: s.Txlog}
	archiveHandler := &ArchiveHandler{Archive: s.Archive, Ledger: s.Ledger}
	eodHandler := &EndOfDayHandler{Ledger: s.Ledger}
	refHandler := &ReferenceHandler{Ledger: s.Ledger}

	authMW := AuthMiddleware(s.Tokens)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)
	requireProduction := RequireRole(model.RoleProduction)
	requireCashier := RequireRole(model.RoleCashier)

	read := func(h http.HandlerFunc) http.Handler { return authMW(requireCashier(h)) }
	manage := func(h http.HandlerFunc) http.Handler { return authMW(requireManager(h)) }
	produce := func(h http.HandlerFunc) http.Handler { return authMW(requireProduction(h)) }

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /api/auth/me", read(authHandler.Me))

	// Users (admin only).
	if s.DB != nil {
		mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
		mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
		mux.Handle("PUT /api/users/{id}/role", authMW(requireAdmin(http.HandlerFunc(usersHandler.SetRole))))
		mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))
	}

	// Items: read (all roles), write (manager+), stock movements (production+).
	mux.Handle("GET /api/items", read(itemsHandler.List))
	mux.Handle("POST /api/items", manage(itemsHandler.Create))
	mux.Handle("GET /api/items/low-stock", read(itemsHandler.LowStock))
	mux.Handle("GET /api/items/{id}", read(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", manage(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", manage(itemsHandler.Delete))
	mux.Handle("POST /api/items/{id}/stock-in", produce(itemsHandler.StockIn))
	mux.Handle("POST /api/items/{id}/stock-out", produce(itemsHandler.StockOut))
	mux.Handle("GET /api/stats", read(itemsHandler.Stats))

	// Point of sale.
	mux.Handle("POST /api/checkout", read(checkoutHandler.Create))

	// History.
	mux.Handle("GET /api/transactions", read(txHandler.List))
	mux.Handle("GET /api/transactions/summary", read(txHandler.Summary))
	mux.Handle("DELETE /api/transactions", manage(txHandler.Clear))
	mux.Handle("GET /api/archive", read(archiveHandler.List))
	mux.Handle("GET /api/archive/stats", read(archiveHandler.Stats))
	mux.Handle("POST /api/archive/{id}/restore", produce(archiveHandler.Restore))
	mux.Handle("DELETE /api/archive", manage(archiveHandler.Clear))

	// End of day (manager+).
	mux.Handle("POST /api/end-of-day", manage(eodHandler.Close))
	mux.Handle("POST /api/end-of-day/undo", manage(eodHandler.Undo))

	// Reference data: read (all roles), write (manager+).
	mux.Handle("GET /api/categories", read(refHandler.ListCategories))
	mux.Handle("POST /api/categories", manage(refHandler.CreateCategory))
	mux.Handle("DELETE /api/categories/{name}", manage(refHandler.DeleteCategory))
	mux.Handle("GET /api/suppliers", read(refHandler.ListSuppliers))
	mux.Handle("POST /api/suppliers", manage(refHandler.SaveSupplier))
	mux.Handle("DELETE /api/suppliers/{name}", manage(refHandler.DeleteSupplier))

	return mux
}
