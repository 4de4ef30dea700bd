// Package checkout runs point-of-sale sales against the ledger.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/worker"
)

// Errors returned by Checkout. Validation errors are returned before any
// stock moves.
var (
	// ErrEmptyCart means the cart has no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidLine means a line has no item name, a non-positive quantity
	// or a negative price.
	ErrInvalidLine = errors.New("invalid cart line")
	// ErrUnknownMethod means the payment method is not cash or e-wallet.
	ErrUnknownMethod = errors.New("unknown payment method")
	// ErrInsufficientPayment means cash tendered is below the cart total.
	ErrInsufficientPayment = errors.New("tendered amount is less than the total")
	// ErrReferenceRequired means an e-wallet payment arrived without a reference.
	ErrReferenceRequired = errors.New("e-wallet payment needs a reference")
	// ErrItemNotFound means a line names an item the ledger does not hold.
	ErrItemNotFound = errors.New("item not found")
	// ErrLineFailed means the ledger refused a line for lack of stock. Lines
	// sold before it stay sold.
	ErrLineFailed = errors.New("not enough stock")
)

// Inventory is the part of the ledger a sale touches.
type Inventory interface {
	FindByName(name string) (model.Item, bool)
	Sell(ctx context.Context, id int64, quantity int, unitPrice float64, who model.Descriptor) (model.Item, bool)
	SaveData() error
}

// Archive is saved after every sale.
type Archive interface {
	Save() error
}

// SaleStore keeps the relational copy of sales.
type SaleStore interface {
	InsertSaleLine(ctx context.Context, sale model.Sale, line model.SaleLine) error
}

// Line is one cart entry.
type Line struct {
	ItemName  string  `json:"itemName"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// Payment describes how the customer pays.
type Payment struct {
	Method    string  `json:"method"`
	Tendered  float64 `json:"tendered"`
	Reference string  `json:"reference"`
}

// Coordinator applies carts to the inventory and persists the resulting sales
// on its own worker.
type Coordinator struct {
	inventory Inventory
	archive   Archive
	sales     SaleStore
	queue     *worker.Queue
	log       *slog.Logger
	now       func() time.Time
	newRef    func() string
}

// Option configures a Coordinator.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	now       func() time.Time
	newRef    func() string
	queueSize int
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithClock sets the sale time source.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithRefs replaces the uuid reference generator.
func WithRefs(next func() string) Option { return func(o *options) { o.newRef = next } }

// WithQueueSize bounds the persistence queue.
func WithQueueSize(n int) Option { return func(o *options) { o.queueSize = n } }

// New returns a Coordinator selling from inventory. Sales are written to
// sales on a background queue; call Close to drain it.
func New(inventory Inventory, archive Archive, sales SaleStore, opts ...Option) *Coordinator {
	o := options{
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
		newRef: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("component", "checkout")
	return &Coordinator{
		inventory: inventory,
		archive:   archive,
		sales:     sales,
		queue:     worker.New("checkout", o.queueSize, logger),
		log:       logger,
		now:       o.now,
		newRef:    o.newRef,
	}
}

// Checkout sells every line of cart in order. A line that cannot be sold
// stops the checkout; lines sold before it stay sold and are persisted. The
// returned sale holds only the applied lines, and is non-nil whenever at
// least one line was applied.
func (c *Coordinator) Checkout(ctx context.Context, user string, cart []Line, pay Payment) (*model.Sale, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	var total float64
	for i, line := range cart {
		if strings.TrimSpace(line.ItemName) == "" || line.Quantity <= 0 || line.UnitPrice < 0 {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrInvalidLine)
		}
		total += line.UnitPrice * float64(line.Quantity)
	}
	total = roundCents(total)

	method, err := normalizeMethod(pay.Method)
	if err != nil {
		return nil, err
	}
	pay.Method = method
	pay.Reference = strings.TrimSpace(pay.Reference)
	switch method {
	case model.PaymentCash:
		if pay.Tendered < total {
			return nil, fmt.Errorf("tendered %.2f for %.2f: %w", pay.Tendered, total, ErrInsufficientPayment)
		}
		pay.Reference = ""
	case model.PaymentEWallet:
		if pay.Reference == "" {
			return nil, ErrReferenceRequired
		}
		if pay.Tendered == 0 {
			pay.Tendered = total
		}
	}

	user = strings.TrimSpace(user)
	if user == "" {
		user = model.DefaultCashier
	}

	sale := &model.Sale{
		Ref:           c.newRef(),
		User:          user,
		PaymentMethod: pay.Method,
		PaymentRef:    pay.Reference,
		Tendered:      pay.Tendered,
		Date:          c.now(),
	}
	who := model.Descriptor{User: user, TxRef: sale.Ref, PaymentRef: pay.Reference}

	var lineErr error
	for i, line := range cart {
		item, ok := c.inventory.FindByName(line.ItemName)
		if !ok {
			lineErr = fmt.Errorf("line %d %q: %w", i+1, line.ItemName, ErrItemNotFound)
			break
		}
		if _, ok := c.inventory.Sell(ctx, item.ID, line.Quantity, line.UnitPrice, who); !ok {
			lineErr = fmt.Errorf("line %d %q: %w", i+1, item.Name, ErrLineFailed)
			break
		}
		sl := model.SaleLine{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Total:     roundCents(line.UnitPrice * float64(line.Quantity)),
		}
		sale.Lines = append(sale.Lines, sl)
		sale.Total += sl.Total
	}
	sale.Total = roundCents(sale.Total)
	sale.Change = roundCents(sale.Tendered - sale.Total)

	if len(sale.Lines) == 0 {
		return nil, lineErr
	}
	if lineErr != nil {
		c.log.Warn("checkout stopped early", "ref", sale.Ref, "applied", len(sale.Lines), "lines", len(cart), "error", lineErr)
	} else {
		c.log.Info("checkout complete", "ref", sale.Ref, "user", user, "method", sale.PaymentMethod, "total", sale.Total)
	}

	c.persist(*sale)
	return sale, lineErr
}

// persist queues the relational sale rows followed by the snapshot saves.
func (c *Coordinator) persist(sale model.Sale) {
	sale.Lines = append([]model.SaleLine(nil), sale.Lines...)
	c.queue.Submit(func(ctx context.Context) {
		failed := 0
		for _, line := range sale.Lines {
			if err := c.sales.InsertSaleLine(ctx, sale, line); err != nil {
				failed++
				c.log.Warn("sale line not written to database", "ref", sale.Ref, "item", line.ItemName, "error", err)
			}
		}
		if failed > 0 {
			c.log.Warn("sale partially persisted", "ref", sale.Ref, "written", len(sale.Lines)-failed, "failed", failed)
		}
		if err := c.inventory.SaveData(); err != nil {
			c.log.Error("failed to save inventory after sale", "ref", sale.Ref, "error", err)
		}
		if err := c.archive.Save(); err != nil {
			c.log.Error("failed to save archive after sale", "ref", sale.Ref, "error", err)
		}
	})
}

// Flush waits for every queued sale to be persisted.
func (c *Coordinator) Flush(ctx context.Context) error {
	return c.queue.Flush(ctx)
}

// Close persists every queued sale, then stops the queue. Sales still queued
// when ctx ends are dropped and logged.
func (c *Coordinator) Close(ctx context.Context) error {
	ferr := c.queue.Flush(ctx)
	if errors.Is(ferr, worker.ErrClosed) {
		ferr = nil
	} else if ferr != nil {
		ferr = fmt.Errorf("draining sales: %w", ferr)
	}
	dropped, err := c.queue.Shutdown(ctx)
	if dropped > 0 {
		c.log.Error("sales not persisted at shutdown", "dropped", dropped)
	}
	return errors.Join(ferr, err)
}

func normalizeMethod(method string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "", "cash":
		return model.PaymentCash, nil
	case "e-wallet", "ewallet", "gcash":
		return model.PaymentEWallet, nil
	}
	return "", fmt.Errorf("%q: %w", method, ErrUnknownMethod)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
