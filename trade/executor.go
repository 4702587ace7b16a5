// Package trade turns a trade request into wallet movements, a ledger
// entry and cost-basis updates, executed as one unit with compensation
// when a late step fails.
package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/ledger/costbasis"
	"github.com/rustyeddy/ledger/internal/ref"
	"github.com/rustyeddy/ledger/ledger"
	"github.com/rustyeddy/ledger/money"
	"github.com/rustyeddy/ledger/store"
	"github.com/rustyeddy/ledger/wallet"
)

// Method selects which cost-basis trackers an execution feeds.
type Method string

const (
	MethodFIFO    Method = "fifo"
	MethodAverage Method = "average"
	MethodBoth    Method = "both"
)

// ParseMethod maps a config or flag value onto a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(s)) {
	case MethodFIFO:
		return MethodFIFO, nil
	case MethodAverage:
		return MethodAverage, nil
	case MethodBoth:
		return MethodBoth, nil
	}
	return "", fmt.Errorf("unknown cost method %q", s)
}

// Quantity says which side of the pair Request.Amount is denominated
// in. All ignores Amount and moves the entire relevant balance.
type Quantity int

const (
	OfCurrency1 Quantity = iota
	OfCurrency2
	All
)

// Request describes one trade of Currency1 against Currency2. Price is
// units of Currency2 per unit of Currency1.
type Request struct {
	Side      store.Side
	Currency1 string
	Currency2 string
	Price     decimal.Decimal
	Amount    decimal.Decimal
	Quantity  Quantity
	Fee       decimal.Decimal
	Tax       decimal.Decimal
	Method    Method
}

// Result reports what an execution moved. Consumed lists the FIFO lot
// pieces a sell consumed; it is nil for buys and for the average-only
// method.
type Result struct {
	Ref      string
	Order    store.Order
	Spent    decimal.Decimal // amount debited, in the spent currency
	Received decimal.Decimal // amount credited, in the received currency
	Consumed []store.Lot
}

// Executor wires the wallet, the ledger and both cost trackers behind
// a single Execute call.
type Executor struct {
	wallet  *wallet.Wallet
	ledger  *ledger.Ledger
	fifo    *costbasis.FIFO
	average *costbasis.Average
	refs    *ref.Generator
	log     *zap.Logger
	now     func() time.Time
}

func NewExecutor(w *wallet.Wallet, l *ledger.Ledger, f *costbasis.FIFO, a *costbasis.Average) *Executor {
	return &Executor{
		wallet:  w,
		ledger:  l,
		fifo:    f,
		average: a,
		refs:    ref.NewGenerator(),
		log:     zap.NewNop(),
		now:     time.Now,
	}
}

// WithLogger replaces the executor's logger (a nop by default).
func (e *Executor) WithLogger(log *zap.Logger) *Executor {
	e.log = log
	return e
}

// Execute runs one trade. Money moves first, then the order is
// appended and the cost trackers updated. If a step past the wallet
// fails, the wallet movements are reversed before the error returns;
// an already appended order stays in the ledger.
func (e *Executor) Execute(req Request) (Result, error) {
	if req.Price.Sign() <= 0 {
		return Result{}, fmt.Errorf("execute: price %s: %w", req.Price, wallet.ErrInvalidAmount)
	}
	if req.Amount.Sign() < 0 || req.Fee.Sign() < 0 || req.Tax.Sign() < 0 {
		return Result{}, fmt.Errorf("execute: negative amount, fee or tax: %w", wallet.ErrInvalidAmount)
	}
	if req.Method == "" {
		req.Method = MethodBoth
	}

	switch req.Side {
	case store.Buy:
		return e.buy(req)
	case store.Sell:
		return e.sell(req)
	}
	return Result{}, fmt.Errorf("execute: unknown side %q", req.Side)
}

// buy spends Currency2 to acquire Currency1.
func (e *Executor) buy(req Request) (Result, error) {
	var amount1, spent decimal.Decimal
	switch req.Quantity {
	case OfCurrency1:
		amount1 = req.Amount
		spent = money.Round(req.Amount.Mul(req.Price))
	case OfCurrency2:
		spent = req.Amount
		amount1 = money.Div(req.Amount, req.Price)
	case All:
		bal, err := e.wallet.Balance(req.Currency2)
		if err != nil {
			return Result{}, fmt.Errorf("buy: %w", err)
		}
		spent = bal
		amount1 = money.Div(bal, req.Price)
	default:
		return Result{}, fmt.Errorf("buy: unknown quantity %d", req.Quantity)
	}

	r := Result{Ref: e.refs.New(), Spent: spent, Received: amount1}
	log := e.log.With(
		zap.String("ref", r.Ref),
		zap.String("side", string(store.Buy)),
		zap.String("currency", req.Currency1),
		zap.String("amount", amount1.String()),
		zap.String("price", req.Price.String()),
	)

	if _, err := e.wallet.Debit(req.Currency2, spent); err != nil {
		return Result{}, fmt.Errorf("buy: %w", err)
	}
	if _, err := e.wallet.Credit(req.Currency1, amount1); err != nil {
		e.reverse(log, req.Currency2, spent, "", decimal.Zero)
		return Result{}, fmt.Errorf("buy: %w", err)
	}

	order, err := e.ledger.Append(store.Order{
		Time:     e.now(),
		Side:     store.Buy,
		Currency: strings.ToUpper(req.Currency1),
		Amount:   amount1,
		Price:    req.Price,
		Fee:      req.Fee,
		Tax:      req.Tax,
	})
	if err != nil {
		e.reverse(log, req.Currency2, spent, req.Currency1, amount1)
		return Result{}, fmt.Errorf("buy: %w", err)
	}
	r.Order = order

	// Both trackers account the full acquisition cost, fee and tax
	// included.
	cost := money.Round(amount1.Mul(req.Price).Add(req.Fee).Add(req.Tax))
	if req.Method == MethodFIFO || req.Method == MethodBoth {
		if err := e.fifo.AddLot(req.Currency1, order.Time, cost, amount1); err != nil {
			e.reverse(log, req.Currency2, spent, req.Currency1, amount1)
			return Result{}, fmt.Errorf("buy: %w", err)
		}
	}
	if req.Method == MethodAverage || req.Method == MethodBoth {
		if err := e.average.Add(req.Currency1, amount1, cost); err != nil {
			e.reverse(log, req.Currency2, spent, req.Currency1, amount1)
			return Result{}, fmt.Errorf("buy: %w", err)
		}
	}

	log.Info("trade executed", zap.Int64("order", order.ID))
	return r, nil
}

// sell disposes of Currency1 in exchange for Currency2.
func (e *Executor) sell(req Request) (Result, error) {
	var amount1, bought decimal.Decimal
	switch req.Quantity {
	case OfCurrency1:
		amount1 = req.Amount
		bought = money.Round(req.Amount.Mul(req.Price))
	case OfCurrency2:
		bought = req.Amount
		amount1 = money.Div(req.Amount, req.Price)
	case All:
		bal, err := e.wallet.Balance(req.Currency1)
		if err != nil {
			return Result{}, fmt.Errorf("sell: %w", err)
		}
		amount1 = bal
		bought = money.Round(bal.Mul(req.Price))
	default:
		return Result{}, fmt.Errorf("sell: unknown quantity %d", req.Quantity)
	}

	r := Result{Ref: e.refs.New(), Spent: amount1, Received: bought}
	log := e.log.With(
		zap.String("ref", r.Ref),
		zap.String("side", string(store.Sell)),
		zap.String("currency", req.Currency1),
		zap.String("amount", amount1.String()),
		zap.String("price", req.Price.String()),
	)

	if _, err := e.wallet.Debit(req.Currency1, amount1); err != nil {
		return Result{}, fmt.Errorf("sell: %w", err)
	}
	if _, err := e.wallet.Credit(req.Currency2, bought); err != nil {
		e.reverse(log, req.Currency1, amount1, "", decimal.Zero)
		return Result{}, fmt.Errorf("sell: %w", err)
	}

	order, err := e.ledger.Append(store.Order{
		Time:     e.now(),
		Side:     store.Sell,
		Currency: strings.ToUpper(req.Currency1),
		Amount:   amount1,
		Price:    req.Price,
		Fee:      req.Fee,
		Tax:      req.Tax,
	})
	if err != nil {
		e.reverse(log, req.Currency1, amount1, req.Currency2, bought)
		return Result{}, fmt.Errorf("sell: %w", err)
	}
	r.Order = order

	if req.Method == MethodFIFO || req.Method == MethodBoth {
		consumed, err := e.fifo.RemoveAmount(req.Currency1, amount1)
		if err != nil {
			e.reverse(log, req.Currency1, amount1, req.Currency2, bought)
			return Result{}, fmt.Errorf("sell: %w", err)
		}
		r.Consumed = consumed
	}
	if req.Method == MethodAverage || req.Method == MethodBoth {
		if _, err := e.average.Remove(req.Currency1, amount1); err != nil {
			e.reverse(log, req.Currency1, amount1, req.Currency2, bought)
			return Result{}, fmt.Errorf("sell: %w", err)
		}
	}

	log.Info("trade executed", zap.Int64("order", order.ID))
	return r, nil
}

// reverse undoes the wallet legs of a failed execution: the debited
// currency is credited back and the credited one debited back. Errors
// here are logged, not returned; the caller's error is the one that
// matters.
func (e *Executor) reverse(log *zap.Logger, debited string, spent decimal.Decimal, credited string, received decimal.Decimal) {
	if credited != "" {
		if _, err := e.wallet.Debit(credited, received); err != nil {
			log.Error("compensation failed", zap.String("currency", credited), zap.Error(err))
		}
	}
	if _, err := e.wallet.Credit(debited, spent); err != nil {
		log.Error("compensation failed", zap.String("currency", debited), zap.Error(err))
	}
	log.Warn("trade reversed")
}
