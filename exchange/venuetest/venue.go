// Copyright (c) 2025 BVK Chaitanya

// Package venuetest provides an in-memory exchange.Venue for tests.
package venuetest

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/funttastic/fun-api-sub000/exchange"
	"github.com/shopspring/decimal"
)

// Venue keeps markets, prices, balances and orders in memory. Placed orders
// stay open until they are canceled or filled with Fill.
type Venue struct {
	mu sync.Mutex

	Markets map[string]*exchange.Market
	Books   map[string]*exchange.OrderBook
	Tickers map[string]decimal.Decimal

	Balances map[string]*exchange.Balance

	orders []*exchange.Order
	lastID int

	// Err, when set, is returned by every operation.
	Err error

	Calls map[string]int

	Canceled  [][]string
	Withdraws int

	// LazyCancels is the number of CancelOrders calls that are acknowledged
	// with CANCELLATION_PENDING while the orders stay open.
	LazyCancels int
}

func New() *Venue {
	return &Venue{
		Markets:  make(map[string]*exchange.Market),
		Books:    make(map[string]*exchange.OrderBook),
		Tickers:  make(map[string]decimal.Decimal),
		Balances: make(map[string]*exchange.Balance),
		Calls:    make(map[string]int),
	}
}

// AddMarket registers a market with a ticker price and an empty order book.
func (v *Venue) AddMarket(m *exchange.Market, price decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Markets[m.ID] = m
	v.Tickers[m.ID] = price
	v.Books[m.ID] = &exchange.OrderBook{MarketID: m.ID}
}

func (v *Venue) SetBalance(token string, free decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Balances[token] = &exchange.Balance{Token: token, Free: free}
}

func (v *Venue) SetOrderBook(book *exchange.OrderBook) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Books[book.MarketID] = book
}

func (v *Venue) SetError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Err = err
}

// AddOrder inserts an order as if placed outside of the tests' code paths.
// Returns the venue id.
func (v *Venue) AddOrder(order *exchange.Order) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.addLocked(order)
}

func (v *Venue) addLocked(order *exchange.Order) string {
	v.lastID++
	c := order.Clone()
	if len(c.ID) == 0 {
		c.ID = strconv.Itoa(v.lastID)
	}
	if len(c.Status) == 0 {
		c.Status = exchange.OPEN
	}
	v.orders = append(v.orders, c)
	return c.ID
}

// Fill marks an open order as filled.
func (v *Venue) Fill(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, order := range v.orders {
		if order.ID == id {
			order.Status = exchange.FILLED
			return nil
		}
	}
	return os.ErrNotExist
}

// OpenOrders returns copies of all open orders.
func (v *Venue) OpenOrders() []*exchange.Order {
	v.mu.Lock()
	defer v.mu.Unlock()

	var orders []*exchange.Order
	for _, order := range v.orders {
		if order.Status == exchange.OPEN {
			orders = append(orders, order.Clone())
		}
	}
	return orders
}

func (v *Venue) NumCalls(op string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.Calls[op]
}

func (v *Venue) enter(op string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Calls[op]++
	return v.Err
}

func (v *Venue) GetMarket(ctx context.Context, marketID string) (*exchange.Market, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Calls["GetMarket"]++
	if v.Err != nil {
		return nil, v.Err
	}
	m, ok := v.Markets[marketID]
	if !ok {
		return nil, fmt.Errorf("market %q: %w", marketID, os.ErrNotExist)
	}
	c := *m
	return &c, nil
}

func (v *Venue) GetOrderBook(ctx context.Context, marketID string) (*exchange.OrderBook, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Calls["GetOrderBook"]++
	if v.Err != nil {
		return nil, v.Err
	}
	b, ok := v.Books[marketID]
	if !ok {
		return nil, fmt.Errorf("market %q: %w", marketID, os.ErrNotExist)
	}
	return &exchange.OrderBook{
		MarketID: b.MarketID,
		Bids:     slices.Clone(b.Bids),
		Asks:     slices.Clone(b.Asks),
	}, nil
}

func (v *Venue) GetTicker(ctx context.Context, marketID string) (*exchange.Ticker, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Calls["GetTicker"]++
	if v.Err != nil {
		return nil, v.Err
	}
	p, ok := v.Tickers[marketID]
	if !ok {
		return nil, fmt.Errorf("market %q: %w", marketID, os.ErrNotExist)
	}
	return &exchange.Ticker{MarketID: marketID, Price: p}, nil
}

func (v *Venue) GetBalances(ctx context.Context, owner string, tokens []string) (*exchange.Balances, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Calls["GetBalances"]++
	if v.Err != nil {
		return nil, v.Err
	}
	bs := &exchange.Balances{Tokens: make(map[string]*exchange.Balance)}
	for _, t := range tokens {
		if b, ok := v.Balances[t]; ok {
			c := *b
			bs.Tokens[t] = &c
		}
	}
	return bs, nil
}

func (v *Venue) GetOrders(ctx context.Context, filter *exchange.OrderFilter) ([]*exchange.Order, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Calls["GetOrders"]++
	if v.Err != nil {
		return nil, v.Err
	}
	var orders []*exchange.Order
	for _, order := range v.orders {
		if filter != nil {
			if len(filter.MarketID) != 0 && order.MarketID != filter.MarketID {
				continue
			}
			if len(filter.OwnerAddress) != 0 && order.OwnerAddress != filter.OwnerAddress {
				continue
			}
			if len(filter.Status) != 0 && order.Status != filter.Status {
				continue
			}
			if len(filter.IDs) != 0 && !slices.Contains(filter.IDs, order.ID) {
				continue
			}
		}
		orders = append(orders, order.Clone())
	}
	return orders, nil
}

func (v *Venue) PlaceOrders(ctx context.Context, owner string, orders []*exchange.Order) ([]*exchange.Order, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Calls["PlaceOrders"]++
	if v.Err != nil {
		return nil, v.Err
	}
	var placed []*exchange.Order
	for _, order := range orders {
		c := order.Clone()
		c.OwnerAddress = owner
		c.ID = ""
		c.ID = v.addLocked(c)
		c.Status = exchange.OPEN
		placed = append(placed, c)
	}
	return placed, nil
}

func (v *Venue) CancelOrders(ctx context.Context, marketID, owner string, ids []string) ([]*exchange.Order, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Calls["CancelOrders"]++
	if v.Err != nil {
		return nil, v.Err
	}
	v.Canceled = append(v.Canceled, slices.Clone(ids))
	lazy := v.LazyCancels > 0
	if lazy {
		v.LazyCancels--
	}
	var canceled []*exchange.Order
	for _, order := range v.orders {
		if order.MarketID == marketID && order.Status == exchange.OPEN && slices.Contains(ids, order.ID) {
			if lazy {
				c := order.Clone()
				c.Status = exchange.CANCELLATION_PENDING
				canceled = append(canceled, c)
				continue
			}
			order.Status = exchange.CANCELLED
			canceled = append(canceled, order.Clone())
		}
	}
	return canceled, nil
}

func (v *Venue) CancelAllOrders(ctx context.Context, marketID, owner string) ([]*exchange.Order, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Calls["CancelAllOrders"]++
	if v.Err != nil {
		return nil, v.Err
	}
	var canceled []*exchange.Order
	for _, order := range v.orders {
		if order.MarketID == marketID && order.OwnerAddress == owner && order.Status == exchange.OPEN {
			order.Status = exchange.CANCELLED
			canceled = append(canceled, order.Clone())
		}
	}
	return canceled, nil
}

func (v *Venue) WithdrawMarket(ctx context.Context, marketID, owner string) error {
	if err := v.enter("WithdrawMarket"); err != nil {
		return err
	}
	v.mu.Lock()
	v.Withdraws++
	v.mu.Unlock()
	return nil
}
