// Copyright (c) 2025 BVK Chaitanya

package gateway

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/funttastic/fun-api-sub000/exchange"
	"github.com/funttastic/fun-api-sub000/gateway/internal"
)

type ordersQuery struct {
	MarketID     string
	OwnerAddress string
	Status       string
	IDs          []string
}

type balancesQuery struct {
	OwnerAddress string
	Tokens       []string
}

// Venue implements exchange.Venue for one gateway connector. Every operation
// is wrapped with the client's retry policy.
type Venue struct {
	client *Client

	base internal.Base

	getMarket       Op[string, *internal.Market]
	getOrderBook    Op[string, *internal.OrderBook]
	getTicker       Op[string, *internal.Ticker]
	getBalances     Op[*balancesQuery, *internal.Balances]
	getOrders       Op[*ordersQuery, *internal.OrdersResponse]
	postOrders      Op[*internal.PlaceOrdersRequest, *internal.OrdersResponse]
	deleteOrders    Op[*internal.CancelOrdersRequest, *internal.OrdersResponse]
	deleteAllOrders Op[*internal.CancelOrdersRequest, *internal.OrdersResponse]
	withdrawMarket  Op[*internal.WithdrawMarketRequest, *internal.WithdrawMarketResponse]
}

var _ exchange.Venue = &Venue{}

// Venue returns the venue operations for a chain, network and connector.
func (c *Client) Venue(chain, network, connector string) *Venue {
	v := &Venue{
		client: c,
		base: internal.Base{
			Chain:     chain,
			Network:   network,
			Connector: connector,
		},
	}

	ropts := c.opts.retryOptions()
	v.getMarket = Retry("get market", ropts, v.doGetMarket)
	v.getOrderBook = Retry("get order book", ropts, v.doGetOrderBook)
	v.getTicker = Retry("get ticker", ropts, v.doGetTicker)
	v.getBalances = Retry("get balances", ropts, v.doGetBalances)
	v.getOrders = Retry("get orders", ropts, v.doGetOrders)
	v.postOrders = Retry("post orders", ropts, v.doPostOrders)
	v.deleteOrders = Retry("delete orders", ropts, v.doDeleteOrders)
	v.deleteAllOrders = Retry("delete all orders", ropts, v.doDeleteAllOrders)
	v.withdrawMarket = Retry("post market withdraw", ropts, v.doWithdrawMarket)
	return v
}

func (v *Venue) path(elems ...string) string {
	return path.Join(append([]string{"/", v.base.Connector}, elems...)...)
}

func (v *Venue) query(kvs ...string) map[string]string {
	q := v.base.Query()
	for i := 0; i+1 < len(kvs); i += 2 {
		if len(kvs[i+1]) != 0 {
			q[kvs[i]] = kvs[i+1]
		}
	}
	return q
}

func (v *Venue) doGetMarket(ctx context.Context, marketID string) (*internal.Market, error) {
	resp := new(internal.Market)
	if err := v.client.do(ctx, http.MethodGet, v.path("market"), v.query("id", marketID), nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (v *Venue) doGetOrderBook(ctx context.Context, marketID string) (*internal.OrderBook, error) {
	resp := new(internal.OrderBook)
	if err := v.client.do(ctx, http.MethodGet, v.path("orderBook"), v.query("marketId", marketID), nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (v *Venue) doGetTicker(ctx context.Context, marketID string) (*internal.Ticker, error) {
	resp := new(internal.Ticker)
	if err := v.client.do(ctx, http.MethodGet, v.path("ticker"), v.query("marketId", marketID), nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (v *Venue) doGetBalances(ctx context.Context, q *balancesQuery) (*internal.Balances, error) {
	resp := new(internal.Balances)
	query := v.query("ownerAddress", q.OwnerAddress, "tokenIds", strings.Join(q.Tokens, ","))
	if err := v.client.do(ctx, http.MethodGet, v.path("balances"), query, nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (v *Venue) doGetOrders(ctx context.Context, q *ordersQuery) (*internal.OrdersResponse, error) {
	resp := new(internal.OrdersResponse)
	query := v.query("marketId", q.MarketID, "ownerAddress", q.OwnerAddress, "status", q.Status, "ids", strings.Join(q.IDs, ","))
	if err := v.client.do(ctx, http.MethodGet, v.path("orders"), query, nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (v *Venue) doPostOrders(ctx context.Context, req *internal.PlaceOrdersRequest) (*internal.OrdersResponse, error) {
	resp := new(internal.OrdersResponse)
	if err := v.client.do(ctx, http.MethodPost, v.path("orders"), nil, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (v *Venue) doDeleteOrders(ctx context.Context, req *internal.CancelOrdersRequest) (*internal.OrdersResponse, error) {
	resp := new(internal.OrdersResponse)
	if err := v.client.do(ctx, http.MethodDelete, v.path("orders"), nil, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (v *Venue) doDeleteAllOrders(ctx context.Context, req *internal.CancelOrdersRequest) (*internal.OrdersResponse, error) {
	resp := new(internal.OrdersResponse)
	if err := v.client.do(ctx, http.MethodDelete, v.path("orders", "all"), nil, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (v *Venue) doWithdrawMarket(ctx context.Context, req *internal.WithdrawMarketRequest) (*internal.WithdrawMarketResponse, error) {
	resp := new(internal.WithdrawMarketResponse)
	if err := v.client.do(ctx, http.MethodPost, v.path("market", "withdraw"), nil, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (v *Venue) GetMarket(ctx context.Context, marketID string) (*exchange.Market, error) {
	m, err := v.getMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	market := &exchange.Market{
		ID:                    m.ID,
		Name:                  m.Name,
		BaseToken:             m.BaseToken,
		QuoteToken:            m.QuoteToken,
		MinimumOrderSize:      m.MinimumOrderSize,
		MinimumPriceIncrement: m.MinimumPriceIncrement,
	}
	return market, nil
}

func (v *Venue) GetOrderBook(ctx context.Context, marketID string) (*exchange.OrderBook, error) {
	ob, err := v.getOrderBook(ctx, marketID)
	if err != nil {
		return nil, err
	}
	convert := func(levels []internal.PriceLevel) []exchange.PriceLevel {
		vs := make([]exchange.PriceLevel, 0, len(levels))
		for _, l := range levels {
			vs = append(vs, exchange.PriceLevel{Price: l.Price, Size: l.Amount})
		}
		return vs
	}
	book := &exchange.OrderBook{
		MarketID:  ob.MarketID,
		Bids:      convert(ob.Bids),
		Asks:      convert(ob.Asks),
		Timestamp: fromMillis(ob.Timestamp),
	}
	return book, nil
}

func (v *Venue) GetTicker(ctx context.Context, marketID string) (*exchange.Ticker, error) {
	t, err := v.getTicker(ctx, marketID)
	if err != nil {
		return nil, err
	}
	return &exchange.Ticker{MarketID: t.MarketID, Price: t.Price, Timestamp: fromMillis(t.Timestamp)}, nil
}

func (v *Venue) GetBalances(ctx context.Context, ownerAddress string, tokens []string) (*exchange.Balances, error) {
	bs, err := v.getBalances(ctx, &balancesQuery{OwnerAddress: ownerAddress, Tokens: tokens})
	if err != nil {
		return nil, err
	}
	balances := &exchange.Balances{Tokens: make(map[string]*exchange.Balance)}
	for token, b := range bs.Tokens {
		balances.Tokens[token] = &exchange.Balance{
			Token:          token,
			Free:           b.Free,
			LockedInOrders: b.LockedInOrders,
			Unsettled:      b.Unsettled,
		}
	}
	return balances, nil
}

func (v *Venue) GetOrders(ctx context.Context, filter *exchange.OrderFilter) ([]*exchange.Order, error) {
	q := &ordersQuery{
		MarketID:     filter.MarketID,
		OwnerAddress: filter.OwnerAddress,
		Status:       string(filter.Status),
		IDs:          filter.IDs,
	}
	resp, err := v.getOrders(ctx, q)
	if err != nil {
		return nil, err
	}
	return toOrders(resp.Orders), nil
}

func (v *Venue) PlaceOrders(ctx context.Context, ownerAddress string, orders []*exchange.Order) ([]*exchange.Order, error) {
	req := &internal.PlaceOrdersRequest{
		Base:         v.base,
		OwnerAddress: ownerAddress,
	}
	for _, o := range orders {
		req.Orders = append(req.Orders, &internal.Order{
			ClientID:     o.ClientID,
			MarketID:     o.MarketID,
			OwnerAddress: ownerAddress,
			Side:         string(o.Side),
			Type:         string(o.Type),
			Price:        o.Price,
			Amount:       o.Amount,
		})
	}
	resp, err := v.postOrders(ctx, req)
	if err != nil {
		return nil, err
	}
	return toOrders(resp.Orders), nil
}

func (v *Venue) CancelOrders(ctx context.Context, marketID, ownerAddress string, ids []string) ([]*exchange.Order, error) {
	req := &internal.CancelOrdersRequest{
		Base:         v.base,
		MarketID:     marketID,
		OwnerAddress: ownerAddress,
		IDs:          ids,
	}
	resp, err := v.deleteOrders(ctx, req)
	if err != nil {
		return nil, err
	}
	return toOrders(resp.Orders), nil
}

func (v *Venue) CancelAllOrders(ctx context.Context, marketID, ownerAddress string) ([]*exchange.Order, error) {
	req := &internal.CancelOrdersRequest{
		Base:         v.base,
		MarketID:     marketID,
		OwnerAddress: ownerAddress,
	}
	resp, err := v.deleteAllOrders(ctx, req)
	if err != nil {
		return nil, err
	}
	return toOrders(resp.Orders), nil
}

func (v *Venue) WithdrawMarket(ctx context.Context, marketID, ownerAddress string) error {
	req := &internal.WithdrawMarketRequest{
		Base:         v.base,
		MarketID:     marketID,
		OwnerAddress: ownerAddress,
	}
	_, err := v.withdrawMarket(ctx, req)
	return err
}

func toOrders(vs []*internal.Order) []*exchange.Order {
	orders := make([]*exchange.Order, 0, len(vs))
	for _, o := range vs {
		orders = append(orders, &exchange.Order{
			ID:           o.ID,
			ClientID:     o.ClientID,
			MarketID:     o.MarketID,
			OwnerAddress: o.OwnerAddress,
			Side:         exchange.Side(strings.ToUpper(o.Side)),
			Type:         exchange.OrderType(strings.ToUpper(o.Type)),
			Status:       exchange.ParseOrderStatus(o.Status),
			Price:        o.Price,
			Amount:       o.Amount,
			Fee:          o.Fee,
			CreationTime: fromMillis(o.CreationTime),
			FillingTime:  fromMillis(o.FillingTime),
		})
	}
	return orders
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

