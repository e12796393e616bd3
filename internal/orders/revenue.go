// Package orders aggregates order data of the upstream shop.
package orders

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/bool64/ctxd"
	"github.com/elinofoods/storefront/internal/shopify"
	"github.com/tidwall/gjson"
)

// Currency of aggregated totals.
const Currency = "INR"

// pageLimit is the maximum page size of orders endpoint.
const pageLimit = "250"

// ErrInvalidFilter indicates malformed revenue filter.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter narrows orders of revenue aggregation, empty fields are ignored.
type Filter struct {
	// StartDate is an inclusive YYYY-MM-DD day.
	StartDate string
	// EndDate is an inclusive YYYY-MM-DD day.
	EndDate    string
	CustomerID string
	ProductID  string
}

// Revenue is an aggregated total of orders.
type Revenue struct {
	TotalRevenue float64 `json:"totalRevenue"`
	Currency     string  `json:"currency"`
	OrderCount   int     `json:"orderCount"`
}

// Service aggregates orders.
type Service struct {
	upstream shopify.Getter
	log      ctxd.Logger
}

// NewService creates Service.
func NewService(upstream shopify.Getter, logger ctxd.Logger) *Service {
	if logger == nil {
		logger = ctxd.NoOpLogger{}
	}

	return &Service{upstream: upstream, log: logger}
}

func (f Filter) query() (url.Values, error) {
	q := url.Values{}
	q.Set("status", "any")
	q.Set("limit", pageLimit)

	if f.StartDate != "" {
		if _, err := time.Parse(time.DateOnly, f.StartDate); err != nil {
			return nil, fmt.Errorf("%w: startDate must be YYYY-MM-DD", ErrInvalidFilter)
		}

		q.Set("created_at_min", f.StartDate+"T00:00:00-00:00")
	}

	if f.EndDate != "" {
		if _, err := time.Parse(time.DateOnly, f.EndDate); err != nil {
			return nil, fmt.Errorf("%w: endDate must be YYYY-MM-DD", ErrInvalidFilter)
		}

		q.Set("created_at_max", f.EndDate+"T23:59:59-00:00")
	}

	if f.CustomerID != "" {
		q.Set("customer_id", f.CustomerID)
	}

	return q, nil
}

// Revenue sums total price of orders matching filter.
func (s *Service) Revenue(ctx context.Context, f Filter) (Revenue, error) {
	q, err := f.query()
	if err != nil {
		return Revenue{}, err
	}

	res, err := s.upstream.Get(ctx, "orders.json", q)
	if err != nil {
		return Revenue{}, ctxd.WrapError(ctx, err, "failed to fetch orders")
	}

	r := Revenue{Currency: Currency}

	res.Get("orders").ForEach(func(_, order gjson.Result) bool {
		if f.ProductID != "" && !hasProduct(order, f.ProductID) {
			return true
		}

		r.TotalRevenue += order.Get("total_price").Float()
		r.OrderCount++

		return true
	})

	s.log.Debug(ctx, "revenue aggregated", "orders", r.OrderCount, "total", r.TotalRevenue)

	return r, nil
}

func hasProduct(order gjson.Result, productID string) bool {
	found := false

	order.Get("line_items").ForEach(func(_, item gjson.Result) bool {
		if item.Get("product_id").String() == productID {
			found = true

			return false
		}

		return true
	})

	return found
}
